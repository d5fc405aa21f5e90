package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/timeutil"
	"github.com/wonny/longshanks/pkg/config"
	"github.com/wonny/longshanks/pkg/httputil"
	"github.com/wonny/longshanks/pkg/logger"
)

// YahooFetcher pulls daily adjusted closes from the Yahoo v8 chart API
// ⭐ SSOT: 외부 시세 수집은 여기서만
type YahooFetcher struct {
	http      *httputil.Client
	limiter   *rate.Limiter
	baseURL   string
	userAgent string
	log       *logger.Logger
}

// NewYahooFetcher creates a Yahoo fetcher with a per-ticker rate limit
func NewYahooFetcher(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *YahooFetcher {
	return &YahooFetcher{
		http:      httpClient.WithRetry(cfg.Yahoo.MaxRetries, 2*time.Second),
		limiter:   rate.NewLimiter(rate.Limit(cfg.Yahoo.RequestsPerSec), 1),
		baseURL:   cfg.Yahoo.BaseURL,
		userAgent: cfg.Yahoo.UserAgent,
		log:       log,
	}
}

// chartResponse mirrors the slice of the v8 payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchTicker fetches daily observations for one ticker in [from, to].
// Null or non-positive closes are dropped, matching the panel contract.
func (f *YahooFetcher) FetchTicker(ctx context.Context, ticker string, from, to time.Time) ([]contracts.Observation, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		f.baseURL, ticker, from.Unix(), to.Unix())

	resp, err := f.http.Get(ctx, url, map[string]string{"User-Agent": f.userAgent})
	if err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("chart request for %s returned HTTP %d", ticker, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart body for %s: %w", ticker, err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("failed to parse chart for %s: %w", ticker, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart error for %s: %s", ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Adjclose) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Adjclose[0].Adjclose

	n := len(result.Timestamp)
	if len(closes) < n {
		n = len(closes)
	}

	obs := make([]contracts.Observation, 0, n)
	for i := 0; i < n; i++ {
		if result.Timestamp[i] == 0 || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		d := timeutil.DateOnly(time.Unix(result.Timestamp[i], 0).UTC())
		if d.Before(from) || d.After(to) {
			continue
		}
		obs = append(obs, contracts.Observation{Ticker: ticker, Date: d, AdjClose: *closes[i]})
	}
	return obs, nil
}

// FetchAll fetches every ticker in turn. A ticker that fails after retries
// is logged and skipped; the batch keeps going.
func (f *YahooFetcher) FetchAll(ctx context.Context, tickers []string, from, to time.Time) ([]contracts.Observation, error) {
	all := make([]contracts.Observation, 0, len(tickers)*252)
	successful := 0

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		obs, err := f.FetchTicker(ctx, ticker, from, to)
		if err != nil {
			f.log.WithError(err).WithField("ticker", ticker).Warn("Ticker fetch failed, skipping")
			continue
		}
		if len(obs) == 0 {
			f.log.WithField("ticker", ticker).Debug("No data for ticker")
			continue
		}

		all = append(all, obs...)
		successful++
	}

	f.log.WithFields(map[string]interface{}{
		"successful":   successful,
		"requested":    len(tickers),
		"observations": len(all),
	}).Info("Yahoo fetch complete")

	if successful == 0 {
		return nil, fmt.Errorf("no tickers fetched successfully (%d requested)", len(tickers))
	}
	return all, nil
}
