package universe

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/longshanks/pkg/httputil"
	"github.com/wonny/longshanks/pkg/logger"
)

const defaultConstituentsURL = "https://www.slickcharts.com/sp500"

// Scraper fetches the current S&P 500 constituent list
// ⭐ SSOT: 유니버스 스크래핑은 여기서만
type Scraper struct {
	http *httputil.Client
	url  string
	log  *logger.Logger
}

// NewScraper creates a constituents scraper
func NewScraper(httpClient *httputil.Client, log *logger.Logger) *Scraper {
	return &Scraper{
		http: httpClient,
		url:  defaultConstituentsURL,
		log:  log,
	}
}

// Fetch downloads and parses the constituents page
func (s *Scraper) Fetch(ctx context.Context) ([]string, error) {
	resp, err := s.http.Get(ctx, s.url, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return nil, fmt.Errorf("constituents request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("constituents request returned HTTP %d", resp.StatusCode)
	}

	tickers, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	s.log.WithField("tickers", len(tickers)).Info("Constituents scraped")
	return tickers, nil
}

// ParseConstituents extracts ticker symbols from the constituents table.
// 야후 표기 규약: 점 대신 하이픈 (BRK.B → BRK-B)
func ParseConstituents(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse constituents HTML: %w", err)
	}

	seen := make(map[string]struct{})
	var tickers []string

	doc.Find("table.table tbody tr").Each(func(i int, row *goquery.Selection) {
		// 컬럼: # / Company / Symbol / Weight / ...
		symbol := strings.TrimSpace(row.Find("td").Eq(2).Text())
		if symbol == "" {
			return
		}
		symbol = strings.ReplaceAll(symbol, ".", "-")
		if _, ok := seen[symbol]; ok {
			return
		}
		seen[symbol] = struct{}{}
		tickers = append(tickers, symbol)
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers found in constituents page")
	}
	return tickers, nil
}
