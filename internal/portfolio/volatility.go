package portfolio

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/logger"
)

const tradingDaysPerYear = 252

// VolEstimator computes trailing annualized volatility from daily prices
// ⭐ SSOT: 변동성 추정은 여기서만
type VolEstimator struct {
	provider   contracts.PanelProvider
	windowDays int
	minObs     int
	defaultVol float64
	log        *logger.Logger
}

// NewVolEstimator creates a volatility estimator
func NewVolEstimator(provider contracts.PanelProvider, cfg *strategyconfig.Config, log *logger.Logger) *VolEstimator {
	return &VolEstimator{
		provider:   provider,
		windowDays: cfg.Weighting.VolWindowDays,
		minObs:     cfg.Weighting.MinVolObs,
		defaultVol: cfg.Weighting.DefaultVol,
		log:        log,
	}
}

// Annualized returns per-ticker annualized vol over the trailing window
// ending at asOf. Every requested ticker gets a value; thin or missing
// history falls back to the default.
func (v *VolEstimator) Annualized(ctx context.Context, tickers []string, asOf time.Time) (map[string]float64, error) {
	vols := make(map[string]float64, len(tickers))
	from := asOf.AddDate(0, 0, -v.windowDays)

	obs, err := v.provider.History(ctx, tickers, from, asOf)
	if err != nil {
		// 데이터 없이도 리밸런스는 계속: 전 종목 기본값
		v.log.WithError(err).Warn("Volatility history unavailable, using default vol")
		for _, t := range tickers {
			vols[t] = v.defaultVol
		}
		return vols, nil
	}

	// 종목별 일간 시계열 구성
	series := make(map[string][]contracts.Observation)
	for _, o := range obs {
		if o.AdjClose > 0 {
			series[o.Ticker] = append(series[o.Ticker], o)
		}
	}

	for _, ticker := range tickers {
		points := series[ticker]
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

		rets := make([]float64, 0, len(points))
		for i := 1; i < len(points); i++ {
			rets = append(rets, math.Log(points[i].AdjClose/points[i-1].AdjClose))
		}

		if len(rets) < v.minObs {
			vols[ticker] = v.defaultVol
			continue
		}

		annVol := sampleStd(rets) * math.Sqrt(tradingDaysPerYear)
		if annVol <= 0 {
			annVol = v.defaultVol
		}
		vols[ticker] = annVol
	}

	return vols, nil
}

// sampleStd returns the sample standard deviation (n-1 denominator).
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range values {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range values {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(n - 1)
	return math.Sqrt(variance)
}
