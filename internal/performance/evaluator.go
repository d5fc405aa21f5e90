// Package performance scores a backtest against an equal-weight benchmark
// built from the same price panel.
package performance

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/internal/timeutil"
	"github.com/wonny/longshanks/pkg/logger"
)

const tradingDaysPerYear = 252

// Evaluator computes the metrics report
// ⭐ SSOT: 성과 평가는 여기서만
type Evaluator struct {
	riskFree float64
	log      *logger.Logger
}

// NewEvaluator creates a performance evaluator
func NewEvaluator(cfg *strategyconfig.Config, log *logger.Logger) *Evaluator {
	return &Evaluator{
		riskFree: cfg.Backtest.RiskFreeRate,
		log:      log,
	}
}

// Evaluate builds daily strategy and benchmark series over [start, end],
// aligns them on their common dates, and scores both.
func (e *Evaluator) Evaluate(returns []contracts.StrategyReturn, daily contracts.PricePanel, start, end time.Time) *contracts.MetricsReport {
	strategy := DailyProxy(returns, start, end)
	benchmark := BenchmarkDaily(daily)

	_, stratVals, benchVals := Align(strategy, benchmark)
	e.log.WithFields(map[string]interface{}{
		"strategy_days":  len(strategy),
		"benchmark_days": len(benchmark),
		"aligned_days":   len(stratVals),
	}).Info("Return series aligned")

	return &contracts.MetricsReport{
		Strategy:  ComputeMetrics(stratVals, e.riskFree),
		Benchmark: ComputeMetrics(benchVals, e.riskFree),
	}
}

// BenchmarkDaily builds the equal-weight benchmark: for each pair of
// consecutive panel dates, the mean log return over tickers priced on both
// dates. Dates where no ticker qualifies are omitted.
func BenchmarkDaily(daily contracts.PricePanel) map[time.Time]float64 {
	bench := make(map[time.Time]float64)
	dates := timeutil.SortedDates(daily)

	for i := 1; i < len(dates); i++ {
		prev := daily[dates[i-1]]
		curr := daily[dates[i]]

		sum := 0.0
		count := 0
		for ticker, currPrice := range curr {
			prevPrice, ok := prev[ticker]
			if ok && prevPrice > 0 && currPrice > 0 {
				sum += math.Log(currPrice / prevPrice)
				count++
			}
		}
		if count > 0 {
			bench[dates[i]] = sum / float64(count)
		}
	}
	return bench
}

// Align intersects two date-keyed series and returns their values on the
// shared dates, ascending. A date missing a value defaults to 0.
func Align(a, b map[time.Time]float64) ([]time.Time, []float64, []float64) {
	common := make([]time.Time, 0, len(a))
	for d := range a {
		if _, ok := b[d]; ok {
			common = append(common, d)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	aVals := make([]float64, len(common))
	bVals := make([]float64, len(common))
	for i, d := range common {
		aVals[i] = a[d]
		bVals[i] = b[d]
	}
	return common, aVals, bVals
}

// ComputeMetrics scores one daily return sequence at F=252.
// 변동성/하방 변동성 0, 빈 하방 집합, 무손실 구간은 전부 0으로 정의.
func ComputeMetrics(daily []float64, riskFree float64) contracts.Metrics {
	var m contracts.Metrics
	if len(daily) == 0 {
		return m
	}

	mean := 0.0
	for _, r := range daily {
		mean += r
	}
	mean /= float64(len(daily))
	m.AnnReturn = mean * tradingDaysPerYear
	m.AnnVolatility = sampleStd(daily) * math.Sqrt(tradingDaysPerYear)

	if m.AnnVolatility > 0 {
		m.Sharpe = (m.AnnReturn - riskFree) / m.AnnVolatility
	}

	m.MaxDrawdown = maxDrawdown(daily)
	if m.MaxDrawdown != 0 {
		m.Calmar = m.AnnReturn / math.Abs(m.MaxDrawdown)
	}

	downside := make([]float64, 0, len(daily))
	for _, r := range daily {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if downsideVol := sampleStd(downside) * math.Sqrt(tradingDaysPerYear); downsideVol > 0 {
		m.Sortino = (m.AnnReturn - riskFree) / downsideVol
	}

	return m
}

// maxDrawdown tracks a cumulative product of (1+r) against its running
// peak and reports the most negative excursion (≤ 0).
func maxDrawdown(daily []float64) float64 {
	cumulative := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range daily {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := cumulative/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sampleStd returns the sample standard deviation (n-1 denominator),
// 0 when fewer than 2 observations.
func sampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n - 1)
	return math.Sqrt(variance)
}
