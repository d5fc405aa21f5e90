// Package signal computes the EMA/SMA momentum indicator over the monthly
// price panel. Scores are emitted one burn-in late so a rebalance never sees
// a signal built from the month it is trading.
package signal

import (
	"math"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/internal/timeutil"
	"github.com/wonny/longshanks/pkg/logger"
)

// Engine computes momentum signals
// ⭐ SSOT: 신호 계산은 여기서만
type Engine struct {
	emaSpan int
	smaSpan int
	log     *logger.Logger
}

// NewEngine creates a signal engine from strategy config
func NewEngine(cfg *strategyconfig.Config, log *logger.Logger) *Engine {
	return &Engine{
		emaSpan: cfg.Signals.EMASpan,
		smaSpan: cfg.Signals.SMASpan,
		log:     log,
	}
}

// LogReturns computes per-ticker log returns between consecutive panel dates.
// A return exists only when the ticker has a positive price on both dates.
func (e *Engine) LogReturns(prices contracts.PricePanel) contracts.ReturnSeries {
	returns := make(contracts.ReturnSeries)
	dates := timeutil.SortedDates(prices)
	if len(dates) < 2 {
		return returns
	}

	for i := 1; i < len(dates); i++ {
		prev := prices[dates[i-1]]
		curr := prices[dates[i]]
		retMap := make(map[string]float64)

		for ticker, currPrice := range curr {
			prevPrice, ok := prev[ticker]
			if ok && prevPrice > 0 && currPrice > 0 {
				retMap[ticker] = math.Log(currPrice / prevPrice)
			}
		}
		returns[dates[i]] = retMap
	}

	return returns
}

// Momentum computes the EMA/SMA ratio per ticker over the monthly panel.
// 시그널은 인덱스 smaSpan 이후부터만 방출 (번인 + 1개월 래그)
func (e *Engine) Momentum(monthlyPrices contracts.PricePanel) contracts.SignalSeries {
	signals := make(contracts.SignalSeries)

	dates := timeutil.SortedDates(monthlyPrices)
	if len(dates) < e.smaSpan {
		e.log.WithFields(map[string]interface{}{
			"months":   len(dates),
			"sma_span": e.smaSpan,
		}).Warn("Not enough monthly history for momentum signals")
		return signals
	}

	tickers := make(map[string]struct{})
	for _, dayPrices := range monthlyPrices {
		for t := range dayPrices {
			tickers[t] = struct{}{}
		}
	}

	for ticker := range tickers {
		// 날짜 축에 정렬된 가격 시계열 (결측은 NaN)
		series := make([]float64, len(dates))
		for i, d := range dates {
			if p, ok := monthlyPrices[d][ticker]; ok {
				series[i] = p
			} else {
				series[i] = math.NaN()
			}
		}

		ema := EMA(series, e.emaSpan)
		sma := SMA(series, e.smaSpan)

		for i := e.smaSpan; i < len(dates); i++ {
			if !math.IsNaN(ema[i]) && !math.IsNaN(sma[i]) && sma[i] > 0 {
				d := dates[i]
				if signals[d] == nil {
					signals[d] = make(map[string]float64)
				}
				signals[d][ticker] = ema[i] / sma[i]
			}
		}
	}

	e.log.WithField("signal_dates", len(signals)).Info("Momentum signals computed")
	return signals
}

// EMA computes an exponential moving average with alpha = 2/(span+1).
// The first defined value seeds the average; a NaN gap resets the seed so
// stale pre-gap state never leaks across a listing break.
func EMA(values []float64, span int) []float64 {
	n := len(values)
	ema := make([]float64, 0, n)
	if n == 0 {
		return ema
	}

	alpha := 2.0 / (float64(span) + 1.0)
	prev := values[0]
	ema = append(ema, prev)

	for i := 1; i < n; i++ {
		val := values[i]
		if math.IsNaN(val) {
			ema = append(ema, math.NaN())
			prev = math.NaN()
			continue
		}
		if math.IsNaN(prev) {
			prev = val
		} else {
			prev = alpha*val + (1-alpha)*prev
		}
		ema = append(ema, prev)
	}
	return ema
}

// SMA computes a simple moving average over a trailing window of span values.
// Undefined (NaN) for the first span-1 indices; inside the window NaN entries
// are skipped and the mean is taken over whatever is defined.
func SMA(values []float64, span int) []float64 {
	n := len(values)
	sma := make([]float64, 0, n)
	if n == 0 {
		return sma
	}

	for i := 0; i < n; i++ {
		if i < span-1 {
			sma = append(sma, math.NaN())
			continue
		}
		sum := 0.0
		count := 0
		for j := i - span + 1; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				sum += values[j]
				count++
			}
		}
		if count > 0 {
			sma = append(sma, sum/float64(count))
		} else {
			sma = append(sma, math.NaN())
		}
	}
	return sma
}
