// Package marketdata owns price data: Yahoo fetch, Postgres/CSV storage,
// caching, and the panel transforms the backtest consumes.
package marketdata

import (
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/timeutil"
)

// DefaultCoverage is the minimum fraction of panel dates a ticker must
// cover to survive the purge.
const DefaultCoverage = 0.8

// BuildDailyPanel pivots long-format observations into a date-keyed panel.
// Non-positive prices are dropped; dates are normalized to midnight UTC.
func BuildDailyPanel(obs []contracts.Observation) contracts.PricePanel {
	panel := make(contracts.PricePanel)
	for _, o := range obs {
		if o.AdjClose <= 0 {
			continue
		}
		d := timeutil.DateOnly(o.Date)
		if panel[d] == nil {
			panel[d] = make(map[string]float64)
		}
		panel[d][o.Ticker] = o.AdjClose
	}
	return panel
}

// MonthlyResample collapses a daily panel to one row per calendar month,
// keyed by calendar month-end. Within a month, later trading days overwrite
// earlier ones per ticker, so each ticker keeps its last observed price even
// when it did not trade on the month's final session.
func MonthlyResample(daily contracts.PricePanel) contracts.PricePanel {
	monthly := make(contracts.PricePanel)
	for _, d := range timeutil.SortedDates(daily) {
		monthEnd := timeutil.MonthEnd(d)
		if monthly[monthEnd] == nil {
			monthly[monthEnd] = make(map[string]float64)
		}
		for ticker, price := range daily[d] {
			monthly[monthEnd][ticker] = price
		}
	}
	return monthly
}

// PurgeThinTickers removes tickers present on fewer than coverage×dates of
// the panel, in place. 상폐/신규상장 꼬리 데이터 제거.
func PurgeThinTickers(panel contracts.PricePanel, coverage float64) contracts.PricePanel {
	minValid := int(float64(len(panel)) * coverage)

	counts := make(map[string]int)
	for _, dayPrices := range panel {
		for ticker := range dayPrices {
			counts[ticker]++
		}
	}

	for ticker, count := range counts {
		if count < minValid {
			for _, dayPrices := range panel {
				delete(dayPrices, ticker)
			}
		}
	}
	return panel
}

// MonthlyPanel is the full pipeline: pivot, month-end resample, coverage purge.
func MonthlyPanel(obs []contracts.Observation, coverage float64) contracts.PricePanel {
	return PurgeThinTickers(MonthlyResample(BuildDailyPanel(obs)), coverage)
}

// coverageSlackDays tolerates holidays and partial first/last months when
// judging whether stored data already spans a window.
const coverageSlackDays = 30

// HasSufficientData reports whether obs plausibly covers [from, to]: the
// observed span must reach within coverageSlackDays of both endpoints.
func HasSufficientData(obs []contracts.Observation, from, to time.Time) bool {
	if len(obs) == 0 {
		return false
	}
	first, last := obs[0].Date, obs[0].Date
	for _, o := range obs[1:] {
		if o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return !first.After(from.AddDate(0, 0, coverageSlackDays)) &&
		!last.Before(to.AddDate(0, 0, -coverageSlackDays))
}
