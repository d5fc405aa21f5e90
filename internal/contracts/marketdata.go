package contracts

import (
	"context"
	"time"
)

// Observation is a single adjusted-close price point in the long-format
// price panel: unique per (Date, Ticker), AdjClose > 0.
type Observation struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adj_close"`
}

// PricePanel maps date → ticker → adjusted close. Dates are normalized to
// midnight UTC so they are usable as map keys.
type PricePanel map[time.Time]map[string]float64

// ReturnSeries maps date → ticker → log return.
type ReturnSeries map[time.Time]map[string]float64

// SignalSeries maps date → ticker → momentum score (EMA/SMA).
type SignalSeries map[time.Time]map[string]float64

// Weights maps ticker → portfolio weight for a single rebalance date.
type Weights map[string]float64

// Sum returns the total weight
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// StrategyReturn is one recorded rebalance: the net monthly return booked
// at a rebalance date. Skipped rebalances produce no entry.
type StrategyReturn struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// PanelProvider is the synchronous contract through which the core reads
// prices. Implementations (Postgres, CSV, cached) live in marketdata.
// ⭐ SSOT: 코어는 가격 데이터를 이 포트로만 읽음
type PanelProvider interface {
	// Observations returns all (date, ticker, adj close) points in [from, to].
	// Completeness is not guaranteed; gaps are the caller's problem.
	Observations(ctx context.Context, from, to time.Time) ([]Observation, error)

	// History returns daily observations for the given tickers in [from, to],
	// used for trailing volatility estimation.
	History(ctx context.Context, tickers []string, from, to time.Time) ([]Observation, error)
}

// Metrics holds the six annualized performance metrics for one return series.
type Metrics struct {
	AnnReturn     float64 `json:"ann_return"`
	AnnVolatility float64 `json:"ann_volatility"`
	Sharpe        float64 `json:"sharpe"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	Sortino       float64 `json:"sortino"`
	Calmar        float64 `json:"calmar"`
}

// MetricsReport pairs strategy metrics with the equal-weight benchmark.
type MetricsReport struct {
	Strategy  Metrics `json:"strategy"`
	Benchmark Metrics `json:"benchmark"`
}
