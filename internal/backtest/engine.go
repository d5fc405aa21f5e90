// Package backtest drives the quarterly rebalance simulation over the
// monthly signal calendar and books the resulting net return series.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/marketdata"
	"github.com/wonny/longshanks/internal/portfolio"
	"github.com/wonny/longshanks/internal/signal"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/internal/timeutil"
	"github.com/wonny/longshanks/pkg/logger"
)

// rebalanceMonths is the fixed step over the monthly signal calendar.
const rebalanceMonths = 3

// ProgressFunc receives simulation progress, one call per examined
// rebalance date. Used by the API stream; nil is fine.
type ProgressFunc func(stage string, done, total int)

// Skip records a rebalance date that traded nothing and why.
type Skip struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

// Result holds one completed simulation
type Result struct {
	Returns    []contracts.StrategyReturn      `json:"returns"`
	Holdings   map[time.Time]contracts.Weights `json:"-"`
	Skips      []Skip                          `json:"skips"`
	Rebalances int                             `json:"rebalances"`
	Months     int                             `json:"months"`
	Duration   time.Duration                   `json:"duration"`
}

// Engine runs the momentum backtest
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	provider    contracts.PanelProvider
	signals     *signal.Engine
	constructor *portfolio.Constructor
	cfg         *strategyconfig.Config
	logger      *logger.Logger
	progress    ProgressFunc
}

// NewEngine creates a new backtest engine
func NewEngine(
	provider contracts.PanelProvider,
	signals *signal.Engine,
	constructor *portfolio.Constructor,
	cfg *strategyconfig.Config,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		provider:    provider,
		signals:     signals,
		constructor: constructor,
		cfg:         cfg,
		logger:      logger,
	}
}

// WithProgress attaches a progress callback
func (e *Engine) WithProgress(fn ProgressFunc) *Engine {
	e.progress = fn
	return e
}

// Run executes the backtest over the configured window.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := e.cfg.Backtest.StartDate()
	end := e.cfg.Backtest.EndDate()

	e.logger.WithFields(map[string]interface{}{
		"strategy_id": e.cfg.Meta.StrategyID,
		"start":       start.Format("2006-01-02"),
		"end":         end.Format("2006-01-02"),
	}).Info("Starting backtest")

	startTime := time.Now()

	// 1. Load observations and build the monthly panel
	obs, err := e.provider.Observations(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("no price observations in [%s, %s]",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	monthly := marketdata.MonthlyPanel(obs, marketdata.DefaultCoverage)
	if len(monthly) < e.cfg.Signals.SMASpan {
		return nil, fmt.Errorf("insufficient monthly history: %d months, need at least %d",
			len(monthly), e.cfg.Signals.SMASpan)
	}
	e.logger.WithFields(map[string]interface{}{
		"observations": len(obs),
		"months":       len(monthly),
	}).Info("Monthly panel built")

	// 2. Monthly log returns and momentum signals
	monthlyReturns := e.signals.LogReturns(monthly)
	momSignals := e.signals.Momentum(monthly)

	// 3. Quarterly loop over the signal calendar, after burn-in
	result, err := e.runLoop(ctx, monthlyReturns, momSignals)
	if err != nil {
		return nil, err
	}
	result.Months = len(monthly)
	result.Duration = time.Since(startTime)

	e.logger.WithFields(map[string]interface{}{
		"rebalances": result.Rebalances,
		"skips":      len(result.Skips),
		"duration":   result.Duration,
	}).Info("Backtest complete")
	return result, nil
}

func (e *Engine) runLoop(ctx context.Context, monthlyReturns contracts.ReturnSeries, momSignals contracts.SignalSeries) (*Result, error) {
	result := &Result{
		Returns:  make([]contracts.StrategyReturn, 0),
		Holdings: make(map[time.Time]contracts.Weights),
		Skips:    make([]Skip, 0),
	}

	dates := timeutil.SortedDates(momSignals)
	costFactor := 1 - e.cfg.Costs.TxCostRate*e.cfg.Costs.TurnoverEst

	for i := e.cfg.Signals.SMASpan; i < len(dates); i += rebalanceMonths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := dates[i]
		if e.progress != nil {
			e.progress("rebalance", i-e.cfg.Signals.SMASpan, len(dates)-e.cfg.Signals.SMASpan)
		}

		rets, ok := monthlyReturns[date]
		if !ok {
			result.Skips = append(result.Skips, Skip{date, "no monthly returns at date"})
			continue
		}

		weights, reason, err := e.constructor.Build(ctx, date, momSignals[date])
		if err != nil {
			return nil, fmt.Errorf("rebalance at %s failed: %w", date.Format("2006-01-02"), err)
		}
		if reason != "" {
			e.logger.WithFields(map[string]interface{}{
				"date":   date.Format("2006-01-02"),
				"reason": reason,
			}).Debug("Rebalance skipped")
			result.Skips = append(result.Skips, Skip{date, reason})
			continue
		}

		// Weighted gross return; a held ticker with no return this month
		// contributes zero.
		gross := 0.0
		for ticker, w := range weights {
			if r, ok := rets[ticker]; ok {
				gross += r * w
			}
		}

		// 월간 손절 바닥 → 거래비용 차감
		gross = math.Max(gross, e.cfg.Costs.StopLossMonthly)
		net := gross * costFactor

		result.Returns = append(result.Returns, contracts.StrategyReturn{Date: date, Return: net})
		result.Holdings[date] = weights
		result.Rebalances++
	}

	return result, nil
}
