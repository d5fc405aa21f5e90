package strategyconfig

import (
	"fmt"
	"time"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Signals ===
	if cfg.Signals.EMASpan < 1 {
		return ValidationError{"signals.ema_span", "must be >= 1"}
	}
	if cfg.Signals.SMASpan < 1 {
		return ValidationError{"signals.sma_span", "must be >= 1"}
	}

	// === Selection ===
	if cfg.Selection.UptrendThreshold <= 0 {
		return ValidationError{"selection.uptrend_threshold", "must be > 0"}
	}
	if cfg.Selection.Quintile <= 0 || cfg.Selection.Quintile > 1 {
		return ValidationError{"selection.quintile", "must be in (0, 1]"}
	}
	if cfg.Selection.MinStocks < 1 {
		return ValidationError{"selection.min_stocks", "must be >= 1"}
	}
	if cfg.Selection.MinUniverse < cfg.Selection.MinStocks {
		return ValidationError{"selection.min_universe", "must be >= min_stocks"}
	}

	// === Weighting ===
	if cfg.Weighting.PositionCap <= 0 || cfg.Weighting.PositionCap > 1 {
		return ValidationError{"weighting.position_cap", "must be in (0, 1]"}
	}
	if cfg.Weighting.DefaultVol <= 0 {
		return ValidationError{"weighting.default_vol", "must be > 0"}
	}
	if cfg.Weighting.VolFloor <= 0 {
		return ValidationError{"weighting.vol_floor", "must be > 0"}
	}
	if cfg.Weighting.VolWindowDays < 1 {
		return ValidationError{"weighting.vol_window_days", "must be >= 1"}
	}
	if cfg.Weighting.MinVolObs < 2 {
		return ValidationError{"weighting.min_vol_obs", "must be >= 2"}
	}

	// === Costs ===
	if cfg.Costs.StopLossMonthly > 0 {
		return ValidationError{"costs.stop_loss_monthly", "must be <= 0"}
	}
	if cfg.Costs.TxCostRate < 0 {
		return ValidationError{"costs.tx_cost_rate", "must be >= 0"}
	}
	if cfg.Costs.TurnoverEst < 0 || cfg.Costs.TurnoverEst > 1 {
		return ValidationError{"costs.turnover_est", "must be in [0, 1]"}
	}

	// === Backtest ===
	start, err := time.Parse("2006-01-02", cfg.Backtest.Start)
	if err != nil {
		return ValidationError{"backtest.start", "must be YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", cfg.Backtest.End)
	if err != nil {
		return ValidationError{"backtest.end", "must be YYYY-MM-DD"}
	}
	if !start.Before(end) {
		return ValidationError{"backtest", "start must be before end"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 유니버스가 너무 작으면 리밸런스가 전부 스킵될 수 있음
	if n := len(cfg.Universe.Tickers); n > 0 && n < cfg.Selection.MinUniverse {
		warnings = append(warnings, Warning{
			Code:    "THIN_UNIVERSE",
			Message: fmt.Sprintf("universe has %d tickers < min_universe=%d: every rebalance will skip", n, cfg.Selection.MinUniverse),
		})
	}

	// EMA span이 SMA span보다 길면 비율 신호가 둔해짐
	if cfg.Signals.EMASpan >= cfg.Signals.SMASpan {
		warnings = append(warnings, Warning{
			Code:    "SLOW_SIGNAL",
			Message: "ema_span >= sma_span: momentum ratio loses responsiveness",
		})
	}

	// 분기 회전율 가정이 과도하면 비용이 과대계상됨
	if cfg.Costs.TurnoverEst > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_TURNOVER",
			Message: "turnover_est > 50%: cost haircut may be pessimistic",
		})
	}

	return warnings
}
