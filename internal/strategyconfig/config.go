package strategyconfig

import "time"

// Config는 모멘텀 전략의 전체 설정
// Defaults mirror the published strategy parameters; see Default().
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Selection Selection `yaml:"selection" json:"selection"`
	Weighting Weighting `yaml:"weighting" json:"weighting"`
	Costs     Costs     `yaml:"costs" json:"costs"`
	Backtest  Backtest  `yaml:"backtest" json:"backtest"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe 투자 가능 풀: 설정 파일이 공급하는 티커 목록
// (엔진에 하드코딩 금지)
type Universe struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Signals EMA/SMA 모멘텀 지표 설정
type Signals struct {
	EMASpan int `yaml:"ema_span" json:"ema_span"` // monthly periods
	SMASpan int `yaml:"sma_span" json:"sma_span"` // monthly periods; also the burn-in
}

// Selection 리밸런스 후보 필터/선정
type Selection struct {
	UptrendThreshold float64 `yaml:"uptrend_threshold" json:"uptrend_threshold"` // EMA/SMA ratio gate
	Quintile         float64 `yaml:"quintile" json:"quintile"`                   // top fraction of ranked uptrends
	MinStocks        int     `yaml:"min_stocks" json:"min_stocks"`               // minimum basket size
	MinUniverse      int     `yaml:"min_universe" json:"min_universe"`           // minimum scored breadth per date
}

// Weighting 역변동성 가중 설정
type Weighting struct {
	PositionCap   float64 `yaml:"position_cap" json:"position_cap"`
	DefaultVol    float64 `yaml:"default_vol" json:"default_vol"`         // fallback annualized vol
	VolFloor      float64 `yaml:"vol_floor" json:"vol_floor"`             // divide-by-zero guard
	VolWindowDays int     `yaml:"vol_window_days" json:"vol_window_days"` // calendar-day lookback (~252 trading days)
	MinVolObs     int     `yaml:"min_vol_obs" json:"min_vol_obs"`         // min daily returns for an estimate
}

// Costs 손절/거래비용 설정
type Costs struct {
	StopLossMonthly float64 `yaml:"stop_loss_monthly" json:"stop_loss_monthly"`
	TxCostRate      float64 `yaml:"tx_cost_rate" json:"tx_cost_rate"`
	TurnoverEst     float64 `yaml:"turnover_est" json:"turnover_est"`
}

// Backtest 백테스트 기간/평가 설정
type Backtest struct {
	Start        string  `yaml:"start" json:"start"` // YYYY-MM-DD
	End          string  `yaml:"end" json:"end"`     // YYYY-MM-DD
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// StartDate returns the parsed backtest start date
func (b Backtest) StartDate() time.Time {
	t, _ := time.Parse("2006-01-02", b.Start)
	return t
}

// EndDate returns the parsed backtest end date
func (b Backtest) EndDate() time.Time {
	t, _ := time.Parse("2006-01-02", b.End)
	return t
}

// Default returns the strategy defaults: EMA 12 / SMA 50 monthly spans,
// 0.95 uptrend gate, top quintile with a 10-stock floor over a 20-stock
// minimum universe, 5% position cap, -10% monthly stop, 10bp cost at 25%
// assumed quarterly turnover, 2% risk-free rate.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "us_momentum_v1",
			Version:    "1.0.0",
		},
		Signals: Signals{
			EMASpan: 12,
			SMASpan: 50,
		},
		Selection: Selection{
			UptrendThreshold: 0.95,
			Quintile:         0.2,
			MinStocks:        10,
			MinUniverse:      20,
		},
		Weighting: Weighting{
			PositionCap:   0.05,
			DefaultVol:    0.20,
			VolFloor:      0.01,
			VolWindowDays: 300,
			MinVolObs:     30,
		},
		Costs: Costs{
			StopLossMonthly: -0.10,
			TxCostRate:      0.001,
			TurnoverEst:     0.25,
		},
		Backtest: Backtest{
			Start:        "2005-01-03",
			End:          "2025-10-17",
			RiskFreeRate: 0.02,
		},
	}
}
