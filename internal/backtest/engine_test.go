package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/portfolio"
	"github.com/wonny/longshanks/internal/signal"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/logger"
)

// stubProvider serves fixed observations for both panel and vol history.
type stubProvider struct {
	obs []contracts.Observation
}

func (s *stubProvider) Observations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	return s.obs, nil
}

func (s *stubProvider) History(ctx context.Context, tickers []string, from, to time.Time) ([]contracts.Observation, error) {
	return s.obs, nil
}

// smallConfig shrinks spans and breadth gates so a 12-month fixture can
// reach a rebalance: signals start at monthly index 3, the loop burns in
// 3 more signal dates, so the first trade lands on monthly index 6.
func smallConfig() *strategyconfig.Config {
	cfg := strategyconfig.Default()
	cfg.Signals.EMASpan = 2
	cfg.Signals.SMASpan = 3
	cfg.Selection.MinStocks = 2
	cfg.Selection.MinUniverse = 3
	cfg.Selection.Quintile = 1.0
	cfg.Backtest.Start = "2024-01-01"
	cfg.Backtest.End = "2024-12-31"
	return cfg
}

func newTestEngine(cfg *strategyconfig.Config, provider contracts.PanelProvider) *Engine {
	log := logger.NewNop()
	sig := signal.NewEngine(cfg, log)
	cons := portfolio.NewConstructor(portfolio.NewVolEstimator(provider, cfg, log), cfg, log)
	return NewEngine(provider, sig, cons, cfg, log)
}

// monthlyObs builds two observations per month for each ticker, with the
// month-end price taken from priceAt(monthIndex).
func monthlyObs(tickers []string, months int, priceAt func(m int) float64) []contracts.Observation {
	obs := make([]contracts.Observation, 0, len(tickers)*months*2)
	for m := 0; m < months; m++ {
		mid := time.Date(2024, time.Month(m+1), 15, 0, 0, 0, 0, time.UTC)
		late := time.Date(2024, time.Month(m+1), 28, 0, 0, 0, 0, time.UTC)
		for _, t := range tickers {
			obs = append(obs,
				contracts.Observation{Ticker: t, Date: mid, AdjClose: priceAt(m) * 0.99},
				contracts.Observation{Ticker: t, Date: late, AdjClose: priceAt(m)},
			)
		}
	}
	return obs
}

func TestRunQuarterlyCalendar(t *testing.T) {
	cfg := smallConfig()
	tickers := []string{"AAA", "BBB", "CCC"}

	// 매월 +1% 상승 → 전 종목 상승추세
	provider := &stubProvider{obs: monthlyObs(tickers, 12, func(m int) float64 {
		return 100 * math.Pow(1.01, float64(m))
	})}

	result, err := newTestEngine(cfg, provider).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, result.Months)
	// 시그널 인덱스 3, 6 → 월간 인덱스 6(7월), 9(10월)
	require.Equal(t, 2, result.Rebalances)
	require.Len(t, result.Returns, 2)
	assert.Equal(t, time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC), result.Returns[0].Date)
	assert.Equal(t, time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC), result.Returns[1].Date)

	// 월간 로그수익률 ln(1.01)에 비용 차감
	costFactor := 1 - cfg.Costs.TxCostRate*cfg.Costs.TurnoverEst
	expected := math.Log(1.01) * costFactor
	assert.InDelta(t, expected, result.Returns[0].Return, 1e-9)
	assert.InDelta(t, expected, result.Returns[1].Return, 1e-9)

	// 보유 내역: 3종목 균등 (동일 변동성)
	holdings := result.Holdings[result.Returns[0].Date]
	require.Len(t, holdings, 3)
	assert.InDelta(t, 1.0, holdings.Sum(), 1e-9)
}

func TestRunStopLossFloorsMonthlyReturn(t *testing.T) {
	cfg := smallConfig()
	// 폭락 월에도 신호 게이트를 통과하도록 임계값 완화
	cfg.Selection.UptrendThreshold = 0.5
	tickers := []string{"AAA", "BBB", "CCC"}

	// 7월(첫 리밸런스 월)에 -50% 폭락, 그 외 +1%
	provider := &stubProvider{obs: monthlyObs(tickers, 12, func(m int) float64 {
		p := 100 * math.Pow(1.01, float64(m))
		if m >= 6 {
			p *= 0.5
		}
		return p
	})}

	result, err := newTestEngine(cfg, provider).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Returns)

	// 총수익률 ln(0.5×1.01) ≈ -0.68 → 손절 바닥 -0.10에서 비용 차감
	costFactor := 1 - cfg.Costs.TxCostRate*cfg.Costs.TurnoverEst
	assert.InDelta(t, cfg.Costs.StopLossMonthly*costFactor, result.Returns[0].Return, 1e-9)
}

func TestRunRecordsSkips(t *testing.T) {
	cfg := smallConfig()
	cfg.Selection.MinUniverse = 5 // 3종목 유니버스로는 절대 통과 못함

	provider := &stubProvider{obs: monthlyObs([]string{"AAA", "BBB", "CCC"}, 12, func(m int) float64 {
		return 100 * math.Pow(1.01, float64(m))
	})}

	result, err := newTestEngine(cfg, provider).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Rebalances)
	assert.Empty(t, result.Returns)
	require.NotEmpty(t, result.Skips)
	assert.Contains(t, result.Skips[0].Reason, "scored universe")
}

func TestRunNoData(t *testing.T) {
	cfg := smallConfig()
	_, err := newTestEngine(cfg, &stubProvider{}).Run(context.Background())
	assert.Error(t, err)
}

func TestRunInsufficientMonthlyHistory(t *testing.T) {
	cfg := smallConfig() // SMA 스팬 3 > 2개월 히스토리
	provider := &stubProvider{obs: monthlyObs([]string{"AAA", "BBB", "CCC"}, 2, func(m int) float64 {
		return 100
	})}

	_, err := newTestEngine(cfg, provider).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient monthly history")
}

func TestRunProgressCallback(t *testing.T) {
	cfg := smallConfig()
	provider := &stubProvider{obs: monthlyObs([]string{"AAA", "BBB", "CCC"}, 12, func(m int) float64 {
		return 100 * math.Pow(1.01, float64(m))
	})}

	var calls int
	eng := newTestEngine(cfg, provider).WithProgress(func(stage string, done, total int) {
		calls++
		assert.Equal(t, "rebalance", stage)
		assert.Equal(t, 6, total)
	})

	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
