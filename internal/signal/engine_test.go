package signal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/logger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testEngine(emaSpan, smaSpan int) *Engine {
	cfg := strategyconfig.Default()
	cfg.Signals.EMASpan = emaSpan
	cfg.Signals.SMASpan = smaSpan
	return NewEngine(cfg, logger.NewNop())
}

func TestEMA(t *testing.T) {
	// span=3 → alpha=0.5: 첫 값이 시드
	ema := EMA([]float64{10, 12, 14}, 3)
	require.Len(t, ema, 3)
	assert.InDelta(t, 10.0, ema[0], 1e-12)
	assert.InDelta(t, 11.0, ema[1], 1e-12) // 0.5*12 + 0.5*10
	assert.InDelta(t, 12.5, ema[2], 1e-12) // 0.5*14 + 0.5*11
}

func TestEMAGapReseeds(t *testing.T) {
	nan := math.NaN()
	ema := EMA([]float64{10, 12, nan, 20, 22}, 3)
	require.Len(t, ema, 5)

	assert.True(t, math.IsNaN(ema[2]))
	// 갭 이후 첫 값은 새 시드: 갭 이전 상태가 섞이면 안 됨
	assert.InDelta(t, 20.0, ema[3], 1e-12)
	assert.InDelta(t, 21.0, ema[4], 1e-12)
}

func TestEMALeadingNaN(t *testing.T) {
	nan := math.NaN()
	ema := EMA([]float64{nan, nan, 30, 32}, 3)
	require.Len(t, ema, 4)

	assert.True(t, math.IsNaN(ema[0]))
	assert.True(t, math.IsNaN(ema[1]))
	assert.InDelta(t, 30.0, ema[2], 1e-12)
	assert.InDelta(t, 31.0, ema[3], 1e-12)
}

func TestSMA(t *testing.T) {
	sma := SMA([]float64{1, 2, 3, 4}, 3)
	require.Len(t, sma, 4)

	// 윈도우가 차기 전에는 미정의
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-12)
	assert.InDelta(t, 3.0, sma[3], 1e-12)
}

func TestSMASkipsNaNInWindow(t *testing.T) {
	nan := math.NaN()
	sma := SMA([]float64{1, nan, 3, nan}, 3)
	require.Len(t, sma, 4)

	// 윈도우 내 NaN은 제외하고 정의된 값만 평균
	assert.InDelta(t, 2.0, sma[2], 1e-12) // mean(1, 3)
	assert.InDelta(t, 3.0, sma[3], 1e-12) // mean(3)

	allNaN := SMA([]float64{nan, nan, nan}, 3)
	assert.True(t, math.IsNaN(allNaN[2]))
}

func TestLogReturns(t *testing.T) {
	eng := testEngine(12, 50)
	prices := contracts.PricePanel{
		date(2024, 1, 31): {"AAPL": 100, "MSFT": 200},
		date(2024, 2, 29): {"AAPL": 110, "MSFT": 190, "NVDA": 500},
		date(2024, 3, 29): {"AAPL": 121, "NVDA": 550},
	}

	returns := eng.LogReturns(prices)
	require.Len(t, returns, 2)

	feb := returns[date(2024, 2, 29)]
	assert.InDelta(t, math.Log(1.1), feb["AAPL"], 1e-12)
	assert.InDelta(t, math.Log(190.0/200.0), feb["MSFT"], 1e-12)
	// NVDA는 1월 가격이 없으므로 2월 수익률 없음
	_, ok := feb["NVDA"]
	assert.False(t, ok)

	mar := returns[date(2024, 3, 29)]
	assert.InDelta(t, math.Log(1.1), mar["AAPL"], 1e-12)
	_, ok = mar["MSFT"]
	assert.False(t, ok)
}

func TestMomentumEmissionStartsAfterBurnIn(t *testing.T) {
	// 작은 스팬으로 번인 경계를 직접 확인: sma_span=3 → 인덱스 3부터 방출
	eng := testEngine(2, 3)

	dates := []time.Time{
		date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 29),
		date(2024, 4, 30), date(2024, 5, 30),
	}
	prices := make(contracts.PricePanel)
	for i, d := range dates {
		prices[d] = map[string]float64{"AAPL": 100 + float64(i)*10}
	}

	signals := eng.Momentum(prices)

	// 인덱스 0..2 (번인 구간)에는 신호 없음
	for _, d := range dates[:3] {
		_, ok := signals[d]
		assert.False(t, ok, "no signal expected at %s", d.Format("2006-01-02"))
	}
	require.Contains(t, signals, dates[3])
	require.Contains(t, signals, dates[4])

	// 인덱스 3: prices 100,110,120,130 → EMA(2) = 3380/27, SMA(3) = 120
	sig := signals[dates[3]]["AAPL"]
	assert.InDelta(t, (3380.0/27.0)/120.0, sig, 1e-9)
	assert.Greater(t, sig, 1.0, "rising prices must score above 1")
}

func TestMomentumShortHistory(t *testing.T) {
	eng := testEngine(12, 50)
	prices := contracts.PricePanel{
		date(2024, 1, 31): {"AAPL": 100},
		date(2024, 2, 29): {"AAPL": 110},
	}

	signals := eng.Momentum(prices)
	assert.Empty(t, signals)
}
