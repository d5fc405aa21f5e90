package portfolio

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/logger"
)

// stubProvider serves a fixed observation slice for History calls.
type stubProvider struct {
	obs []contracts.Observation
	err error
}

func (s *stubProvider) Observations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	return s.obs, s.err
}

func (s *stubProvider) History(ctx context.Context, tickers []string, from, to time.Time) ([]contracts.Observation, error) {
	return s.obs, s.err
}

func testConstructor(provider contracts.PanelProvider) *Constructor {
	cfg := strategyconfig.Default()
	log := logger.NewNop()
	return NewConstructor(NewVolEstimator(provider, cfg, log), cfg, log)
}

func signalsOf(n int, score float64) map[string]float64 {
	signals := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		signals[fmt.Sprintf("T%02d", i)] = score
	}
	return signals
}

func TestSelectLongsBreadthGates(t *testing.T) {
	c := testConstructor(&stubProvider{})

	// 스코어 유니버스 < 20 → 스킵
	longs, reason := c.SelectLongs(signalsOf(19, 1.2))
	assert.Nil(t, longs)
	assert.Contains(t, reason, "scored universe")

	// 유니버스는 충분하지만 상승추세 < 10 → 스킵
	signals := signalsOf(25, 0.5)
	signals["UP1"], signals["UP2"] = 1.2, 1.3
	longs, reason = c.SelectLongs(signals)
	assert.Nil(t, longs)
	assert.Contains(t, reason, "uptrend candidates")
}

func TestSelectLongsThresholdIsExclusive(t *testing.T) {
	c := testConstructor(&stubProvider{})

	// 정확히 임계값(0.95)인 종목은 상승추세가 아님
	signals := signalsOf(30, 0.95)
	longs, reason := c.SelectLongs(signals)
	assert.Nil(t, longs)
	assert.Contains(t, reason, "uptrend candidates 0")
}

func TestSelectLongsTopQuintileWithFloor(t *testing.T) {
	c := testConstructor(&stubProvider{})

	// 상승추세 60종목: ceil(0.2*60)=12 > min_stocks=10 → 12종목
	signals := make(map[string]float64, 60)
	for i := 0; i < 60; i++ {
		signals[fmt.Sprintf("T%02d", i)] = 1.0 + float64(i)*0.01
	}
	longs, reason := c.SelectLongs(signals)
	require.Empty(t, reason)
	require.Len(t, longs, 12)
	// 최고 점수부터
	assert.Equal(t, "T59", longs[0])
	assert.Equal(t, "T48", longs[11])

	// 상승추세 11종목: ceil(0.2*11)=3 < min_stocks → 바닥값 10 적용
	signals = signalsOf(30, 0.5)
	for i := 0; i < 11; i++ {
		signals[fmt.Sprintf("UP%02d", i)] = 1.1
	}
	longs, reason = c.SelectLongs(signals)
	require.Empty(t, reason)
	assert.Len(t, longs, 10)
}

func TestInverseVolWeights(t *testing.T) {
	c := testConstructor(&stubProvider{})

	weights := c.InverseVolWeights(map[string]float64{
		"LOW":  0.10, // inv 10
		"MID":  0.20, // inv 5
		"HIGH": 0.40, // inv 2.5
	})

	require.Len(t, weights, 3)
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)
	// 저변동성 종목이 더 큰 비중
	assert.Greater(t, weights["LOW"], weights["MID"])
	assert.Greater(t, weights["MID"], weights["HIGH"])
	assert.InDelta(t, 10.0/17.5, weights["LOW"], 1e-9)
}

func TestInverseVolWeightsCapAndRenormalize(t *testing.T) {
	c := testConstructor(&stubProvider{})

	// 20종목 동일 변동성 → 각 0.05 (캡과 정확히 일치)
	vols := make(map[string]float64, 20)
	for i := 0; i < 20; i++ {
		vols[fmt.Sprintf("T%02d", i)] = 0.25
	}
	weights := c.InverseVolWeights(vols)
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)
	for _, w := range weights {
		assert.InDelta(t, 0.05, w, 1e-9)
	}

	// 10종목 동일 변동성: 캡(0.05) 적용 후 재정규화가 0.10으로 되돌림
	// → 캡은 틸트 제한이지 절대 상한이 아님
	vols = make(map[string]float64, 10)
	for i := 0; i < 10; i++ {
		vols[fmt.Sprintf("T%02d", i)] = 0.25
	}
	weights = c.InverseVolWeights(vols)
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)
	for _, w := range weights {
		assert.InDelta(t, 0.10, w, 1e-9)
	}
}

func TestInverseVolWeightsFloor(t *testing.T) {
	c := testConstructor(&stubProvider{})

	// 0에 가까운 변동성은 바닥값 0.01로 클램프 → 발산 방지
	weights := c.InverseVolWeights(map[string]float64{
		"ZERO": 0.0,
		"TINY": 0.001,
	})
	assert.InDelta(t, weights["ZERO"], weights["TINY"], 1e-12)
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)
}

func TestVolEstimatorDefaults(t *testing.T) {
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	// 관측치 부족 → 기본 변동성 0.20
	est := NewVolEstimator(&stubProvider{}, strategyconfig.Default(), logger.NewNop())
	vols, err := est.Annualized(context.Background(), []string{"AAPL"}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, vols["AAPL"], 1e-12)

	// 데이터 소스 에러도 기본값으로 계속 진행
	est = NewVolEstimator(&stubProvider{err: fmt.Errorf("db down")}, strategyconfig.Default(), logger.NewNop())
	vols, err = est.Annualized(context.Background(), []string{"AAPL", "MSFT"}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, vols["AAPL"], 1e-12)
	assert.InDelta(t, 0.20, vols["MSFT"], 1e-12)
}

func TestVolEstimatorFlatSeries(t *testing.T) {
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	// 40일 동일 가격 → 표준편차 0 → 기본값으로 대체
	obs := make([]contracts.Observation, 0, 40)
	for i := 0; i < 40; i++ {
		obs = append(obs, contracts.Observation{
			Ticker:   "FLAT",
			Date:     asOf.AddDate(0, 0, -40+i),
			AdjClose: 100,
		})
	}
	est := NewVolEstimator(&stubProvider{obs: obs}, strategyconfig.Default(), logger.NewNop())
	vols, err := est.Annualized(context.Background(), []string{"FLAT"}, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, vols["FLAT"], 1e-12)
}

func TestVolEstimatorAnnualizes(t *testing.T) {
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	// 가격이 +1%/-1% 교대로 움직이는 시계열: 일간 로그수익률 stdev를 √252 배
	obs := make([]contracts.Observation, 0, 41)
	price := 100.0
	for i := 0; i <= 40; i++ {
		obs = append(obs, contracts.Observation{Ticker: "OSC", Date: asOf.AddDate(0, 0, -41+i), AdjClose: price})
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
	}
	est := NewVolEstimator(&stubProvider{obs: obs}, strategyconfig.Default(), logger.NewNop())
	vols, err := est.Annualized(context.Background(), []string{"OSC"}, asOf)
	require.NoError(t, err)

	rets := make([]float64, 0, 40)
	for i := 1; i < len(obs); i++ {
		rets = append(rets, math.Log(obs[i].AdjClose/obs[i-1].AdjClose))
	}
	expected := sampleStd(rets) * math.Sqrt(252)
	assert.InDelta(t, expected, vols["OSC"], 1e-9)
	assert.Greater(t, vols["OSC"], 0.0)
}

func TestBuild(t *testing.T) {
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	c := testConstructor(&stubProvider{})

	// 게이트 통과: 30종목 전부 상승추세 → 10종목, 합 1
	weights, reason, err := c.Build(context.Background(), asOf, signalsOf(30, 1.2))
	require.NoError(t, err)
	require.Empty(t, reason)
	assert.Len(t, weights, 10)
	assert.InDelta(t, 1.0, weights.Sum(), 1e-9)

	// 게이트 실패: 가중치 없음, 에러도 없음
	weights, reason, err = c.Build(context.Background(), asOf, signalsOf(5, 1.2))
	require.NoError(t, err)
	assert.Nil(t, weights)
	assert.NotEmpty(t, reason)
}
