// Package portfolio turns a dated signal cross-section into capped
// inverse-volatility weights, or a skip decision when breadth is too thin.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/logger"
)

// Constructor builds portfolio weights for a rebalance date
// ⭐ SSOT: 종목 선정/가중치 계산은 여기서만
type Constructor struct {
	uptrendThresh float64
	quintile      float64
	minStocks     int
	minUniverse   int
	positionCap   float64
	volFloor      float64
	vols          *VolEstimator
	log           *logger.Logger
}

// NewConstructor creates a portfolio constructor
func NewConstructor(vols *VolEstimator, cfg *strategyconfig.Config, log *logger.Logger) *Constructor {
	return &Constructor{
		uptrendThresh: cfg.Selection.UptrendThreshold,
		quintile:      cfg.Selection.Quintile,
		minStocks:     cfg.Selection.MinStocks,
		minUniverse:   cfg.Selection.MinUniverse,
		positionCap:   cfg.Weighting.PositionCap,
		volFloor:      cfg.Weighting.VolFloor,
		vols:          vols,
		log:           log,
	}
}

// Build selects the long basket for one rebalance date and weights it.
// A non-empty skip reason (and nil weights) means the date trades nothing.
func (c *Constructor) Build(ctx context.Context, asOf time.Time, signals map[string]float64) (contracts.Weights, string, error) {
	longs, reason := c.SelectLongs(signals)
	if reason != "" {
		return nil, reason, nil
	}

	vols, err := c.vols.Annualized(ctx, longs, asOf)
	if err != nil {
		return nil, "", fmt.Errorf("volatility estimation failed: %w", err)
	}

	return c.InverseVolWeights(vols), "", nil
}

// SelectLongs filters uptrends and keeps the top quintile (min basket floor).
// 선정 순서: breadth 게이트 → 상승추세 필터 → 점수 내림차순 상위 선택
func (c *Constructor) SelectLongs(signals map[string]float64) ([]string, string) {
	if len(signals) < c.minUniverse {
		return nil, fmt.Sprintf("scored universe %d below minimum %d", len(signals), c.minUniverse)
	}

	type scored struct {
		ticker string
		score  float64
	}
	uptrend := make([]scored, 0, len(signals))
	for ticker, score := range signals {
		if score > c.uptrendThresh {
			uptrend = append(uptrend, scored{ticker, score})
		}
	}
	if len(uptrend) < c.minStocks {
		return nil, fmt.Sprintf("uptrend candidates %d below minimum %d", len(uptrend), c.minStocks)
	}

	// 동점은 티커 오름차순으로 결정론 보장
	sort.Slice(uptrend, func(i, j int) bool {
		if uptrend[i].score != uptrend[j].score {
			return uptrend[i].score > uptrend[j].score
		}
		return uptrend[i].ticker < uptrend[j].ticker
	})

	nSelect := int(math.Ceil(float64(len(uptrend)) * c.quintile))
	if nSelect < c.minStocks {
		nSelect = c.minStocks
	}
	if nSelect > len(uptrend) {
		nSelect = len(uptrend)
	}

	longs := make([]string, nSelect)
	for i := 0; i < nSelect; i++ {
		longs[i] = uptrend[i].ticker
	}
	return longs, ""
}

// InverseVolWeights weights positions by 1/vol, caps each at the position
// cap, then renormalizes. The renormalization can push weights back above
// the cap; the cap is a tilt limiter, not a hard ceiling.
func (c *Constructor) InverseVolWeights(vols map[string]float64) contracts.Weights {
	sumInvVol := 0.0
	for _, v := range vols {
		sumInvVol += 1.0 / math.Max(v, c.volFloor)
	}

	weights := make(contracts.Weights, len(vols))
	for ticker, v := range vols {
		w := (1.0 / math.Max(v, c.volFloor)) / sumInvVol
		weights[ticker] = math.Min(w, c.positionCap)
	}

	if sum := weights.Sum(); sum > 0 {
		for ticker, w := range weights {
			weights[ticker] = w / sum
		}
	}
	return weights
}
