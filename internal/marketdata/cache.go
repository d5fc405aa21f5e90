package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/pkg/logger"
	"github.com/wonny/longshanks/pkg/redis"
)

// CachedProvider wraps a PanelProvider with a Redis read-through cache.
// Observations 쿼리만 캐시: History는 리밸런스 날짜마다 키가 달라
// 적중률이 낮으므로 그대로 통과시킨다.
type CachedProvider struct {
	inner contracts.PanelProvider
	cache *redis.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedProvider wraps provider with caching
func NewCachedProvider(inner contracts.PanelProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Observations serves from cache when possible
func (p *CachedProvider) Observations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	key := fmt.Sprintf("obs:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))

	var cached []contracts.Observation
	hit, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.log.WithError(err).Warn("Observation cache read failed")
	}
	if hit {
		p.log.WithFields(map[string]interface{}{
			"key":          key,
			"observations": len(cached),
		}).Debug("Observation cache hit")
		return cached, nil
	}

	obs, err := p.inner.Observations(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, obs, p.ttl); err != nil {
		p.log.WithError(err).Warn("Observation cache write failed")
	}
	return obs, nil
}

// History passes through to the underlying provider
func (p *CachedProvider) History(ctx context.Context, tickers []string, from, to time.Time) ([]contracts.Observation, error) {
	return p.inner.History(ctx, tickers, from, to)
}
