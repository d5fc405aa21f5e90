// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/longshanks/internal/marketdata"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/logger"
)

// PriceRefreshJob tops up the price store with the trailing week every
// night after the US close
// ⭐ SSOT: 시세 갱신 스케줄은 이 Job에서만
type PriceRefreshJob struct {
	fetcher  *marketdata.YahooFetcher
	repo     *marketdata.PriceRepository
	strategy *strategyconfig.Config
	logger   *logger.Logger
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(
	fetcher *marketdata.YahooFetcher,
	repo *marketdata.PriceRepository,
	strategy *strategyconfig.Config,
	log *logger.Logger,
) *PriceRefreshJob {
	return &PriceRefreshJob{
		fetcher:  fetcher,
		repo:     repo,
		strategy: strategy,
		logger:   log,
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule (02:00 UTC, after the US close)
func (j *PriceRefreshJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run fetches the trailing 5 days for the configured universe and upserts.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled price refresh")

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -5)

	// 스케줄러가 멈췄던 기간이 있으면 마지막 저장일부터 따라잡기
	if latest, err := j.repo.LatestDate(ctx); err == nil && latest.Year() > 1 && latest.Before(from) {
		from = latest
	}

	obs, err := j.fetcher.FetchAll(ctx, j.strategy.Universe.Tickers, from, to)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}

	if err := j.repo.SaveBatch(ctx, obs); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}

	j.logger.WithField("observations", len(obs)).Info("Scheduled price refresh completed")
	return nil
}
