package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/longshanks/internal/backtest"
	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/marketdata"
	"github.com/wonny/longshanks/internal/performance"
	"github.com/wonny/longshanks/internal/portfolio"
	"github.com/wonny/longshanks/internal/signal"
	"github.com/wonny/longshanks/internal/strategyconfig"
	"github.com/wonny/longshanks/pkg/config"
	"github.com/wonny/longshanks/pkg/database"
	"github.com/wonny/longshanks/pkg/httputil"
	"github.com/wonny/longshanks/pkg/logger"
	"github.com/wonny/longshanks/pkg/redis"
)

const observationCacheTTL = 6 * time.Hour

// app wires the shared dependencies for every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger
	db       *database.DB  // nil in CSV mode
	redis    *redis.Client // disabled passthrough when not configured
	provider contracts.PanelProvider
	fetcher  *marketdata.YahooFetcher
	runRepo  *backtest.RunRepository // nil in CSV mode
}

// newApp loads config and builds the dependency graph. Storage selection:
// DATABASE_URL이 있으면 Postgres, 없으면 PRICE_CSV 파일.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy %s: %w", cfg.StrategyFile, err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{
		cfg:      cfg,
		strategy: strategy,
		log:      log,
	}

	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis init failed: %w", err)
	}

	if cfg.Database.URL != "" {
		a.db, err = database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		repo := marketdata.NewPriceRepository(a.db.Pool)
		a.provider = marketdata.NewCachedProvider(
			repo, redis.NewCache(a.redis, "longshanks"), observationCacheTTL, log)
		a.runRepo = backtest.NewRunRepository(a.db.Pool)
	} else {
		a.provider = marketdata.NewCSVStore(cfg.PriceCSV)
	}

	a.fetcher = marketdata.NewYahooFetcher(cfg, httputil.New(log), log)
	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// newEngine assembles the backtest engine over the active provider
func (a *app) newEngine() *backtest.Engine {
	sig := signal.NewEngine(a.strategy, a.log)
	vols := portfolio.NewVolEstimator(a.provider, a.strategy, a.log)
	cons := portfolio.NewConstructor(vols, a.strategy, a.log)
	return backtest.NewEngine(a.provider, sig, cons, a.strategy, a.log)
}

// runBacktest runs one simulation and scores it against the benchmark
func (a *app) runBacktest(ctx context.Context, progress backtest.ProgressFunc) (*backtest.Result, *contracts.MetricsReport, error) {
	engine := a.newEngine()
	if progress != nil {
		engine = engine.WithProgress(progress)
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return nil, nil, err
	}

	start, end := a.strategy.Backtest.StartDate(), a.strategy.Backtest.EndDate()
	obs, err := a.provider.Observations(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload observations for evaluation: %w", err)
	}
	daily := marketdata.BuildDailyPanel(obs)

	report := performance.NewEvaluator(a.strategy, a.log).Evaluate(result.Returns, daily, start, end)
	return result, report, nil
}
