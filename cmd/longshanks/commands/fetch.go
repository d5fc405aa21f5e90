package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/longshanks/internal/marketdata"
	"github.com/wonny/longshanks/internal/universe"
)

// fetchCmd fetches daily prices from Yahoo into the active store
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "시세 수집",
	Long: `전략 유니버스의 일간 수정종가를 Yahoo v8 chart API에서 수집합니다.

DATABASE_URL이 설정되어 있으면 Postgres에 upsert,
아니면 PRICE_CSV 파일(long format: date,ticker,adj_close)에 추가합니다.

Example:
  go run ./cmd/longshanks fetch
  go run ./cmd/longshanks fetch --from 2020-01-01 --to 2024-12-31`,
	RunE: runFetch,
}

var (
	fetchFrom  string
	fetchTo    string
	fetchForce bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 기본: 전략 start)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 전략 end)")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "저장소가 기간을 이미 커버해도 다시 수집")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Longshanks Price Fetch ===")

	app, err := newApp()
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer app.Close()

	from := app.strategy.Backtest.StartDate()
	to := app.strategy.Backtest.EndDate()
	if fetchFrom != "" {
		if from, err = time.Parse("2006-01-02", fetchFrom); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if fetchTo != "" {
		if to, err = time.Parse("2006-01-02", fetchTo); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}

	tickers := universe.FromConfig(app.strategy)
	fmt.Printf("\n📅 Period: %s ~ %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("🎯 Tickers: %d\n\n", len(tickers))

	// 저장소가 이미 기간을 커버하면 재수집하지 않음
	if !fetchForce {
		existing, err := app.provider.Observations(cmd.Context(), from, to)
		if err == nil && marketdata.HasSufficientData(existing, from, to) {
			fmt.Printf("✅ Store already covers the period (%d observations). Use --force to refetch.\n", len(existing))
			return nil
		}
	}

	start := time.Now()
	obs, err := app.fetcher.FetchAll(cmd.Context(), tickers, from, to)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if app.db != nil {
		repo := marketdata.NewPriceRepository(app.db.Pool)
		if err := repo.SaveBatch(cmd.Context(), obs); err != nil {
			return fmt.Errorf("failed to save prices: %w", err)
		}
		fmt.Printf("✅ %d observations upserted to Postgres in %.1fs\n", len(obs), time.Since(start).Seconds())
	} else {
		store := marketdata.NewCSVStore(app.cfg.PriceCSV)
		if err := store.Append(obs); err != nil {
			return fmt.Errorf("failed to append CSV: %w", err)
		}
		fmt.Printf("✅ %d observations appended to %s in %.1fs\n", len(obs), app.cfg.PriceCSV, time.Since(start).Seconds())
	}

	return nil
}
