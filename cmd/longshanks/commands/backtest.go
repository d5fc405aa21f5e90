package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/longshanks/internal/backtest"
	"github.com/wonny/longshanks/internal/strategyconfig"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "모멘텀 백테스트",
	Long: `EMA/SMA 모멘텀 전략의 분기 리밸런스 백테스트를 실행합니다.

백테스트는 다음을 계산합니다:
- 분기별 순수익률 시계열 (손절/거래비용 반영)
- 리스크 지표 (Sharpe, Sortino, MDD, Calmar)
- 동일가중 벤치마크 대비 성과

Example:
  go run ./cmd/longshanks backtest run
  go run ./cmd/longshanks backtest run --save`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `전략 YAML에 지정된 기간 동안 백테스트를 실행합니다.

Flags:
  --save   결과를 DB에 저장 (DATABASE_URL 필요)

Example:
  go run ./cmd/longshanks backtest run
  go run ./cmd/longshanks backtest run --strategy config/strategy/us_momentum_v1.yaml --save`,
		RunE: runBacktest,
	}

	// Flags
	backtestSave bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestRunCmd.Flags().BoolVar(&backtestSave, "save", false, "결과를 DB에 저장")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Longshanks Momentum Backtest ===")

	app, err := newApp()
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer app.Close()

	s := app.strategy
	fmt.Printf("\n📅 Period: %s ~ %s\n", s.Backtest.Start, s.Backtest.End)
	fmt.Printf("📈 Spans: EMA %d / SMA %d (monthly)\n", s.Signals.EMASpan, s.Signals.SMASpan)
	fmt.Printf("🧺 Basket: top %.0f%% of uptrends, min %d stocks\n", s.Selection.Quintile*100, s.Selection.MinStocks)
	fmt.Printf("🛡  Stop-loss: %.0f%% monthly, cost %.2fbp × %.0f%% turnover\n\n",
		s.Costs.StopLossMonthly*100, s.Costs.TxCostRate*10000, s.Costs.TurnoverEst*100)

	if backtestSave && app.runRepo == nil {
		return fmt.Errorf("--save requires DATABASE_URL")
	}

	fmt.Println("🚀 Starting backtest...")
	startedAt := time.Now()

	result, report, err := app.runBacktest(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestSummary(result)
	printMetricsReport(report)

	if backtestSave {
		hash, err := strategyconfig.Hash(s)
		if err != nil {
			return fmt.Errorf("config hash failed: %w", err)
		}
		id, err := app.runRepo.SaveRun(cmd.Context(), &backtest.RunRecord{
			StrategyID: s.Meta.StrategyID,
			ConfigHash: hash,
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Rebalances: result.Rebalances,
			Skips:      len(result.Skips),
			Metrics:    *report,
		}, result.Returns)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("\n✅ Run #%d saved\n", id)
	}

	return nil
}
