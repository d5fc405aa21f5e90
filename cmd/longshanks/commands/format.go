package commands

import (
	"fmt"

	"github.com/wonny/longshanks/internal/backtest"
	"github.com/wonny/longshanks/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// printMetricsReport prints the strategy-vs-benchmark comparison table
func printMetricsReport(report *contracts.MetricsReport) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  📊 Performance: Strategy vs Equal-Weight Benchmark")
	PrintSeparator()
	fmt.Printf("  %-22s %12s %12s\n", "Metric", "Strategy", "Benchmark")
	PrintSeparator()

	rows := []struct {
		name       string
		strat      float64
		bench      float64
		percentage bool
	}{
		{"Annualized Return", report.Strategy.AnnReturn, report.Benchmark.AnnReturn, true},
		{"Annualized Volatility", report.Strategy.AnnVolatility, report.Benchmark.AnnVolatility, true},
		{"Sharpe Ratio", report.Strategy.Sharpe, report.Benchmark.Sharpe, false},
		{"Max Drawdown", report.Strategy.MaxDrawdown, report.Benchmark.MaxDrawdown, true},
		{"Sortino Ratio", report.Strategy.Sortino, report.Benchmark.Sortino, false},
		{"Calmar Ratio", report.Strategy.Calmar, report.Benchmark.Calmar, false},
	}
	for _, row := range rows {
		if row.percentage {
			fmt.Printf("  %-22s %11.2f%% %11.2f%%\n", row.name, row.strat*100, row.bench*100)
		} else {
			fmt.Printf("  %-22s %12.2f %12.2f\n", row.name, row.strat, row.bench)
		}
	}
	PrintDoubleSeparator()
}

// printBacktestSummary prints the run summary block
func printBacktestSummary(result *backtest.Result) {
	fmt.Println()
	PrintSeparator()
	fmt.Printf("  🔄 Rebalances : %d\n", result.Rebalances)
	fmt.Printf("  ⏭️  Skipped    : %d\n", len(result.Skips))
	fmt.Printf("  🗓  Months     : %d\n", result.Months)
	fmt.Printf("  ⏱  Duration   : %.2fs\n", result.Duration.Seconds())
	PrintSeparator()

	if len(result.Returns) > 0 {
		first := result.Returns[0]
		last := result.Returns[len(result.Returns)-1]
		fmt.Printf("  First trade  : %s (%+.2f%%)\n", first.Date.Format("2006-01-02"), first.Return*100)
		fmt.Printf("  Last trade   : %s (%+.2f%%)\n", last.Date.Format("2006-01-02"), last.Return*100)
	}
}
