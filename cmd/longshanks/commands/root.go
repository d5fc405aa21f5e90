package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "longshanks",
	Short: "Longshanks - 미국 주식 모멘텀 백테스터",
	Long: `Longshanks Unified CLI

EMA/SMA 모멘텀 전략의 분기 리밸런스 백테스터.
시세 수집부터 성과 평가(동일가중 벤치마크 대비)까지.

Usage:
  go run ./cmd/longshanks [command]

Examples:
  go run ./cmd/longshanks fetch --from 2020-01-01
  go run ./cmd/longshanks backtest run
  go run ./cmd/longshanks universe
  go run ./cmd/longshanks api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE env or config/strategy/us_momentum_v1.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
