package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/longshanks/internal/universe"
	"github.com/wonny/longshanks/pkg/httputil"
)

// universeCmd scrapes the current S&P 500 constituents
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "S&P 500 구성종목 조회",
	Long: `S&P 500 구성종목을 스크래핑해서 출력합니다.

전략 YAML의 universe.tickers 목록을 갱신할 때 사용합니다.
출력은 YAML 붙여넣기에 맞춰 따옴표로 감싼 티커 목록입니다.

Example:
  go run ./cmd/longshanks universe`,
	RunE: runUniverse,
}

func init() {
	rootCmd.AddCommand(universeCmd)
}

func runUniverse(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer app.Close()

	scraper := universe.NewScraper(httputil.New(app.log), app.log)
	tickers, err := scraper.Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	fmt.Printf("📋 %d constituents\n\n", len(tickers))
	for i, t := range tickers {
		fmt.Printf("%q, ", t)
		if (i+1)%10 == 0 {
			fmt.Println()
		}
	}
	fmt.Println()
	return nil
}
