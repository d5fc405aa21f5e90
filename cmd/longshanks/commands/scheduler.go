package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/longshanks/internal/marketdata"
	"github.com/wonny/longshanks/internal/scheduler"
	"github.com/wonny/longshanks/internal/scheduler/jobs"
)

// schedulerCmd runs the recurring maintenance jobs
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 실행",
	Long: `야간 시세 갱신 잡을 크론 일정으로 실행합니다.

Jobs:
  price_refresh   매일 02:00 UTC, 직전 5일 시세 upsert

Example:
  go run ./cmd/longshanks scheduler
  go run ./cmd/longshanks scheduler --now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "now", false, "시작하면서 잡을 즉시 1회 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer app.Close()

	if app.db == nil {
		return fmt.Errorf("scheduler requires DATABASE_URL")
	}

	sched := scheduler.New(app.log)
	refresh := jobs.NewPriceRefreshJob(
		app.fetcher,
		marketdata.NewPriceRepository(app.db.Pool),
		app.strategy,
		app.log,
	)
	if err := sched.AddJob(refresh); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow {
		if err := sched.RunJob(refresh.Name()); err != nil {
			return err
		}
	}

	fmt.Println("⏰ Scheduler running. Ctrl+C to stop.")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}
