package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/longshanks/internal/api"
	"github.com/wonny/longshanks/internal/api/handlers"
	"github.com/wonny/longshanks/internal/backtest"
	"github.com/wonny/longshanks/internal/contracts"
)

// apiCmd starts the HTTP API server
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 실행",
	Long: `백테스트 런 조회 API와 실시간 백테스트 스트림을 서빙합니다.

Endpoints:
  GET /health
  GET /api/v1/runs
  GET /api/v1/runs/{id}
  GET /api/v1/runs/{id}/returns
  GET /api/v1/backtest/stream   (websocket)

Example:
  go run ./cmd/longshanks api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer app.Close()

	if app.runRepo == nil {
		return fmt.Errorf("api requires DATABASE_URL")
	}

	runHandler := handlers.NewRunHandler(app.runRepo, app.log)
	streamHandler := handlers.NewStreamHandler(
		func(ctx context.Context, progress backtest.ProgressFunc) (*backtest.Result, *contracts.MetricsReport, error) {
			return app.runBacktest(ctx, progress)
		},
		app.log,
	)

	server := api.New(app.cfg, app.log, api.NewRouter(runHandler, streamHandler, app.log))

	// Graceful shutdown on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
