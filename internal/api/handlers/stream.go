package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wonny/longshanks/internal/backtest"
	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/pkg/logger"
)

// BacktestFunc runs one backtest, reporting progress through the callback.
type BacktestFunc func(ctx context.Context, progress backtest.ProgressFunc) (*backtest.Result, *contracts.MetricsReport, error)

// StreamHandler runs a backtest over a websocket, pushing progress frames
// as the simulation walks the rebalance calendar
// ⭐ SSOT: 실시간 백테스트 스트림은 여기서만
type StreamHandler struct {
	run      BacktestFunc
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(run BacktestFunc, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		run: run,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 로컬 대시보드 용도: 오리진 제한 없음
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// streamFrame is one websocket message
type streamFrame struct {
	Type    string                   `json:"type"` // progress | result | error
	Stage   string                   `json:"stage,omitempty"`
	Done    int                      `json:"done,omitempty"`
	Total   int                      `json:"total,omitempty"`
	Result  *backtest.Result         `json:"result,omitempty"`
	Metrics *contracts.MetricsReport `json:"metrics,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// Stream upgrades the connection and runs the backtest.
// GET /api/v1/backtest/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// 클라이언트가 끊으면 컨텍스트 취소로 시뮬레이션 중단
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// 엔진이 동기 실행이므로 진행 프레임 전송은 단일 고루틴에서 일어남
	progress := func(stage string, done, total int) {
		frame := streamFrame{Type: "progress", Stage: stage, Done: done, Total: total}
		if err := conn.WriteJSON(frame); err != nil {
			cancel()
		}
	}

	result, metrics, err := h.run(ctx, progress)
	if err != nil {
		h.logger.WithError(err).Error("Streamed backtest failed")
		conn.WriteJSON(streamFrame{Type: "error", Error: err.Error()})
		return
	}

	if err := conn.WriteJSON(streamFrame{Type: "result", Result: result, Metrics: metrics}); err != nil {
		h.logger.WithError(err).Warn("Failed to write result frame")
	}
}
