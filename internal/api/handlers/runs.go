// Package handlers implements the HTTP and websocket endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/longshanks/internal/backtest"
	"github.com/wonny/longshanks/pkg/logger"
)

const defaultListLimit = 20

// RunHandler serves persisted backtest runs
// ⭐ SSOT: 런 조회 API는 여기서만
type RunHandler struct {
	repo   *backtest.RunRepository
	logger *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(repo *backtest.RunRepository, log *logger.Logger) *RunHandler {
	return &RunHandler{repo: repo, logger: log}
}

// List returns the most recent runs
// GET /api/v1/runs?limit=20
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be an integer in [1, 200]")
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one run by id
// GET /api/v1/runs/{id}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// GetReturns returns the return series of a run
// GET /api/v1/runs/{id}/returns
func (h *RunHandler) GetReturns(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	returns, err := h.repo.GetReturns(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run returns")
		writeError(w, http.StatusInternalServerError, "failed to get run returns")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  id,
		"returns": returns,
		"count":   len(returns),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
