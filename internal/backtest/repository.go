package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/longshanks/internal/contracts"
)

// RunRecord is a persisted backtest run
type RunRecord struct {
	ID         int64                   `json:"id"`
	StrategyID string                  `json:"strategy_id"`
	ConfigHash string                  `json:"config_hash"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Rebalances int                     `json:"rebalances"`
	Skips      int                     `json:"skips"`
	Metrics    contracts.MetricsReport `json:"metrics"`
}

// RunRepository persists backtest runs and their return series
// ⭐ SSOT: 백테스트 결과 저장은 여기서만
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun inserts the run header and its return series in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, rec *RunRecord, returns []contracts.StrategyReturn) (int64, error) {
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO backtest.runs (strategy_id, config_hash, started_at, finished_at, rebalances, skips, metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		rec.StrategyID, rec.ConfigHash, rec.StartedAt, rec.FinishedAt,
		rec.Rebalances, rec.Skips, metricsJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	retQuery := `
		INSERT INTO backtest.run_returns (run_id, rebalance_date, net_return)
		VALUES ($1, $2, $3)
	`
	for _, sr := range returns {
		if _, err := tx.Exec(ctx, retQuery, id, sr.Date, sr.Return); err != nil {
			return 0, fmt.Errorf("failed to insert return at %s: %w", sr.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRun retrieves one run by id
func (r *RunRepository) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
		SELECT id, strategy_id, config_hash, started_at, finished_at, rebalances, skips, metrics
		FROM backtest.runs
		WHERE id = $1
	`

	var rec RunRecord
	var metricsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.StrategyID, &rec.ConfigHash, &rec.StartedAt, &rec.FinishedAt,
		&rec.Rebalances, &rec.Skips, &metricsJSON,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	return &rec, nil
}

// ListRuns retrieves the most recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `
		SELECT id, strategy_id, config_hash, started_at, finished_at, rebalances, skips, metrics
		FROM backtest.runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var metricsJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.StrategyID, &rec.ConfigHash, &rec.StartedAt, &rec.FinishedAt,
			&rec.Rebalances, &rec.Skips, &metricsJSON,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metricsJSON, &rec.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// GetReturns retrieves the return series of a run in date order
func (r *RunRepository) GetReturns(ctx context.Context, runID int64) ([]contracts.StrategyReturn, error) {
	query := `
		SELECT rebalance_date, net_return
		FROM backtest.run_returns
		WHERE run_id = $1
		ORDER BY rebalance_date ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []contracts.StrategyReturn
	for rows.Next() {
		var sr contracts.StrategyReturn
		if err := rows.Scan(&sr.Date, &sr.Return); err != nil {
			return nil, err
		}
		returns = append(returns, sr)
	}
	return returns, rows.Err()
}
