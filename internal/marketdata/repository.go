package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/timeutil"
)

// PriceRepository implements contracts.PanelProvider over Postgres
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Observations retrieves all observations within the date range
func (r *PriceRepository) Observations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT ticker, trade_date, adj_close
		FROM data.daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date ASC, ticker ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObservations(rows)
}

// History retrieves daily observations for the given tickers within range
func (r *PriceRepository) History(ctx context.Context, tickers []string, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT ticker, trade_date, adj_close
		FROM data.daily_prices
		WHERE ticker = ANY($1) AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC, ticker ASC
	`

	rows, err := r.pool.Query(ctx, query, tickers, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObservations(rows)
}

// LatestDate returns the most recent stored trade date, zero when empty.
func (r *PriceRepository) LatestDate(ctx context.Context) (time.Time, error) {
	query := `SELECT COALESCE(MAX(trade_date), '0001-01-01'::date) FROM data.daily_prices`

	var latest time.Time
	if err := r.pool.QueryRow(ctx, query).Scan(&latest); err != nil {
		return time.Time{}, err
	}
	return latest, nil
}

// Save upserts a single observation
func (r *PriceRepository) Save(ctx context.Context, obs contracts.Observation) error {
	query := `
		INSERT INTO data.daily_prices (ticker, trade_date, adj_close)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			adj_close = EXCLUDED.adj_close
	`

	_, err := r.pool.Exec(ctx, query, obs.Ticker, obs.Date, obs.AdjClose)
	return err
}

// SaveBatch upserts multiple observations
func (r *PriceRepository) SaveBatch(ctx context.Context, obs []contracts.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	// Use simple loop for now (batch optimization can be added later)
	for _, o := range obs {
		if err := r.Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanObservations(rows pgxRows) ([]contracts.Observation, error) {
	var obs []contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(&o.Ticker, &o.Date, &o.AdjClose); err != nil {
			return nil, err
		}
		o.Date = timeutil.DateOnly(o.Date)
		obs = append(obs, o)
	}
	return obs, rows.Err()
}
