package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// signalDailyRepo implements persistence.SignalDailyRepo for PostgreSQL.
type signalDailyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSignalDailyRepo creates a PostgreSQL-backed SignalDailyRepo.
func NewSignalDailyRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalDailyRepo {
	return &signalDailyRepo{db: db, timeout: timeout}
}

// Upsert writes a SignalDaily row under conflict target (ticker, date).
func (r *signalDailyRepo) Upsert(ctx context.Context, row persistence.SignalDailyRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_signal_daily (ticker, date, signal_keys_json, run_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, date) DO UPDATE SET
			signal_keys_json = EXCLUDED.signal_keys_json,
			run_id           = EXCLUDED.run_id
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		row.Ticker, row.Date, row.SignalKeysJSON, row.RunID).
		Scan(&row.CreatedAt)
}

// Get retrieves the row for (ticker, date), nil if absent.
func (r *signalDailyRepo) Get(ctx context.Context, ticker, date string) (*persistence.SignalDailyRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.SignalDailyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT ticker, date, signal_keys_json, run_id, created_at
		FROM rc_signal_daily WHERE ticker = $1 AND date = $2`, ticker, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get signal daily: %w", err)
	}
	return &row, nil
}

// ListRange retrieves rows for ticker between from and to (inclusive).
func (r *signalDailyRepo) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.SignalDailyRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []persistence.SignalDailyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT ticker, date, signal_keys_json, run_id, created_at
		FROM rc_signal_daily WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("list signal daily range: %w", err)
	}
	return rows, nil
}
