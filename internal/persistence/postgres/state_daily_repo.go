package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// stateDailyRepo implements persistence.StateDailyRepo for PostgreSQL.
type stateDailyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStateDailyRepo creates a PostgreSQL-backed StateDailyRepo.
func NewStateDailyRepo(db *sqlx.DB, timeout time.Duration) persistence.StateDailyRepo {
	return &stateDailyRepo{db: db, timeout: timeout}
}

// Upsert writes a StateDaily row under conflict target (ticker, date).
// StateDaily rows are append-only per run (spec.md §3): a conflicting write
// for the same (ticker, date) overwrites the row in place rather than
// branching per run_id, since only one evaluation per (ticker, date) is
// ever expected within a run.
func (r *stateDailyRepo) Upsert(ctx context.Context, row persistence.StateDailyRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_state_daily
		(ticker, date, state, prev_state, reasons_json, confidence, age, state_attrs_json, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, date) DO UPDATE SET
			state            = EXCLUDED.state,
			prev_state       = EXCLUDED.prev_state,
			reasons_json     = EXCLUDED.reasons_json,
			confidence       = EXCLUDED.confidence,
			age              = EXCLUDED.age,
			state_attrs_json = EXCLUDED.state_attrs_json,
			run_id           = EXCLUDED.run_id
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		row.Ticker, row.Date, row.State, row.PrevState, row.ReasonsJSON,
		row.Confidence, row.Age, row.StateAttrsJSON, row.RunID).
		Scan(&row.CreatedAt)
}

// Get retrieves the row for (ticker, date), nil if absent.
func (r *stateDailyRepo) Get(ctx context.Context, ticker, date string) (*persistence.StateDailyRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.StateDailyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT ticker, date, state, prev_state, reasons_json, confidence, age, state_attrs_json, run_id, created_at
		FROM rc_state_daily WHERE ticker = $1 AND date = $2`, ticker, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state daily: %w", err)
	}
	return &row, nil
}

// Latest retrieves the most recent row for ticker at or before asOfDate.
func (r *stateDailyRepo) Latest(ctx context.Context, ticker, asOfDate string) (*persistence.StateDailyRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.StateDailyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT ticker, date, state, prev_state, reasons_json, confidence, age, state_attrs_json, run_id, created_at
		FROM rc_state_daily WHERE ticker = $1 AND date <= $2
		ORDER BY date DESC LIMIT 1`, ticker, asOfDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest state daily: %w", err)
	}
	return &row, nil
}

// ListRange retrieves rows for ticker between from and to (inclusive).
func (r *stateDailyRepo) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.StateDailyRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []persistence.StateDailyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT ticker, date, state, prev_state, reasons_json, confidence, age, state_attrs_json, run_id, created_at
		FROM rc_state_daily WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("list state daily range: %w", err)
	}
	return rows, nil
}
