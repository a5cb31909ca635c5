package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// transitionRepo implements persistence.TransitionRepo for PostgreSQL.
type transitionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTransitionRepo creates a PostgreSQL-backed TransitionRepo.
func NewTransitionRepo(db *sqlx.DB, timeout time.Duration) persistence.TransitionRepo {
	return &transitionRepo{db: db, timeout: timeout}
}

// Upsert writes a Transition row under conflict target (ticker, date).
func (r *transitionRepo) Upsert(ctx context.Context, row persistence.TransitionRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_transition
		(ticker, date, from_state, to_state, reasons_json, state_attrs_json, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, date) DO UPDATE SET
			from_state       = EXCLUDED.from_state,
			to_state         = EXCLUDED.to_state,
			reasons_json     = EXCLUDED.reasons_json,
			state_attrs_json = EXCLUDED.state_attrs_json,
			run_id           = EXCLUDED.run_id
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		row.Ticker, row.Date, row.FromState, row.ToState, row.ReasonsJSON,
		row.StateAttrsJSON, row.RunID).
		Scan(&row.CreatedAt)
}

// ListRange retrieves transitions for ticker between from and to.
func (r *transitionRepo) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.TransitionRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []persistence.TransitionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT ticker, date, from_state, to_state, reasons_json, state_attrs_json, run_id, created_at
		FROM rc_transition WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transition range: %w", err)
	}
	return rows, nil
}
