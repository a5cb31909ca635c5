package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// runRepo implements persistence.RunRepo for PostgreSQL.
type runRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunRepo creates a PostgreSQL-backed RunRepo.
func NewRunRepo(db *sqlx.DB, timeout time.Duration) persistence.RunRepo {
	return &runRepo{db: db, timeout: timeout}
}

// Create inserts a new run row. run_id is generated by the caller
// (orchestration layer, via github.com/google/uuid) so it can be threaded
// through StateDaily/Transition/SignalDaily/EWScore writes before the run
// row itself is durably committed.
func (r *runRepo) Create(ctx context.Context, row persistence.RunRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_run (run_id, engine_version, policy_id, policy_version)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	return r.db.QueryRowxContext(ctx, query,
		row.RunID, row.EngineVersion, row.PolicyID, row.PolicyVersion).
		Scan(&row.CreatedAt)
}

// Get retrieves a run by id, nil if absent.
func (r *runRepo) Get(ctx context.Context, runID string) (*persistence.RunRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.RunRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, created_at, engine_version, policy_id, policy_version
		FROM rc_run WHERE run_id = $1`, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &row, nil
}
