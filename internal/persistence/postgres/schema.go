package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kalletarpila/swingmaster/internal/swerrors"
)

// baseTables are created if absent; EnsureSchema is idempotent and must run
// once per connection before any row operation (spec.md §5).
var baseTables = []string{
	`CREATE TABLE IF NOT EXISTS rc_run (
		run_id         TEXT PRIMARY KEY,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		engine_version TEXT NOT NULL,
		policy_id      TEXT NOT NULL,
		policy_version TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rc_state_daily (
		ticker           TEXT NOT NULL,
		date             DATE NOT NULL,
		state            TEXT NOT NULL,
		prev_state       TEXT NOT NULL,
		reasons_json     JSONB NOT NULL,
		confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
		age              INTEGER NOT NULL,
		state_attrs_json JSONB,
		run_id           TEXT NOT NULL REFERENCES rc_run(run_id),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS rc_transition (
		ticker           TEXT NOT NULL,
		date             DATE NOT NULL,
		from_state       TEXT NOT NULL,
		to_state         TEXT NOT NULL,
		reasons_json     JSONB NOT NULL,
		state_attrs_json JSONB,
		run_id           TEXT NOT NULL REFERENCES rc_run(run_id),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS rc_signal_daily (
		ticker           TEXT NOT NULL,
		date             DATE NOT NULL,
		signal_keys_json JSONB NOT NULL,
		run_id           TEXT NOT NULL REFERENCES rc_run(run_id),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE TABLE IF NOT EXISTS rc_ew_score_daily (
		ticker     TEXT NOT NULL,
		date       DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (ticker, date)
	)`,
}

// ewScoreDualModeColumns are the dual-mode columns EnsureSchema adds to
// rc_ew_score_daily via non-destructive ALTER TABLE ... ADD COLUMN IF NOT
// EXISTS statements (spec.md §4.5's idempotent migration-helper contract).
var ewScoreDualModeColumns = []string{
	"score_day3 DOUBLE PRECISION",
	"level_day3 INTEGER",
	"rule TEXT",
	"inputs_json JSONB",
	"score_fastpass DOUBLE PRECISION",
	"level_fastpass INTEGER",
	"rule_fastpass TEXT",
	"inputs_json_fastpass JSONB",
	"score_rolling DOUBLE PRECISION",
	"level_rolling INTEGER",
	"rule_rolling TEXT",
	"inputs_json_rolling JSONB",
}

// EnsureSchema creates the base tables if absent and adds the dual-mode EW
// score columns via idempotent ALTER TABLE statements. It raises
// swerrors.SchemaMissing if rc_ew_score_daily is still absent after the
// base-table statements succeeded; a failing CREATE statement returns its
// own wrapped error before that check.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range baseTables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	var exists bool
	if err := db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'rc_ew_score_daily')`); err != nil {
		return fmt.Errorf("ensure schema: check rc_ew_score_daily: %w", err)
	}
	if !exists {
		return swerrors.New(swerrors.SchemaMissing, "rc_ew_score_daily base table is absent")
	}
	for _, col := range ewScoreDualModeColumns {
		stmt := fmt.Sprintf("ALTER TABLE rc_ew_score_daily ADD COLUMN IF NOT EXISTS %s", col)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: add column %q: %w", col, err)
		}
	}
	return nil
}
