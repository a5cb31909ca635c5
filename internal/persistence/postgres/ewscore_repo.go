package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// ewScoreRepo implements persistence.EWScoreRepo for PostgreSQL, enforcing
// the three-isolated-column-group write discipline from spec.md §4.5 and
// §8 invariant 7: a fastpass UPSERT mutates only fastpass columns, a
// rolling UPSERT mutates only rolling columns, and created_at is never
// touched by ON CONFLICT. Grounded on regime_repo.go's single-row UPSERT
// shape, split into three independent statements instead of one shared
// column list.
type ewScoreRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewEWScoreRepo creates a PostgreSQL-backed EWScoreRepo.
func NewEWScoreRepo(db *sqlx.DB, timeout time.Duration) persistence.EWScoreRepo {
	return &ewScoreRepo{db: db, timeout: timeout}
}

func (r *ewScoreRepo) UpsertLegacy(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_ew_score_daily (ticker, date, score_day3, level_day3, rule, inputs_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker, date) DO UPDATE SET
			score_day3  = EXCLUDED.score_day3,
			level_day3  = EXCLUDED.level_day3,
			rule        = EXCLUDED.rule,
			inputs_json = EXCLUDED.inputs_json`
	_, err := r.db.ExecContext(ctx, query, ticker, date, score, level, rule, inputsJSON)
	if err != nil {
		return fmt.Errorf("upsert ew score (legacy): %w", err)
	}
	return nil
}

func (r *ewScoreRepo) UpsertFastpass(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_ew_score_daily (ticker, date, score_fastpass, level_fastpass, rule_fastpass, inputs_json_fastpass)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker, date) DO UPDATE SET
			score_fastpass       = EXCLUDED.score_fastpass,
			level_fastpass       = EXCLUDED.level_fastpass,
			rule_fastpass        = EXCLUDED.rule_fastpass,
			inputs_json_fastpass = EXCLUDED.inputs_json_fastpass`
	_, err := r.db.ExecContext(ctx, query, ticker, date, score, level, rule, inputsJSON)
	if err != nil {
		return fmt.Errorf("upsert ew score (fastpass): %w", err)
	}
	return nil
}

func (r *ewScoreRepo) UpsertRolling(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO rc_ew_score_daily (ticker, date, score_rolling, level_rolling, rule_rolling, inputs_json_rolling)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker, date) DO UPDATE SET
			score_rolling       = EXCLUDED.score_rolling,
			level_rolling       = EXCLUDED.level_rolling,
			rule_rolling        = EXCLUDED.rule_rolling,
			inputs_json_rolling = EXCLUDED.inputs_json_rolling`
	_, err := r.db.ExecContext(ctx, query, ticker, date, score, level, rule, inputsJSON)
	if err != nil {
		return fmt.Errorf("upsert ew score (rolling): %w", err)
	}
	return nil
}

func (r *ewScoreRepo) Get(ctx context.Context, ticker, date string) (*persistence.EWScoreDailyRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row persistence.EWScoreDailyRow
	err := r.db.GetContext(ctx, &row, `
		SELECT ticker, date,
			score_day3, level_day3, rule, inputs_json,
			score_fastpass, level_fastpass, rule_fastpass, inputs_json_fastpass,
			score_rolling, level_rolling, rule_rolling, inputs_json_rolling,
			created_at
		FROM rc_ew_score_daily WHERE ticker = $1 AND date = $2`, ticker, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ew score daily: %w", err)
	}
	return &row, nil
}
