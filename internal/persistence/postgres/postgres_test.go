package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalletarpila/swingmaster/internal/persistence"
	"github.com/kalletarpila/swingmaster/internal/swerrors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestEWScoreRepo_UpsertFastpass_TouchesOnlyFastpassColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEWScoreRepo(db, 5*time.Second)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO rc_ew_score_daily (ticker, date, score_fastpass, level_fastpass, rule_fastpass, inputs_json_fastpass)")).
		WithArgs("ERIC-B", "2024-06-10", 0.66, 1, "EW_SCORE_FASTPASS_V1_SE", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertFastpass(context.Background(), "ERIC-B", "2024-06-10", 0.66, 1, "EW_SCORE_FASTPASS_V1_SE", []byte(`{}`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEWScoreRepo_UpsertRolling_TouchesOnlyRollingColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEWScoreRepo(db, 5*time.Second)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO rc_ew_score_daily (ticker, date, score_rolling, level_rolling, rule_rolling, inputs_json_rolling)")).
		WithArgs("SAMPO", "2024-06-11", 0.5, 2, "EW_SCORE_ROLLING_V2_FIN", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertRolling(context.Background(), "SAMPO", "2024-06-11", 0.5, 2, "EW_SCORE_ROLLING_V2_FIN", []byte(`{}`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEWScoreRepo_UpsertLegacy_DoesNotReferenceOtherModeColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEWScoreRepo(db, 5*time.Second)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO rc_ew_score_daily (ticker, date, score_day3, level_day3, rule, inputs_json)")).
		WithArgs("NDA-FI", "2024-06-12", 0.4, 2, "LEGACY_V1", []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertLegacy(context.Background(), "NDA-FI", "2024-06-12", 0.4, 2, "LEGACY_V1", []byte(`{}`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_SchemaMissingWhenBaseTableAbsent(t *testing.T) {
	db, mock := newMockDB(t)

	for range baseTables {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'rc_ew_score_daily')")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := EnsureSchema(context.Background(), db)
	require.Error(t, err)
	kind, ok := swerrors.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, swerrors.SchemaMissing, kind)
}

func TestEnsureSchema_AddsDualModeColumnsWhenTablePresent(t *testing.T) {
	db, mock := newMockDB(t)

	for range baseTables {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'rc_ew_score_daily')")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	for range ewScoreDualModeColumns {
		mock.ExpectExec(".*ALTER TABLE rc_ew_score_daily ADD COLUMN IF NOT EXISTS.*").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err := EnsureSchema(context.Background(), db)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRunRepo(db, 5*time.Second)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO rc_run (run_id, engine_version, policy_id, policy_version)")).
		WithArgs("run-1", "v3", "default", "v3").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	err := repo.Create(context.Background(), persistence.RunRow{
		RunID: "run-1", EngineVersion: "v3", PolicyID: "default", PolicyVersion: "v3",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
