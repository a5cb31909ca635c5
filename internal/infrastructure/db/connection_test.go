package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 10, c.MaxOpenConns)
	assert.Equal(t, 5, c.MaxIdleConns)
	assert.False(t, c.Enabled)
}

func TestNewManager_Disabled(t *testing.T) {
	m, err := NewManager(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, m.IsEnabled())
	assert.Nil(t, m.Repository())
	assert.Nil(t, m.DB())

	health := m.Health().Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Contains(t, health.Errors[0], "disabled")
}

func TestNewManager_MissingDSN(t *testing.T) {
	_, err := NewManager(Config{Enabled: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DSN is required")
}

func TestNewManager_InvalidDSN(t *testing.T) {
	_, err := NewManager(Config{Enabled: true, DSN: "not a valid dsn"})
	assert.Error(t, err)
}

func TestManager_Close_Disabled(t *testing.T) {
	m, err := NewManager(Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, m.Close())
}

func TestHealthChecker_Stats_Disabled(t *testing.T) {
	m, err := NewManager(Config{Enabled: false})
	require.NoError(t, err)
	stats := m.Health().Stats(context.Background())
	assert.Equal(t, false, stats["enabled"])
	assert.Equal(t, "disabled", stats["status"])
}

func TestHealthChecker_Ping_Disabled(t *testing.T) {
	m, err := NewManager(Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, m.Health().Ping(context.Background()))
}

func TestHealthChecker_Stats_RowCounts(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	sqlxDB := sqlx.NewDb(mockDB, "postgres")

	for _, table := range rowCountTables {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM " + table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	}

	h := &healthChecker{enabled: true, db: sqlxDB, timeout: 5 * time.Second}
	stats := h.Stats(context.Background())

	for _, table := range rowCountTables {
		assert.Equal(t, 3, stats[table+"_rows"])
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecker_Stats_RowCountErrorSkipsTable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	sqlxDB := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM rc_state_daily").WillReturnError(assert.AnError)
	for _, table := range rowCountTables[1:] {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM " + table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	}

	h := &healthChecker{enabled: true, db: sqlxDB, timeout: 5 * time.Second}
	stats := h.Stats(context.Background())

	_, ok := stats["rc_state_daily_rows"]
	assert.False(t, ok, "a failed row-count query must be skipped, not reported")
	assert.Equal(t, 0, stats["rc_transition_rows"])
}
