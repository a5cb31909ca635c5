// Package db wires a PostgreSQL connection pool to the persistence
// repositories, adapted from cryptorun's internal/infrastructure/db/connection.go:
// a disable-by-default Config/Manager pair so the evaluation core can run
// against a fake/in-memory OHLC source with no database at all, and a
// healthChecker side-channel independent of the repository bundle.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kalletarpila/swingmaster/internal/obslog"
	"github.com/kalletarpila/swingmaster/internal/persistence"
	"github.com/kalletarpila/swingmaster/internal/persistence/postgres"
)

// rowCountTables are the tables whose row counts healthChecker.Stats reports
// (spec.md §6.3's persisted tables, minus rc_run, which Stats does not count;
// NewManager only logs the rc_run count once at startup as prior_runs).
var rowCountTables = []string{"rc_state_daily", "rc_transition", "rc_signal_daily", "rc_ew_score_daily"}

// Config holds database connection configuration.
type Config struct {
	DSN             string        `yaml:"dsn" env:"PG_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"PG_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"PG_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"PG_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"PG_CONN_MAX_IDLE_TIME"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"PG_QUERY_TIMEOUT"`
	Enabled         bool          `yaml:"enabled" env:"PG_ENABLED"`
}

// DefaultConfig returns reasonable defaults for database connections.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
		Enabled:         false,
	}
}

// Manager manages the database connection and repository instances.
type Manager struct {
	db     *sqlx.DB
	config Config
	repos  *persistence.Repository
	health *healthChecker
}

// NewManager creates a new database manager, ensures the schema, and wires
// up the Repository bundle. When config.Enabled is false, it returns a
// Manager with a nil Repository and a health checker that always reports
// healthy-but-disabled — the evaluation core can run entirely without a
// database against internal/ports/fake.
func NewManager(config Config) (*Manager, error) {
	if !config.Enabled {
		return &Manager{config: config, health: &healthChecker{enabled: false}}, nil
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("database DSN is required when enabled")
	}

	conn, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(config.MaxOpenConns)
	conn.SetMaxIdleConns(config.MaxIdleConns)
	conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := postgres.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	var priorRuns int
	if err := conn.GetContext(ctx, &priorRuns, `SELECT count(*) FROM rc_run`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("count prior runs: %w", err)
	}
	obslog.Component("infrastructure-db").Info().
		Int("prior_runs", priorRuns).Bool("fresh_install", priorRuns == 0).
		Msg("schema ensured")

	repos := &persistence.Repository{
		StateDaily:  postgres.NewStateDailyRepo(conn, config.QueryTimeout),
		Transitions: postgres.NewTransitionRepo(conn, config.QueryTimeout),
		SignalDaily: postgres.NewSignalDailyRepo(conn, config.QueryTimeout),
		EWScore:     postgres.NewEWScoreRepo(conn, config.QueryTimeout),
		Runs:        postgres.NewRunRepo(conn, config.QueryTimeout),
	}

	return &Manager{
		db:     conn,
		config: config,
		repos:  repos,
		health: &healthChecker{enabled: true, db: conn, timeout: config.QueryTimeout},
	}, nil
}

// Repository returns the repository collection, or nil if database is disabled.
func (m *Manager) Repository() *persistence.Repository { return m.repos }

// Health returns the health checker interface.
func (m *Manager) Health() persistence.RepositoryHealth { return m.health }

// DB returns the underlying sqlx connection, for migrations or scripting.
func (m *Manager) DB() *sqlx.DB { return m.db }

// IsEnabled reports whether database persistence is enabled.
func (m *Manager) IsEnabled() bool { return m.config.Enabled && m.db != nil }

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// healthChecker implements persistence.RepositoryHealth.
type healthChecker struct {
	enabled bool
	db      *sqlx.DB
	timeout time.Duration
}

func (h *healthChecker) Health(ctx context.Context) persistence.HealthCheck {
	if !h.enabled {
		return persistence.HealthCheck{
			Healthy:        true,
			Errors:         []string{"database persistence disabled"},
			ConnectionPool: map[string]int{"status": 0},
			LastCheck:      time.Now(),
		}
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var errs []string
	healthy := true
	if err := h.db.PingContext(pingCtx); err != nil {
		errs = append(errs, fmt.Sprintf("ping failed: %v", err))
		healthy = false
	}

	stats := h.db.Stats()
	pool := map[string]int{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"in_use":   stats.InUse,
		"idle":     stats.Idle,
	}

	return persistence.HealthCheck{
		Healthy:        healthy,
		Errors:         errs,
		ConnectionPool: pool,
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	if !h.enabled {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(pingCtx)
}

func (h *healthChecker) Stats(ctx context.Context) map[string]interface{} {
	if !h.enabled {
		return map[string]interface{}{"enabled": false, "status": "disabled"}
	}
	stats := h.db.Stats()
	out := map[string]interface{}{
		"enabled":              true,
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
	}
	rowCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	for k, v := range h.rowCounts(rowCtx) {
		out[k] = v
	}
	return out
}

// rowCounts queries a row count for each table in rowCountTables, skipping
// (not failing) any table a query errors against, so a single locked or
// mid-migration table never takes down the whole health report.
func (h *healthChecker) rowCounts(ctx context.Context) map[string]interface{} {
	out := make(map[string]interface{}, len(rowCountTables))
	for _, table := range rowCountTables {
		var n int
		if err := h.db.GetContext(ctx, &n, fmt.Sprintf("SELECT count(*) FROM %s", table)); err != nil {
			continue
		}
		out[table+"_rows"] = n
	}
	return out
}
