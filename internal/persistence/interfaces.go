// Package persistence declares the repository interfaces the evaluation
// core's storage layer must satisfy (spec.md §6.3), mirroring the shape of
// cryptorun's internal/persistence/interfaces.go: plain row structs tagged
// for both json and db, one interface per table, aggregated into a
// Repository bundle plus a RepositoryHealth side-channel.
package persistence

import (
	"context"
	"time"
)

// StateDailyRow is one row of rc_state_daily, PK (ticker, date). Rows are
// append-only per run: a given (ticker, date) is written once per
// evaluation run and never mutated afterward (spec.md §3).
type StateDailyRow struct {
	Ticker         string    `json:"ticker" db:"ticker"`
	Date           string    `json:"date" db:"date"`
	State          string    `json:"state" db:"state"`
	PrevState      string    `json:"prev_state" db:"prev_state"`
	ReasonsJSON    []byte    `json:"reasons_json" db:"reasons_json"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	Age            int       `json:"age" db:"age"`
	StateAttrsJSON []byte    `json:"state_attrs_json,omitempty" db:"state_attrs_json"`
	RunID          string    `json:"run_id" db:"run_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TransitionRow is one row of rc_transition, unique (ticker, date).
// Recorded only when from_state != to_state.
type TransitionRow struct {
	Ticker         string    `json:"ticker" db:"ticker"`
	Date           string    `json:"date" db:"date"`
	FromState      string    `json:"from_state" db:"from_state"`
	ToState        string    `json:"to_state" db:"to_state"`
	ReasonsJSON    []byte    `json:"reasons_json" db:"reasons_json"`
	StateAttrsJSON []byte    `json:"state_attrs_json,omitempty" db:"state_attrs_json"`
	RunID          string    `json:"run_id" db:"run_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SignalDailyRow is one row of rc_signal_daily, PK (ticker, date).
type SignalDailyRow struct {
	Ticker         string    `json:"ticker" db:"ticker"`
	Date           string    `json:"date" db:"date"`
	SignalKeysJSON []byte    `json:"signal_keys_json" db:"signal_keys_json"`
	RunID          string    `json:"run_id" db:"run_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// EWScoreDailyRow is one row of rc_ew_score_daily, PK (ticker, date), with
// three isolated column groups (spec.md §3, §4.5). A writer for one mode
// must never touch the columns owned by the other two modes.
type EWScoreDailyRow struct {
	Ticker string `json:"ticker" db:"ticker"`
	Date   string `json:"date" db:"date"`

	ScoreDay3 *float64 `json:"score_day3,omitempty" db:"score_day3"`
	LevelDay3 *int     `json:"level_day3,omitempty" db:"level_day3"`
	Rule      *string  `json:"rule,omitempty" db:"rule"`
	InputsJSON []byte  `json:"inputs_json,omitempty" db:"inputs_json"`

	ScoreFastpass      *float64 `json:"score_fastpass,omitempty" db:"score_fastpass"`
	LevelFastpass      *int     `json:"level_fastpass,omitempty" db:"level_fastpass"`
	RuleFastpass       *string  `json:"rule_fastpass,omitempty" db:"rule_fastpass"`
	InputsJSONFastpass []byte   `json:"inputs_json_fastpass,omitempty" db:"inputs_json_fastpass"`

	ScoreRolling      *float64 `json:"score_rolling,omitempty" db:"score_rolling"`
	LevelRolling      *int     `json:"level_rolling,omitempty" db:"level_rolling"`
	RuleRolling       *string  `json:"rule_rolling,omitempty" db:"rule_rolling"`
	InputsJSONRolling []byte   `json:"inputs_json_rolling,omitempty" db:"inputs_json_rolling"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RunRow is one row of rc_run: one row per evaluation run, recording the
// engine/policy version pair the run was executed under.
type RunRow struct {
	RunID          string    `json:"run_id" db:"run_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	EngineVersion  string    `json:"engine_version" db:"engine_version"`
	PolicyID       string    `json:"policy_id" db:"policy_id"`
	PolicyVersion  string    `json:"policy_version" db:"policy_version"`
}

// StateDailyRepo persists per-(ticker, date) state decisions.
type StateDailyRepo interface {
	// Upsert writes a StateDaily row under conflict target (ticker, date).
	Upsert(ctx context.Context, row StateDailyRow) error
	// Get retrieves the row for (ticker, date), nil if absent.
	Get(ctx context.Context, ticker, date string) (*StateDailyRow, error)
	// Latest retrieves the most recent row for ticker at or before asOfDate.
	Latest(ctx context.Context, ticker, asOfDate string) (*StateDailyRow, error)
	// ListRange retrieves rows for ticker between from and to (inclusive).
	ListRange(ctx context.Context, ticker, from, to string) ([]StateDailyRow, error)
}

// TransitionRepo persists state-change events.
type TransitionRepo interface {
	// Upsert writes a Transition row under conflict target (ticker, date).
	Upsert(ctx context.Context, row TransitionRow) error
	// ListRange retrieves transitions for ticker between from and to.
	ListRange(ctx context.Context, ticker, from, to string) ([]TransitionRow, error)
}

// SignalDailyRepo persists the per-day emitted signal set.
type SignalDailyRepo interface {
	// Upsert writes a SignalDaily row under conflict target (ticker, date).
	Upsert(ctx context.Context, row SignalDailyRow) error
	// Get retrieves the row for (ticker, date), nil if absent.
	Get(ctx context.Context, ticker, date string) (*SignalDailyRow, error)
	// ListRange retrieves rows for ticker between from and to (inclusive),
	// ordered ascending by date. Used to reconstruct the per-day signal
	// sets that feed policy.DayRecord history lookback windows.
	ListRange(ctx context.Context, ticker, from, to string) ([]SignalDailyRow, error)
}

// EWScoreRepo persists EW scores with isolated per-mode UPSERTs.
type EWScoreRepo interface {
	// UpsertLegacy writes only the legacy column group.
	UpsertLegacy(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error
	// UpsertFastpass writes only the fastpass column group.
	UpsertFastpass(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error
	// UpsertRolling writes only the rolling column group.
	UpsertRolling(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error
	// Get retrieves the full row for (ticker, date), nil if absent.
	Get(ctx context.Context, ticker, date string) (*EWScoreDailyRow, error)
}

// RunRepo persists evaluation-run version metadata.
type RunRepo interface {
	// Create inserts a new run row.
	Create(ctx context.Context, row RunRow) error
	// Get retrieves a run by id, nil if absent.
	Get(ctx context.Context, runID string) (*RunRow, error)
}

// Repository aggregates all persistence interfaces the core's storage layer
// offers.
type Repository struct {
	StateDaily  StateDailyRepo
	Transitions TransitionRepo
	SignalDaily SignalDailyRepo
	EWScore     EWScoreRepo
	Runs        RunRepo
}

// HealthCheck reports repository health status.
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer.
type RepositoryHealth interface {
	Health(ctx context.Context) HealthCheck
	Ping(ctx context.Context) error
	Stats(ctx context.Context) map[string]interface{}
}
