// Package memory provides an in-process persistence.Repository backed by
// plain maps, for the evaluate/range CLI's --db=false demo path (the
// orchestration core otherwise requires a real Repository to persist
// against). Grounded on the same map-of-rows shape as
// internal/orchestration's test-only inMemoryRepo, exported here
// rather than kept test-only since swingmaster's CLI needs it at runtime,
// not just in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// Repo is an in-memory persistence.Repository. Safe for concurrent use.
type Repo struct {
	mu sync.Mutex

	state       map[string]persistence.StateDailyRow
	transitions map[string]persistence.TransitionRow
	signals     map[string]persistence.SignalDailyRow
	ewscores    map[string]persistence.EWScoreDailyRow
	runs        map[string]persistence.RunRow
}

// New creates an empty in-memory repository.
func New() *Repo {
	return &Repo{
		state:       make(map[string]persistence.StateDailyRow),
		transitions: make(map[string]persistence.TransitionRow),
		signals:     make(map[string]persistence.SignalDailyRow),
		ewscores:    make(map[string]persistence.EWScoreDailyRow),
		runs:        make(map[string]persistence.RunRow),
	}
}

func key(ticker, date string) string { return ticker + "|" + date }

// Repository returns the persistence.Repository bundle backed by r.
func (r *Repo) Repository() persistence.Repository {
	return persistence.Repository{
		StateDaily:  &stateDaily{r},
		Transitions: &transitions{r},
		SignalDaily: &signalDaily{r},
		EWScore:     &ewscoreRepo{r},
		Runs:        &runs{r},
	}
}

// Health reports healthy-but-uncommitted, since nothing durable backs this
// repository; matches persistence.RepositoryHealth's shape without a
// database connection to ping.
func (r *Repo) Health(ctx context.Context) persistence.HealthCheck {
	return persistence.HealthCheck{
		Healthy: true,
		Errors:  []string{"in-memory repository: not durable across process restarts"},
	}
}

// Ping always succeeds; there is no connection to lose.
func (r *Repo) Ping(ctx context.Context) error { return nil }

// Stats reports row counts per table in lieu of a connection pool's stats.
func (r *Repo) Stats(ctx context.Context) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]interface{}{
		"state_daily_rows":  len(r.state),
		"transition_rows":   len(r.transitions),
		"signal_daily_rows": len(r.signals),
		"ewscore_rows":      len(r.ewscores),
		"run_rows":          len(r.runs),
	}
}

type stateDaily struct{ r *Repo }

func (s *stateDaily) Upsert(ctx context.Context, row persistence.StateDailyRow) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.state[key(row.Ticker, row.Date)] = row
	return nil
}

func (s *stateDaily) Get(ctx context.Context, ticker, date string) (*persistence.StateDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	row, ok := s.r.state[key(ticker, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *stateDaily) Latest(ctx context.Context, ticker, asOfDate string) (*persistence.StateDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var best *persistence.StateDailyRow
	for _, row := range s.r.state {
		if row.Ticker != ticker || row.Date > asOfDate {
			continue
		}
		if best == nil || row.Date > best.Date {
			cp := row
			best = &cp
		}
	}
	return best, nil
}

func (s *stateDaily) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.StateDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var out []persistence.StateDailyRow
	for _, row := range s.r.state {
		if row.Ticker == ticker && row.Date >= from && row.Date <= to {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type transitions struct{ r *Repo }

func (t *transitions) Upsert(ctx context.Context, row persistence.TransitionRow) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.transitions[key(row.Ticker, row.Date)] = row
	return nil
}

func (t *transitions) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.TransitionRow, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	var out []persistence.TransitionRow
	for _, row := range t.r.transitions {
		if row.Ticker == ticker && row.Date >= from && row.Date <= to {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type signalDaily struct{ r *Repo }

func (s *signalDaily) Upsert(ctx context.Context, row persistence.SignalDailyRow) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.signals[key(row.Ticker, row.Date)] = row
	return nil
}

func (s *signalDaily) Get(ctx context.Context, ticker, date string) (*persistence.SignalDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	row, ok := s.r.signals[key(ticker, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *signalDaily) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.SignalDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var out []persistence.SignalDailyRow
	for _, row := range s.r.signals {
		if row.Ticker == ticker && row.Date >= from && row.Date <= to {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

type ewscoreRepo struct{ r *Repo }

func (e *ewscoreRepo) upsert(ticker, date string, mutate func(*persistence.EWScoreDailyRow)) error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	k := key(ticker, date)
	row := e.r.ewscores[k]
	row.Ticker, row.Date = ticker, date
	mutate(&row)
	e.r.ewscores[k] = row
	return nil
}

func (e *ewscoreRepo) UpsertLegacy(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	return e.upsert(ticker, date, func(row *persistence.EWScoreDailyRow) {
		row.ScoreDay3, row.LevelDay3, row.Rule, row.InputsJSON = &score, &level, &rule, inputsJSON
	})
}

func (e *ewscoreRepo) UpsertFastpass(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	return e.upsert(ticker, date, func(row *persistence.EWScoreDailyRow) {
		row.ScoreFastpass, row.LevelFastpass, row.RuleFastpass, row.InputsJSONFastpass = &score, &level, &rule, inputsJSON
	})
}

func (e *ewscoreRepo) UpsertRolling(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	return e.upsert(ticker, date, func(row *persistence.EWScoreDailyRow) {
		row.ScoreRolling, row.LevelRolling, row.RuleRolling, row.InputsJSONRolling = &score, &level, &rule, inputsJSON
	})
}

func (e *ewscoreRepo) Get(ctx context.Context, ticker, date string) (*persistence.EWScoreDailyRow, error) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	row, ok := e.r.ewscores[key(ticker, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

type runs struct{ r *Repo }

func (rr *runs) Create(ctx context.Context, row persistence.RunRow) error {
	rr.r.mu.Lock()
	defer rr.r.mu.Unlock()
	rr.r.runs[row.RunID] = row
	return nil
}

func (rr *runs) Get(ctx context.Context, runID string) (*persistence.RunRow, error) {
	rr.r.mu.Lock()
	defer rr.r.mu.Unlock()
	row, ok := rr.r.runs[runID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}
