package orchestration

import (
	"context"
	"sort"
	"sync"

	"github.com/kalletarpila/swingmaster/internal/persistence"
)

// inMemoryRepo is a test-only persistence.Repository backed by plain maps,
// standing in for the postgres package's sqlx-backed repos the same way
// the persistence/postgres tests stand in for a live database with
// sqlmock. Safe for concurrent use since rangerunner_test.go exercises it
// from multiple goroutines.
type inMemoryRepo struct {
	mu sync.Mutex

	state       map[string]persistence.StateDailyRow    // key: ticker|date
	transitions map[string]persistence.TransitionRow     // key: ticker|date
	signals     map[string]persistence.SignalDailyRow    // key: ticker|date
	ewscores    map[string]persistence.EWScoreDailyRow   // key: ticker|date
	runs        map[string]persistence.RunRow
}

func newInMemoryRepo() *inMemoryRepo {
	return &inMemoryRepo{
		state:       make(map[string]persistence.StateDailyRow),
		transitions: make(map[string]persistence.TransitionRow),
		signals:     make(map[string]persistence.SignalDailyRow),
		ewscores:    make(map[string]persistence.EWScoreDailyRow),
		runs:        make(map[string]persistence.RunRow),
	}
}

func key(ticker, date string) string { return ticker + "|" + date }

func (r *inMemoryRepo) repository() persistence.Repository {
	return persistence.Repository{
		StateDaily:  &inMemoryStateDaily{r},
		Transitions: &inMemoryTransitions{r},
		SignalDaily: &inMemorySignalDaily{r},
		EWScore:     &inMemoryEWScore{r},
		Runs:        &inMemoryRuns{r},
	}
}

type inMemoryStateDaily struct{ r *inMemoryRepo }

func (s *inMemoryStateDaily) Upsert(ctx context.Context, row persistence.StateDailyRow) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.state[key(row.Ticker, row.Date)] = row
	return nil
}

func (s *inMemoryStateDaily) Get(ctx context.Context, ticker, date string) (*persistence.StateDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	row, ok := s.r.state[key(ticker, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *inMemoryStateDaily) Latest(ctx context.Context, ticker, asOfDate string) (*persistence.StateDailyRow, error) {
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

func (s *inMemoryStateDaily) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.StateDailyRow, error) {
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

type inMemoryTransitions struct{ r *inMemoryRepo }

func (t *inMemoryTransitions) Upsert(ctx context.Context, row persistence.TransitionRow) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.transitions[key(row.Ticker, row.Date)] = row
	return nil
}

func (t *inMemoryTransitions) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.TransitionRow, error) {
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

type inMemorySignalDaily struct{ r *inMemoryRepo }

func (s *inMemorySignalDaily) Upsert(ctx context.Context, row persistence.SignalDailyRow) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.signals[key(row.Ticker, row.Date)] = row
	return nil
}

func (s *inMemorySignalDaily) Get(ctx context.Context, ticker, date string) (*persistence.SignalDailyRow, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	row, ok := s.r.signals[key(ticker, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *inMemorySignalDaily) ListRange(ctx context.Context, ticker, from, to string) ([]persistence.SignalDailyRow, error) {
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

type inMemoryEWScore struct{ r *inMemoryRepo }

func (e *inMemoryEWScore) upsert(ticker, date string, mutate func(*persistence.EWScoreDailyRow)) error {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	k := key(ticker, date)
	row := e.r.ewscores[k]
	row.Ticker, row.Date = ticker, date
	mutate(&row)
	e.r.ewscores[k] = row
	return nil
}

func (e *inMemoryEWScore) UpsertLegacy(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	return e.upsert(ticker, date, func(row *persistence.EWScoreDailyRow) {
		row.ScoreDay3, row.LevelDay3, row.Rule, row.InputsJSON = &score, &level, &rule, inputsJSON
	})
}

func (e *inMemoryEWScore) UpsertFastpass(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	return e.upsert(ticker, date, func(row *persistence.EWScoreDailyRow) {
		row.ScoreFastpass, row.LevelFastpass, row.RuleFastpass, row.InputsJSONFastpass = &score, &level, &rule, inputsJSON
	})
}

func (e *inMemoryEWScore) UpsertRolling(ctx context.Context, ticker, date string, score float64, level int, rule string, inputsJSON []byte) error {
	return e.upsert(ticker, date, func(row *persistence.EWScoreDailyRow) {
		row.ScoreRolling, row.LevelRolling, row.RuleRolling, row.InputsJSONRolling = &score, &level, &rule, inputsJSON
	})
}

func (e *inMemoryEWScore) Get(ctx context.Context, ticker, date string) (*persistence.EWScoreDailyRow, error) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	row, ok := e.r.ewscores[key(ticker, date)]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

type inMemoryRuns struct{ r *inMemoryRepo }

func (rr *inMemoryRuns) Create(ctx context.Context, row persistence.RunRow) error {
	rr.r.mu.Lock()
	defer rr.r.mu.Unlock()
	rr.r.runs[row.RunID] = row
	return nil
}

func (rr *inMemoryRuns) Get(ctx context.Context, runID string) (*persistence.RunRow, error) {
	rr.r.mu.Lock()
	defer rr.r.mu.Unlock()
	row, ok := rr.r.runs[runID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}
