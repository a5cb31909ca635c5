package orchestration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// RangeRunnerConfig configures a range-universe run: the inclusive date
// span and how many tickers may be evaluated concurrently. Per-ticker
// evaluation is always serialized ascending by date (spec.md §9 "state
// carries forward day to day"), since each day's decision depends on the
// prior day's persisted state.
type RangeRunnerConfig struct {
	From        string
	To          string
	Concurrency int // max tickers evaluated concurrently; <=0 defaults to 4
}

// RangeRunner drives an Engine across a ticker universe and date range.
// Grounded on internal/infrastructure/async/concurrency.go's worker-slot
// idea, narrowed from its adaptive rate-limited pool down to a fixed
// bounded-concurrency semaphore: the domain here is bounded by a handful
// of tickers per run, not thousands of concurrent exchange calls.
type RangeRunner struct {
	engine *Engine
	cfg    RangeRunnerConfig
}

// NewRangeRunner constructs a RangeRunner over engine.
func NewRangeRunner(engine *Engine, cfg RangeRunnerConfig) *RangeRunner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &RangeRunner{engine: engine, cfg: cfg}
}

// TickerResult is one ticker's range-run outcome: the per-date outcomes in
// ascending date order, or the error the ticker's evaluation aborted on
// (only DATA_INSUFFICIENT-class conditions degrade in-band; anything else
// here means a storage or collaborator failure, not a signal outcome).
type TickerResult struct {
	Ticker   string
	Outcomes []EvaluationOutcome
	Dates    []string
	Err      error
}

// Run evaluates every ticker in tickers across [cfg.From, cfg.To]
// inclusive, one calendar day at a time, ascending. runID tags every row
// written this run (spec.md §6.3's rc_run.run_id).
func (r *RangeRunner) Run(ctx context.Context, tickers []string, runID string) ([]TickerResult, error) {
	if err := CheckVersionCompatibility(r.engine.cfg.SignalVersion, r.engine.cfg.PolicyVersion); err != nil {
		return nil, err
	}

	dates, err := dateRange(r.cfg.From, r.cfg.To)
	if err != nil {
		return nil, fmt.Errorf("orchestration: invalid range [%s, %s]: %w", r.cfg.From, r.cfg.To, err)
	}

	results := make([]TickerResult, len(tickers))
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.runTicker(ctx, ticker, dates, runID)
		}(i, ticker)
	}
	wg.Wait()

	return results, nil
}

// runTicker evaluates one ticker across dates in strict ascending order,
// stopping at the first hard error (a degraded DATA_INSUFFICIENT decision
// is not an error here — it is a valid outcome the caller can inspect).
func (r *RangeRunner) runTicker(ctx context.Context, ticker string, dates []string, runID string) TickerResult {
	result := TickerResult{Ticker: ticker}
	for _, date := range dates {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		outcome, err := r.engine.Evaluate(ctx, ticker, date, runID)
		if err != nil {
			result.Err = fmt.Errorf("ticker %s at %s: %w", ticker, date, err)
			return result
		}
		result.Outcomes = append(result.Outcomes, outcome)
		result.Dates = append(result.Dates, date)
	}
	return result
}

// dateRange returns the inclusive, ascending sequence of calendar-day
// strings between from and to.
func dateRange(from, to string) ([]string, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("to date %q precedes from date %q", to, from)
	}

	out := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(dateLayout))
	}
	sort.Strings(out)
	return out, nil
}
