package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kalletarpila/swingmaster/internal/domain/dowtheory"
	"github.com/kalletarpila/swingmaster/internal/domain/ewscore"
	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
	"github.com/kalletarpila/swingmaster/internal/domain/policy"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
	"github.com/kalletarpila/swingmaster/internal/infrastructure/cache"
	"github.com/kalletarpila/swingmaster/internal/infrastructure/resilience"
	"github.com/kalletarpila/swingmaster/internal/obslog"
	"github.com/kalletarpila/swingmaster/internal/persistence"
	"github.com/kalletarpila/swingmaster/internal/ports"
	"github.com/kalletarpila/swingmaster/internal/swerrors"
)

const dateLayout = "2006-01-02"

// historyLookbackDays bounds how far back the engine pulls persisted
// StateDaily/SignalDaily rows to rebuild policy.DayRecord history. It must
// cover the widest lookback any v1 helper uses (edgeGoneStabilizingDays in
// internal/domain/policy/v1.go), plus headroom.
const historyLookbackDays = 30

// EngineConfig is the explicit immutable configuration one Engine runs
// under (spec.md §9 "configuration passes as explicit immutable structs").
type EngineConfig struct {
	SignalVersion string // "v1", "v2", or "v3" — gates the DecideV1/V2/V3 branch
	PolicyVersion string // must pair with SignalVersion per CheckVersionCompatibility
	PolicyID      string
	Market        ewscore.Market
	OHLCProvider  string // resilience breaker/limiter key, e.g. "primary-ohlc"

	SignalConfig signals.Config
}

// Engine evaluates one (ticker, as_of_date) at a time: fetch OHLC history,
// derive signals, decide the next state under the configured policy
// version, persist the outcome, and score entry-window candidates.
// Grounded on internal/application/pipeline/executor.go's
// collaborator-wiring shape, narrowed from an eight-step scan pipeline to
// swingmaster's fetch -> signals -> policy -> persist -> score chain.
type Engine struct {
	cfg EngineConfig

	source    ports.OHLCSource
	repo      persistence.Repository
	ohlcCache *cache.OHLCCache
	breakers  *resilience.BreakerManager
	limiter   *resilience.RateLimiter
}

// NewEngine constructs an Engine. ohlcCache, breakers and limiter are all
// optional (nil is a valid "not configured" value); repo and source are
// required collaborators.
func NewEngine(cfg EngineConfig, source ports.OHLCSource, repo persistence.Repository, ohlcCache *cache.OHLCCache, breakers *resilience.BreakerManager, limiter *resilience.RateLimiter) *Engine {
	return &Engine{cfg: cfg, source: source, repo: repo, ohlcCache: ohlcCache, breakers: breakers, limiter: limiter}
}

// EvaluationOutcome is the result of one Evaluate call: the policy
// decision, the signal set it was actually computed from, and (if the
// decision landed in ENTRY_WINDOW) the EW scores written alongside it.
type EvaluationOutcome struct {
	Decision  policy.Decision
	Signals   signals.Set
	EWScore   *ewscore.FastpassResult
	EWRolling *ewscore.RollingResult
}

// Evaluate runs one (ticker, as_of_date) evaluation and persists its
// outputs. The ticker's prior state/age/attrs are loaded from StateDaily;
// an absent row means this is the ticker's first ever evaluation and it
// starts from NO_TRADE/age 0/no attrs.
func (e *Engine) Evaluate(ctx context.Context, ticker, asOfDate, runID string) (EvaluationOutcome, error) {
	log := obslog.Component("orchestration-engine")

	if err := CheckVersionCompatibility(e.cfg.SignalVersion, e.cfg.PolicyVersion); err != nil {
		return EvaluationOutcome{}, err
	}

	prev, err := e.repo.StateDaily.Latest(ctx, ticker, asOfDate)
	if err != nil {
		return EvaluationOutcome{}, fmt.Errorf("orchestration: load prior state for %s: %w", ticker, err)
	}
	prevState, prevAge := policy.NoTrade, 0
	var prevAttrs policy.Attrs
	if prev != nil {
		prevState = policy.State(prev.State)
		prevAge = prev.Age
		prevAttrs = decodeAttrs(prev.StateAttrsJSON)
	}

	series, err := e.fetchSeries(ctx, ticker, asOfDate)
	if err != nil {
		return EvaluationOutcome{}, fmt.Errorf("orchestration: fetch OHLC series for %s: %w", ticker, err)
	}
	view := ohlc.NewView(series)
	latestRowDate := ""
	if len(series) > 0 {
		latestRowDate = series[len(series)-1].Date.Format(dateLayout)
	}

	sigResult := signals.Evaluate(view, e.cfg.SignalConfig, asOfDate, latestRowDate)

	history, historyDates, err := e.loadHistory(ctx, ticker, asOfDate)
	if err != nil {
		return EvaluationOutcome{}, fmt.Errorf("orchestration: load policy history for %s: %w", ticker, err)
	}

	decision, effectiveSignals, err := e.decide(prevState, prevAge, sigResult, history, prevAttrs)
	if err != nil {
		return EvaluationOutcome{}, err
	}

	if err := e.persist(ctx, ticker, asOfDate, runID, decision, effectiveSignals); err != nil {
		return EvaluationOutcome{}, fmt.Errorf("orchestration: persist evaluation for %s: %w", ticker, err)
	}

	closeByDate := closesByDate(series)

	if err := e.maybeComputeEntryContinuation(ctx, ticker, asOfDate, closeByDate, series, historyDates); err != nil {
		return EvaluationOutcome{}, fmt.Errorf("orchestration: entry continuation for %s: %w", ticker, err)
	}

	outcome := EvaluationOutcome{Decision: decision, Signals: effectiveSignals}
	if decision.NextState == policy.EntryWindow {
		fastpass, rolling, err := e.scoreEntryWindow(ctx, ticker, asOfDate, closeByDate, decision, history, historyDates, view.Len())
		if err != nil {
			return EvaluationOutcome{}, fmt.Errorf("orchestration: score entry window for %s: %w", ticker, err)
		}
		outcome.EWScore = fastpass
		outcome.EWRolling = rolling
	}

	log.Info().Str("ticker", ticker).Str("as_of_date", asOfDate).
		Str("from_state", string(decision.FromState)).Str("to_state", string(decision.NextState)).
		Msg("evaluation complete")
	return outcome, nil
}

// decide branches on PolicyVersion per CheckVersionCompatibility's
// contract: v3 runs the full DecideV3 stack (Dow facts, state-attrs,
// entry-gate overrides); v2 runs DecideV2 and persists its effective signal
// set; v1 (or empty) runs the base DecideV1 layer only. Any other version is
// rejected with IncompatibleVersions.
func (e *Engine) decide(prevState policy.State, prevAge int, result signals.Result, history []policy.DayRecord, prevAttrs policy.Attrs) (policy.Decision, signals.Set, error) {
	switch e.cfg.PolicyVersion {
	case versionV3:
		d := policy.DecideV3(prevState, prevAge, result.Signals, result.DowFacts, history, prevAttrs)
		return d, effectiveSignalsV3(result.Signals, result.DowFacts, prevState), nil
	case "v2":
		d, effective := policy.DecideV2(prevState, prevAge, result.Signals, result.DowFacts, history)
		return d, effective, nil
	case "v1", "":
		d := policy.DecideV1(prevState, prevAge, result.Signals, history)
		return d, result.Signals, nil
	default:
		return policy.Decision{}, nil, swerrors.New(swerrors.IncompatibleVersions, fmt.Sprintf("unknown policy version %q", e.cfg.PolicyVersion))
	}
}

// effectiveSignalsV3 mirrors DecideV2's INVALIDATED injection (spec.md §4.3)
// so the persisted signal set for a v3 run matches what the decision was
// actually computed from, not the provider's raw output.
func effectiveSignalsV3(sig signals.Set, dowFacts dowtheory.Facts, from policy.State) signals.Set {
	out := sig.Clone()
	if (from == policy.Stabilizing || from == policy.EntryWindow) && dowFacts.Signals.Has(signals.DowNewLL) {
		out.Add(signals.Invalidated)
	}
	return out
}

// fetchSeries tries the OHLC cache first, then the resilience-wrapped
// source, storing the fetched series in the cache. minRows mirrors the signal provider's own
// precondition so a short series degrades to DATA_INSUFFICIENT rather than
// a fetch error.
func (e *Engine) fetchSeries(ctx context.Context, ticker, asOfDate string) (ohlc.Series, error) {
	minRows := e.cfg.SignalConfig.RequiredRows()

	if e.ohlcCache != nil {
		if series, ok, err := e.ohlcCache.Get(ctx, ticker, asOfDate); err == nil && ok {
			return series, nil
		}
	}

	series, err := e.fetchFromSource(ctx, ticker, asOfDate, minRows)
	if err != nil {
		return nil, err
	}

	if e.ohlcCache != nil {
		_ = e.ohlcCache.Set(ctx, ticker, asOfDate, series)
	}
	return series, nil
}

func (e *Engine) fetchFromSource(ctx context.Context, ticker, asOfDate string, minRows int) (ohlc.Series, error) {
	provider := e.cfg.OHLCProvider
	if provider == "" || e.breakers == nil {
		return e.waitAndFetch(ctx, ticker, asOfDate, minRows, provider)
	}

	raw, err := e.breakers.Execute(provider, func() (interface{}, error) {
		return e.waitAndFetch(ctx, ticker, asOfDate, minRows, provider)
	})
	if err != nil {
		return nil, err
	}
	return raw.(ohlc.Series), nil
}

func (e *Engine) waitAndFetch(ctx context.Context, ticker, asOfDate string, minRows int, provider string) (ohlc.Series, error) {
	if e.limiter != nil && provider != "" {
		if err := e.limiter.Wait(ctx, provider); err != nil {
			return nil, err
		}
	}
	return e.source.FetchSeries(ctx, ticker, asOfDate, minRows)
}

// loadHistory rebuilds policy.DayRecord history from the persisted
// StateDaily/SignalDaily rows, ordered most-recent-first per
// policy.DecideV1's documented history contract. historyDates is the
// parallel date-string slice (DayRecord itself carries no date), needed
// only by scoreEntryWindow to locate entry/stabilization dates.
func (e *Engine) loadHistory(ctx context.Context, ticker, asOfDate string) ([]policy.DayRecord, []string, error) {
	asOf, err := time.Parse(dateLayout, asOfDate)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid as_of_date %q: %w", asOfDate, err)
	}
	from := asOf.AddDate(0, 0, -historyLookbackDays).Format(dateLayout)
	to := asOf.AddDate(0, 0, -1).Format(dateLayout)
	if to < from {
		return nil, nil, nil
	}

	stateRows, err := e.repo.StateDaily.ListRange(ctx, ticker, from, to)
	if err != nil {
		return nil, nil, err
	}
	signalRows, err := e.repo.SignalDaily.ListRange(ctx, ticker, from, to)
	if err != nil {
		return nil, nil, err
	}
	signalsByDate := make(map[string]signals.Set, len(signalRows))
	for _, row := range signalRows {
		signalsByDate[row.Date] = decodeSignalSet(row.SignalKeysJSON)
	}

	sort.Slice(stateRows, func(i, j int) bool { return stateRows[i].Date > stateRows[j].Date })

	history := make([]policy.DayRecord, 0, len(stateRows))
	dates := make([]string, 0, len(stateRows))
	for _, row := range stateRows {
		history = append(history, policy.DayRecord{
			State:   policy.State(row.State),
			Reasons: decodeReasons(row.ReasonsJSON),
			Signals: signalsByDate[row.Date],
			Attrs:   decodeAttrs(row.StateAttrsJSON),
		})
		dates = append(dates, row.Date)
	}
	return history, dates, nil
}

// persist writes the StateDaily row (always), the Transition row (only on
// a state change, per spec.md §6.3) and the SignalDaily row.
func (e *Engine) persist(ctx context.Context, ticker, asOfDate, runID string, d policy.Decision, sig signals.Set) error {
	reasonsJSON, err := json.Marshal(serializeReasons(d.Reasons))
	if err != nil {
		return err
	}
	attrsJSON, err := json.Marshal(d.Attrs)
	if err != nil {
		return err
	}
	signalsJSON, err := json.Marshal(serializeSignals(sig))
	if err != nil {
		return err
	}

	stateRow := persistence.StateDailyRow{
		Ticker:         ticker,
		Date:           asOfDate,
		State:          string(d.NextState),
		PrevState:      string(d.FromState),
		ReasonsJSON:    reasonsJSON,
		Age:            d.Age,
		StateAttrsJSON: attrsJSON,
		RunID:          runID,
	}
	if err := e.repo.StateDaily.Upsert(ctx, stateRow); err != nil {
		return err
	}

	if err := e.repo.SignalDaily.Upsert(ctx, persistence.SignalDailyRow{
		Ticker: ticker, Date: asOfDate, SignalKeysJSON: signalsJSON, RunID: runID,
	}); err != nil {
		return err
	}

	if d.Changed() {
		if err := e.repo.Transitions.Upsert(ctx, persistence.TransitionRow{
			Ticker: ticker, Date: asOfDate, FromState: string(d.FromState), ToState: string(d.NextState),
			ReasonsJSON: reasonsJSON, StateAttrsJSON: attrsJSON, RunID: runID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// maybeComputeEntryContinuation implements spec.md §4.4's final bullet and
// Scenario F (§8.F): once 5 evaluated trading days exist since an
// ENTRY_WINDOW opening day D, compute entry_continuation_confirmed from
// D+1..D+5's close-vs-SMA5 and write it onto the decision-day StateDaily row,
// mirrored into D's Transition row. historyDates is most-recent-first
// (loadHistory's contract), so historyDates[4] is exactly 5 evaluated days
// before asOfDate: by the time the engine reaches that decision day, D+1..D+4
// are already-persisted history and D+5 is asOfDate itself — range/backtest
// walks dates ascending, so no forward-looking fetch is needed.
func (e *Engine) maybeComputeEntryContinuation(ctx context.Context, ticker, asOfDate string, closeByDate map[string]float64, series ohlc.Series, historyDates []string) error {
	if len(historyDates) < 5 {
		return nil
	}
	entryDate := historyDates[4]

	entryRow, err := e.repo.StateDaily.Get(ctx, ticker, entryDate)
	if err != nil {
		return err
	}
	if entryRow == nil || entryRow.State != string(policy.EntryWindow) || entryRow.PrevState == string(policy.EntryWindow) {
		return nil
	}

	// fwd_idx 1..5 relative to entryDate, in chronological order.
	forwardDates := [5]string{historyDates[3], historyDates[2], historyDates[1], historyDates[0], asOfDate}

	var closes, sma5s [5]float64
	var defined [5]bool
	for i, d := range forwardDates {
		c, ok := closeByDate[d]
		if !ok {
			continue
		}
		sma5, ok := closeSMA5(series, d)
		if !ok {
			continue
		}
		closes[i], sma5s[i], defined[i] = c, sma5, true
	}

	confirmed := policy.ComputeEntryContinuationConfirmed(closes, sma5s, defined)

	if err := e.mergeStateAttr(ctx, ticker, asOfDate, policy.AttrEntryContinuationConfirmed, confirmed); err != nil {
		return err
	}
	return e.mergeTransitionAttr(ctx, ticker, entryDate, policy.AttrEntryContinuationConfirmed, confirmed)
}

// closeSMA5 returns the rolling 5-day SMA of Close ending on targetDate,
// false if targetDate isn't in series or has fewer than 4 preceding rows.
func closeSMA5(series ohlc.Series, targetDate string) (float64, bool) {
	idx := -1
	for i, row := range series {
		if row.Date.Format(dateLayout) == targetDate {
			idx = i
			break
		}
	}
	if idx < 4 {
		return 0, false
	}
	sum := 0.0
	for _, row := range series[idx-4 : idx+1] {
		sum += row.Close
	}
	return sum / 5, true
}

// mergeStateAttr fetch-merge-reupserts a single attrs key onto an existing
// StateDaily row, leaving every other column untouched.
func (e *Engine) mergeStateAttr(ctx context.Context, ticker, date string, key policy.AttrKey, value any) error {
	row, err := e.repo.StateDaily.Get(ctx, ticker, date)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	attrs := decodeAttrs(row.StateAttrsJSON).Clone()
	attrs[key] = value
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	row.StateAttrsJSON = encoded
	return e.repo.StateDaily.Upsert(ctx, *row)
}

// mergeTransitionAttr fetch-merge-reupserts a single attrs key onto the
// Transition row for (ticker, date), a no-op if no transition was recorded
// that day (spec.md §4.4's mirror only applies to the opening-day transition,
// which by construction exists whenever maybeComputeEntryContinuation's
// caller confirmed entryRow.PrevState != ENTRY_WINDOW).
func (e *Engine) mergeTransitionAttr(ctx context.Context, ticker, date string, key policy.AttrKey, value any) error {
	rows, err := e.repo.Transitions.ListRange(ctx, ticker, date, date)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	row := rows[0]
	attrs := decodeAttrs(row.StateAttrsJSON).Clone()
	attrs[key] = value
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	row.StateAttrsJSON = encoded
	return e.repo.Transitions.Upsert(ctx, row)
}

// scoreEntryWindow runs the EW scoring engine on a freshly-decided
// ENTRY_WINDOW state (spec.md §4.5): fastpass where enabled for the
// market, rolling additionally where enabled. entryDate is the earliest
// day of the current uninterrupted ENTRY_WINDOW run found in history (or
// asOfDate itself if the state just changed into ENTRY_WINDOW today);
// lastStabDate is the most recent day at or before entryDate whose
// persisted signal set carried STABILIZATION_CONFIRMED, falling back to
// entryDate itself if none is found within the lookback window.
//
// Beta0/Beta1 have no fit procedure in spec.md; both default to 0 here
// (see DESIGN.md) until a trained coefficient source is wired in.
func (e *Engine) scoreEntryWindow(ctx context.Context, ticker, asOfDate string, closeByDate map[string]float64, d policy.Decision, history []policy.DayRecord, historyDates []string, rowsTotal int) (*ewscore.FastpassResult, *ewscore.RollingResult, error) {
	entryDate := asOfDate
	if !d.Changed() {
		for i, h := range history {
			if h.State != policy.EntryWindow {
				break
			}
			entryDate = historyDates[i]
		}
	}

	lastStabDate := entryDate
	for i, date := range historyDates {
		if date > entryDate {
			continue
		}
		if history[i].Signals.Has(signals.StabilizationConfirmed) {
			lastStabDate = date
			break
		}
	}

	closeEntry := closeByDate[entryDate]
	closeToday := closeByDate[asOfDate]
	closeLastStab := closeByDate[lastStabDate]

	var fastpassResult *ewscore.FastpassResult
	if ewscore.FastpassEnabled(e.cfg.Market) {
		fp, ok := ewscore.ComputeFastpass(ewscore.FastpassInputs{
			Market:        e.cfg.Market,
			EntryDate:     entryDate,
			LastStabDate:  lastStabDate,
			CloseEntry:    closeEntry,
			CloseLastStab: closeLastStab,
			Beta0:         0,
			RowsTotal:     rowsTotal,
		})
		if ok {
			fastpassResult = &fp
			if err := e.repo.EWScore.UpsertFastpass(ctx, ticker, asOfDate, fp.Score, fp.Level, fp.RuleID, mustMarshal(fp.InputsJSON)); err != nil {
				return nil, nil, err
			}
		}
	}

	var rollingResult *ewscore.RollingResult
	if ewscore.RollingEnabled(e.cfg.Market) {
		rl, ok := ewscore.ComputeRolling(ewscore.RollingInputs{
			Market:     e.cfg.Market,
			EntryDate:  entryDate,
			AsOfDate:   asOfDate,
			CloseDay0:  closeEntry,
			CloseToday: closeToday,
			Beta0:      0,
			Beta1:      0,
			RowsTotal:  rowsTotal,
		})
		if ok {
			rollingResult = &rl
			if err := e.repo.EWScore.UpsertRolling(ctx, ticker, asOfDate, rl.Score, rl.Level, rl.RuleID, mustMarshal(rl.InputsJSON)); err != nil {
				return nil, nil, err
			}
		}
	}

	return fastpassResult, rollingResult, nil
}

func closesByDate(series ohlc.Series) map[string]float64 {
	out := make(map[string]float64, len(series))
	for _, row := range series {
		out[row.Date.Format(dateLayout)] = row.Close
	}
	return out
}

func mustMarshal(v map[string]any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func serializeReasons(reasons []policy.ReasonCode) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, r.Serialize())
	}
	return out
}

func decodeReasons(raw []byte) []policy.ReasonCode {
	if len(raw) == 0 {
		return nil
	}
	var serialized []string
	if err := json.Unmarshal(raw, &serialized); err != nil {
		return nil
	}
	out := make([]policy.ReasonCode, 0, len(serialized))
	for _, s := range serialized {
		out = append(out, policy.ReasonCode(trimPolicyPrefix(s)))
	}
	return out
}

const policyPrefix = "POLICY:"

func trimPolicyPrefix(s string) string {
	if len(s) > len(policyPrefix) && s[:len(policyPrefix)] == policyPrefix {
		return s[len(policyPrefix):]
	}
	return s
}

func serializeSignals(sig signals.Set) []string {
	keys := sig.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return out
}

func decodeSignalSet(raw []byte) signals.Set {
	if len(raw) == 0 {
		return signals.NewSet()
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return signals.NewSet()
	}
	out := signals.NewSet()
	for _, k := range keys {
		out.Add(signals.Key(k))
	}
	return out
}

func decodeAttrs(raw []byte) policy.Attrs {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make(policy.Attrs, len(m))
	for k, v := range m {
		out[policy.AttrKey(k)] = v
	}
	return out
}
