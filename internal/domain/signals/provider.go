package signals

import (
	"github.com/kalletarpila/swingmaster/internal/domain/dowtheory"
	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

// Result is the provider's output: the derived signal set plus a
// provenance note for diagnostics (never fatal, never part of the
// decision itself).
type Result struct {
	Signals  Set
	DowFacts dowtheory.Facts
	Note     string
}

// Evaluate orchestrates every signal module over window, enforcing the
// required-rows precondition from spec.md §4.1 before running any rule.
// It never returns an error: an unmet precondition degrades to a signal
// set containing only DATA_INSUFFICIENT, per spec.md §4.1 ("fails by
// emitting DATA_INSUFFICIENT, never throws").
func Evaluate(v ohlc.View, cfg Config, asOfDate, latestRowDate string) Result {
	if err := ohlc.RequiredRowsPrecondition(v, cfg.RequiredRows()); err != nil {
		return Result{Signals: NewSet(DataInsufficient), Note: err.Error()}
	}
	if cfg.RequireRowOnDate && latestRowDate != "" && latestRowDate != asOfDate {
		return Result{Signals: NewSet(DataInsufficient), Note: "latest row date does not match as-of date"}
	}

	dowFacts := dowtheory.Analyze(v, cfg.DowWindow)

	out := NewSet()
	merge := func(s Set) {
		for k := range s {
			out.Add(k)
		}
	}
	merge(dowFacts.Signals)
	merge(evalSlowDrift(v, cfg))
	merge(evalSharpSellOff(v, cfg))
	merge(evalVolatilityCompression(v, cfg))
	merge(evalMA20Reclaim(v, cfg))
	merge(evalStructuralDowntrend(v, dowFacts.Signals))
	merge(evalTrendStarted(v, cfg, dowFacts.Signals))
	merge(evalTrendMatured(v, cfg))
	merge(evalSellingPressureEased(v, cfg))
	merge(evalStabilizationConfirmed(v, cfg))
	merge(evalEntrySetupValid(v, cfg))
	merge(evalInvalidated(v, cfg))

	// Derived signals.
	if dowFacts.Signals.Has(DowLastLowHL) {
		out.Add(HigherLowConfirmed)
	}
	if dowFacts.Signals.Has(DowBosBreakUp) {
		out.Add(StructureBreakoutUpConfirmed)
	}

	// INVALIDATED suppresses same-day STABILIZATION_CONFIRMED and
	// ENTRY_SETUP_VALID (spec.md §3 invariant, enforced here as a pure
	// set operation per spec.md §9).
	if out.Has(Invalidated) {
		out.Remove(StabilizationConfirmed)
		out.Remove(EntrySetupValid)
	}

	primaryFired := out.HasAny(
		SlowDriftDetected, SharpSellOffDetected, StructuralDowntrendDetected,
		VolatilityCompressionDetected, MA20Reclaimed, TrendStarted, TrendMatured,
		SellingPressureEased, StabilizationConfirmed, EntrySetupValid,
	)
	if !primaryFired && !out.Has(Invalidated) {
		out.Add(NoSignal)
	}

	return Result{Signals: out, DowFacts: dowFacts, Note: "ok"}
}
