package policy

import "github.com/kalletarpila/swingmaster/internal/domain/signals"

// Tunables named in spec.md §4.3 but whose exact values are reverse-
// engineered Open Question decisions; see DESIGN.md.
const (
	churnLookbackDays       = 10
	silentDecayDays         = 15
	stabRecencyDays         = 10
	setupFreshDays          = 5
	edgeGoneEntryWindowDays = 9
	edgeGoneStabilizingDays = 20
	recentEntrySetupWindow  = 10
)

// DecideV1 implements the base layer: hard exclusions, helpers in
// priority, per-state rules, and the NO_SIGNAL fallback (spec.md §4.3).
// history is ordered most-recent-first (history[0] is yesterday).
func DecideV1(from State, age int, sig signals.Set, history []DayRecord) Decision {
	base := Decision{FromState: from, NextState: from, Age: age}

	// Hard exclusions (DATA_INSUFFICIENT > INVALIDATED).
	if sig.Has(signals.DataInsufficient) {
		base.NextState = NoTrade
		base.AddReason(ReasonDataInsufficient)
		return finalizeV1(base, false)
	}
	if sig.Has(signals.Invalidated) {
		base.NextState = NoTrade
		base.AddReason(ReasonInvalidated)
		return finalizeV1(base, true)
	}

	// Helper 1: EDGE_GONE.
	if from == EntryWindow && age >= edgeGoneEntryWindowDays {
		base.NextState = Pass
		base.AddReason(ReasonEdgeGone)
		return finalizeV1(base, false)
	}
	if from == Stabilizing && age >= edgeGoneStabilizingDays && !recentEntrySetupValid(history, recentEntrySetupWindow) {
		base.NextState = NoTrade
		base.AddReason(ReasonEdgeGone)
		return finalizeV1(base, false)
	}

	// Candidate from the per-state rule table, used by CHURN_GUARD below
	// and returned as-is if no later helper overrides it.
	candidate, candidateReason, fired := perStateCandidate(from, sig)

	// Helper 2: CHURN_GUARD — see DESIGN.md for the reverse-engineered
	// lookback/trigger semantics.
	if fired && candidate != from && candidate != Pass && candidate != NoTrade && recentlyVisited(history, candidate, churnLookbackDays) {
		base.NextState = from
		base.AddReason(ReasonChurnGuard)
		return finalizeV1(base, false)
	}

	// Helper 3: ENTRY_CONDITIONS_MET.
	if from == Stabilizing && !sig.HasAny(signals.EdgeGone, signals.NoSignal, signals.TrendStarted, signals.TrendMatured) {
		if entryConditionsMet(sig, history) {
			base.NextState = EntryWindow
			base.AddReason(ReasonEntryConditionsMet)
			return finalizeV1(base, false)
		}
	}

	// Helper 4: RESET_TO_NEUTRAL — see DESIGN.md for the reverse-
	// engineered silent-decay condition.
	if silentDecay(from, history) {
		base.NextState = NoTrade
		base.AddReason(ReasonResetToNeutral)
		return finalizeV1(base, false)
	}

	if fired {
		base.NextState = candidate
		base.AddReason(candidateReason)
		return finalizeV1(base, false)
	}

	base.NextState = from
	base.AddReason(ReasonNoSignal)
	return finalizeV1(base, false)
}

func finalizeV1(d Decision, isInvalidationPromotion bool) Decision {
	next, reasons := ApplyGuardrails(d.FromState, d.NextState, d.Age, d.Reasons, isInvalidationPromotion)
	d.NextState = next
	d.Reasons = reasons
	if d.Changed() {
		d.Age = 1
	} else {
		d.Age = d.Age + 1
	}
	return d
}

// perStateCandidate implements the per-state rule table (spec.md §4.3),
// evaluated only when no earlier helper fired.
func perStateCandidate(from State, sig signals.Set) (State, ReasonCode, bool) {
	switch from {
	case NoTrade:
		if sig.Has(signals.TrendStarted) {
			return DowntrendEarly, ReasonTrendStarted, true
		}
	case DowntrendEarly:
		if sig.Has(signals.TrendMatured) {
			return DowntrendLate, ReasonTrendMatured, true
		}
		if sig.Has(signals.StabilizationConfirmed) {
			return Stabilizing, ReasonStabilizationConfirmed, true
		}
		if sig.Has(signals.SellingPressureEased) {
			return Stabilizing, ReasonSellingPressureEased, true
		}
	case DowntrendLate:
		if sig.Has(signals.StabilizationConfirmed) {
			return Stabilizing, ReasonStabilizationConfirmed, true
		}
		if sig.Has(signals.SellingPressureEased) {
			return Stabilizing, ReasonSellingPressureEased, true
		}
	case Stabilizing:
		if sig.Has(signals.StabilizationConfirmed) {
			return Stabilizing, ReasonStabilizationConfirmed, true
		}
	case EntryWindow:
		if !sig.Has(signals.EntrySetupValid) {
			return Pass, ReasonEntryWindowCompleted, true
		}
	case Pass:
		return NoTrade, ReasonPassCompleted, true
	}
	return from, "", false
}

func recentlyVisited(history []DayRecord, state State, lookbackDays int) bool {
	n := lookbackDays
	if n > len(history) {
		n = len(history)
	}
	for i := 0; i < n; i++ {
		if history[i].State == state {
			return true
		}
	}
	return false
}

func recentEntrySetupValid(history []DayRecord, lookbackDays int) bool {
	n := lookbackDays
	if n > len(history) {
		n = len(history)
	}
	for i := 0; i < n; i++ {
		if history[i].Signals.Has(signals.EntrySetupValid) {
			return true
		}
	}
	return false
}

func recentState(history []DayRecord, state State, lookbackDays int) bool {
	return recentlyVisited(history, state, lookbackDays)
}

// entryConditionsMet implements helper 3 (spec.md §4.3): requires current
// ENTRY_SETUP_VALID, stabilization context (same-day STABILIZATION_CONFIRMED
// or, with history, one within STAB_RECENCY_DAYS), and setup freshness
// (with history: ENTRY_SETUP_VALID within SETUP_FRESH_DAYS; without
// history: a recent ENTRY_WINDOW state within the same lookback).
func entryConditionsMet(sig signals.Set, history []DayRecord) bool {
	if !sig.Has(signals.EntrySetupValid) {
		return false
	}
	stabilizationOK := sig.Has(signals.StabilizationConfirmed)
	if !stabilizationOK && len(history) > 0 {
		stabilizationOK = recentSignal(history, signals.StabilizationConfirmed, stabRecencyDays)
	}
	if !stabilizationOK {
		return false
	}
	if len(history) > 0 {
		return recentSignal(history, signals.EntrySetupValid, setupFreshDays) || recentState(history, EntryWindow, setupFreshDays)
	}
	return recentState(history, EntryWindow, stabRecencyDays)
}

func recentSignal(history []DayRecord, key signals.Key, lookbackDays int) bool {
	n := lookbackDays
	if n > len(history) {
		n = len(history)
	}
	for i := 0; i < n; i++ {
		if history[i].Signals.Has(key) {
			return true
		}
	}
	return false
}

// silentDecay implements helper 4's RESET_TO_NEUTRAL condition (spec.md
// §4.3, §9 open question): the fallback NO_SIGNAL reason has been the
// outcome for SILENT_DECAY_DAYS consecutive days while in a downtrend or
// stabilizing state. See DESIGN.md for the reverse-engineered choice of
// condition.
func silentDecay(from State, history []DayRecord) bool {
	if from != DowntrendEarly && from != DowntrendLate && from != Stabilizing {
		return false
	}
	if len(history) < silentDecayDays {
		return false
	}
	for i := 0; i < silentDecayDays; i++ {
		hasNoSignal := false
		for _, r := range history[i].Reasons {
			if r == ReasonNoSignal {
				hasNoSignal = true
				break
			}
		}
		if !hasNoSignal {
			return false
		}
	}
	return true
}
