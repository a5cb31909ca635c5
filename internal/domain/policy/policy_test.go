package policy

import (
	"testing"

	"github.com/kalletarpila/swingmaster/internal/domain/dowtheory"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

func noDowFacts() dowtheory.Facts {
	return dowtheory.Facts{Signals: signals.NewSet()}
}

// Scenario A: trend-start entry (spec.md §8.A).
func TestScenarioA_TrendStartEntry(t *testing.T) {
	sig := signals.NewSet(signals.TrendStarted)
	d := DecideV3(NoTrade, 5, sig, noDowFacts(), nil, nil)
	if d.NextState != DowntrendEarly {
		t.Fatalf("expected DOWNTREND_EARLY, got %v (reasons %v)", d.NextState, d.Reasons)
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != ReasonTrendStarted {
		t.Fatalf("expected reasons [TREND_STARTED], got %v", d.Reasons)
	}
	if d.Attrs[AttrDowntrendOrigin] != "TREND" {
		t.Fatalf("expected downtrend_origin=TREND, got %v", d.Attrs[AttrDowntrendOrigin])
	}
	entryType, _ := d.Attrs[AttrDowntrendEntryType].(string)
	if entryType != "TREND_STRUCTURAL" && entryType != "TREND_SOFT" {
		t.Fatalf("expected downtrend_entry_type in {TREND_STRUCTURAL,TREND_SOFT}, got %v", entryType)
	}
}

// Scenario B: guardrail lock (spec.md §8.B).
func TestScenarioB_GuardrailLock(t *testing.T) {
	sig := signals.NewSet(signals.StabilizationConfirmed)
	d := DecideV3(DowntrendEarly, 1, sig, noDowFacts(), nil, nil)
	if d.NextState != DowntrendEarly {
		t.Fatalf("expected stay in DOWNTREND_EARLY, got %v", d.NextState)
	}
	found := false
	for _, r := range d.Reasons {
		if r == ReasonMinStateAgeLock {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected MIN_STATE_AGE_LOCK among reasons, got %v", d.Reasons)
	}
}

// Scenario C: invalidation in stabilizing (spec.md §8.C), via v2-injected
// INVALIDATED from DOW_NEW_LL.
func TestScenarioC_InvalidationInStabilizing(t *testing.T) {
	sig := signals.NewSet(signals.EntrySetupValid, signals.StabilizationConfirmed)
	dow := dowtheory.Facts{Signals: signals.NewSet(signals.DowNewLL)}
	d := DecideV3(Stabilizing, 4, sig, dow, nil, nil)
	if d.NextState != NoTrade {
		t.Fatalf("expected NO_TRADE, got %v (reasons %v)", d.NextState, d.Reasons)
	}
	found := false
	for _, r := range d.Reasons {
		if r == ReasonInvalidated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected INVALIDATED among reasons, got %v", d.Reasons)
	}
	if d.Attrs[AttrStabilizationPhase] != "EARLY_STABILIZATION" {
		t.Fatalf("expected stabilization_phase forced to EARLY_STABILIZATION, got %v", d.Attrs[AttrStabilizationPhase])
	}
}

// Scenario D: V3 gate A (spec.md §8.D).
func TestScenarioD_GateA(t *testing.T) {
	sig := signals.NewSet(signals.MA20Reclaimed, signals.HigherLowConfirmed)
	d := DecideV3(Stabilizing, 3, sig, noDowFacts(), nil, nil)
	if d.NextState != EntryWindow {
		t.Fatalf("expected ENTRY_WINDOW, got %v", d.NextState)
	}
	if d.Attrs[AttrEntryGate] != "EARLY_STAB_MA20_HL" || d.Attrs[AttrEntryQuality] != "A" {
		t.Fatalf("expected gate A attrs, got %v", d.Attrs)
	}
}

// Scenario E: edge-gone in ENTRY_WINDOW (spec.md §8.E).
func TestScenarioE_EdgeGoneInEntryWindow(t *testing.T) {
	sig := signals.NewSet()
	d := DecideV3(EntryWindow, 9, sig, noDowFacts(), nil, nil)
	if d.NextState != Pass {
		t.Fatalf("expected PASS, got %v", d.NextState)
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != ReasonEdgeGone {
		t.Fatalf("expected reasons [EDGE_GONE], got %v", d.Reasons)
	}
}

// Invariant 1: every emitted transition's target is in allowed_edges.
func TestInvariant_DisallowedTransitionBlocked(t *testing.T) {
	if Reachable(Pass, Stabilizing) {
		t.Fatal("PASS -> STABILIZING should not be reachable")
	}
}

// Invariant 4: age semantics.
func TestInvariant_AgeSemantics(t *testing.T) {
	sig := signals.NewSet()
	d := DecideV3(NoTrade, 5, sig, noDowFacts(), nil, nil)
	if d.NextState != NoTrade {
		t.Fatalf("expected stay in NO_TRADE, got %v", d.NextState)
	}
	if d.Age != 6 {
		t.Fatalf("expected age to increment to 6 on stay, got %d", d.Age)
	}

	d2 := DecideV3(NoTrade, 5, signals.NewSet(signals.TrendStarted), noDowFacts(), nil, nil)
	if d2.Age != 1 {
		t.Fatalf("expected age reset to 1 on state change, got %d", d2.Age)
	}
}

// Invariant 2: non-neutral state change always carries at least one reason.
func TestInvariant_NonEmptyReasonsOnChange(t *testing.T) {
	d := DecideV3(Pass, 1, signals.NewSet(), noDowFacts(), nil, nil)
	if len(d.Reasons) == 0 {
		t.Fatal("expected non-empty reasons on PASS -> NO_TRADE")
	}
}

func TestDecideV1_Fallback_NoSignal(t *testing.T) {
	d := DecideV1(NoTrade, 0, signals.NewSet(), nil)
	if d.NextState != NoTrade || len(d.Reasons) != 1 || d.Reasons[0] != ReasonNoSignal {
		t.Fatalf("expected NO_TRADE stay with NO_SIGNAL, got %v %v", d.NextState, d.Reasons)
	}
}
