// Package policy implements the layered v1→v2→v3 transition policy from
// spec.md §4.2–§4.4: the transition graph and guardrails, the per-state
// decision rules, and the state-attrs metadata merger. Each layer is a
// pipeline stage that takes and returns a Decision, per spec.md §9.
package policy

import (
	"sort"

	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

// State is one of the closed lifecycle states (spec.md §3).
type State string

const (
	NoTrade        State = "NO_TRADE"
	DowntrendEarly State = "DOWNTREND_EARLY"
	DowntrendLate  State = "DOWNTREND_LATE"
	Stabilizing    State = "STABILIZING"
	EntryWindow    State = "ENTRY_WINDOW"
	Pass           State = "PASS"
)

// ReasonCode is one of the closed reason codes (spec.md §6.2), persisted
// with prefix "POLICY:".
type ReasonCode string

const (
	ReasonSlowDeclineStarted     ReasonCode = "SLOW_DECLINE_STARTED"
	ReasonTrendStarted           ReasonCode = "TREND_STARTED"
	ReasonTrendMatured           ReasonCode = "TREND_MATURED"
	ReasonSellingPressureEased   ReasonCode = "SELLING_PRESSURE_EASED"
	ReasonStabilizationConfirmed ReasonCode = "STABILIZATION_CONFIRMED"
	ReasonEntryConditionsMet     ReasonCode = "ENTRY_CONDITIONS_MET"
	ReasonEdgeGone               ReasonCode = "EDGE_GONE"
	ReasonInvalidated            ReasonCode = "INVALIDATED"
	ReasonInvalidationBlocked    ReasonCode = "INVALIDATION_BLOCKED_BY_LOCK"
	ReasonDisallowedTransition   ReasonCode = "DISALLOWED_TRANSITION"
	ReasonPassCompleted          ReasonCode = "PASS_COMPLETED"
	ReasonEntryWindowCompleted   ReasonCode = "ENTRY_WINDOW_COMPLETED"
	ReasonResetToNeutral         ReasonCode = "RESET_TO_NEUTRAL"
	ReasonChurnGuard             ReasonCode = "CHURN_GUARD"
	ReasonMinStateAgeLock        ReasonCode = "MIN_STATE_AGE_LOCK"
	ReasonDataInsufficient       ReasonCode = "DATA_INSUFFICIENT"
	ReasonNoSignal               ReasonCode = "NO_SIGNAL"
)

// Serialize returns the persisted form "POLICY:<ReasonCode>" (spec.md §6.2).
func (r ReasonCode) Serialize() string { return "POLICY:" + string(r) }

// AttrKey is one of the closed state-attrs status keys (spec.md §3/§4.4).
type AttrKey string

const (
	AttrDowntrendOrigin           AttrKey = "downtrend_origin"
	AttrDowntrendEntryType        AttrKey = "downtrend_entry_type"
	AttrDeclineProfile            AttrKey = "decline_profile"
	AttrStabilizationPhase        AttrKey = "stabilization_phase"
	AttrEntryGate                 AttrKey = "entry_gate"
	AttrEntryQuality              AttrKey = "entry_quality"
	AttrEntryContinuationConfirmed AttrKey = "entry_continuation_confirmed"
)

// closedAttrKeys is the full closed set; any other key is an invariant
// violation (spec.md §7).
var closedAttrKeys = map[AttrKey]struct{}{
	AttrDowntrendOrigin:            {},
	AttrDowntrendEntryType:         {},
	AttrDeclineProfile:             {},
	AttrStabilizationPhase:         {},
	AttrEntryGate:                  {},
	AttrEntryQuality:               {},
	AttrEntryContinuationConfirmed: {},
}

// Attrs is the state-attrs status mapping (spec.md §3). Values are stored
// as `any` because entry_continuation_confirmed is boolean while the rest
// are strings; absent/null keys are omitted entirely (never stored as an
// explicit null), per the merge rule in spec.md §4.4.
type Attrs map[AttrKey]any

// Clone returns a shallow copy of a.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// SortedKeys returns a's keys in lexicographic order, stabilizing
// serialized row bytes for idempotence tests (spec.md §9).
func (a Attrs) SortedKeys() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// Decision is the policy's output for one evaluation: next state, ordered
// reason codes, and merged attrs. Each layer (v1/v2/v3) takes and returns
// a Decision, per spec.md §9.
type Decision struct {
	FromState State
	NextState State
	Reasons   []ReasonCode
	Attrs     Attrs

	// Age is the StateDaily row's age field: 1 on state change, prev+1 on
	// stay (spec.md §3/§8 invariant 4).
	Age int
}

// AddReason appends a reason code if not already present (reasons lists
// never contain duplicates in this implementation, though spec.md does
// not require de-duplication explicitly; de-duplication keeps byte-
// identical re-run output simpler to reason about).
func (d *Decision) AddReason(r ReasonCode) {
	for _, existing := range d.Reasons {
		if existing == r {
			return
		}
	}
	d.Reasons = append(d.Reasons, r)
}

// Changed reports whether NextState differs from FromState.
func (d Decision) Changed() bool { return d.NextState != d.FromState }

// DayRecord is one day of a ticker's persisted history, the minimal shape
// the policy needs to evaluate helpers that look back across days
// (CHURN_GUARD, EDGE_GONE day-counts, ENTRY_CONDITIONS_MET freshness,
// RESET_TO_NEUTRAL silent-decay).
type DayRecord struct {
	State   State
	Reasons []ReasonCode
	Signals signals.Set
	Attrs   Attrs
}
