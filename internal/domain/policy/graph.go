package policy

// allowedEdges is the transition graph from spec.md §4.2. Self-edges are
// always allowed except where the table explicitly omits them (none do
// here — every state may stay).
var allowedEdges = map[State]map[State]struct{}{
	NoTrade: {
		NoTrade:        {},
		DowntrendEarly: {},
	},
	DowntrendEarly: {
		DowntrendEarly: {},
		DowntrendLate:  {},
		Stabilizing:    {},
		NoTrade:        {},
	},
	DowntrendLate: {
		DowntrendLate: {},
		Stabilizing:   {},
		NoTrade:       {},
	},
	Stabilizing: {
		Stabilizing: {},
		EntryWindow: {},
		NoTrade:     {},
	},
	EntryWindow: {
		EntryWindow: {},
		Pass:        {},
		NoTrade:     {},
	},
	Pass: {
		Pass:    {},
		NoTrade: {},
	},
}

// minStateAge is MIN_STATE_AGE from spec.md §4.2.
var minStateAge = map[State]int{
	NoTrade:        0,
	DowntrendEarly: 2,
	DowntrendLate:  3,
	Stabilizing:    2,
	EntryWindow:    1,
	Pass:           1,
}

// Reachable reports whether to is an allowed transition target from from.
func Reachable(from, to State) bool {
	edges, ok := allowedEdges[from]
	if !ok {
		return false
	}
	_, ok = edges[to]
	return ok
}

// ApplyGuardrails enforces spec.md §4.2 on a proposed transition: an
// unreachable target is overridden to a stay with DISALLOWED_TRANSITION;
// a reachable state change proposed before MIN_STATE_AGE is satisfied is
// overridden to a stay with MIN_STATE_AGE_LOCK, except that an INVALIDATED
// promotion blocked this way is tagged INVALIDATION_BLOCKED_BY_LOCK
// instead so the caller can distinguish a blocked invalidation from an
// ordinary locked transition.
func ApplyGuardrails(from, to State, age int, reasons []ReasonCode, isInvalidationPromotion bool) (State, []ReasonCode) {
	if !Reachable(from, to) {
		return from, append(append([]ReasonCode(nil), reasons...), ReasonDisallowedTransition)
	}
	if to != from && age < minStateAge[from] {
		if isInvalidationPromotion {
			return from, append(append([]ReasonCode(nil), reasons...), ReasonInvalidationBlocked)
		}
		return from, append(append([]ReasonCode(nil), reasons...), ReasonMinStateAgeLock)
	}
	return to, reasons
}
