package policy

import (
	"github.com/kalletarpila/swingmaster/internal/domain/dowtheory"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

// DecideV2 post-processes DecideV1's output (spec.md §4.3 "V2 additions"):
// it injects INVALIDATED ahead of the v1 pass when Dow facts show a new
// lower low while in STABILIZING/ENTRY_WINDOW, permits a DOWNTREND_EARLY
// entry on SLOW_DECLINE_STARTED when v1's fallback produced no signal at
// all, and retains a TREND_STARTED reason on a no-op STABILIZING stay.
func DecideV2(from State, age int, sig signals.Set, dowFacts dowtheory.Facts, history []DayRecord) (Decision, signals.Set) {
	sigV2 := sig.Clone()
	if (from == Stabilizing || from == EntryWindow) && dowFacts.Signals.Has(signals.DowNewLL) {
		sigV2.Add(signals.Invalidated)
	}

	d := DecideV1(from, age, sigV2, history)

	if from == NoTrade && !d.Changed() && hasOnlyReason(d, ReasonNoSignal) &&
		sig.Has(signals.SlowDeclineStarted) && !dowFacts.Signals.Has(signals.DowTrendUp) {
		d.NextState = DowntrendEarly
		d.Reasons = []ReasonCode{ReasonSlowDeclineStarted}
		next, reasons := ApplyGuardrails(from, d.NextState, age, d.Reasons, false)
		d.NextState = next
		d.Reasons = reasons
		if d.Changed() {
			d.Age = 1
		} else {
			d.Age = age + 1
		}
	}

	if from == Stabilizing && !d.Changed() && sig.Has(signals.TrendStarted) {
		d.AddReason(ReasonTrendStarted)
	}

	return d, sigV2
}

func hasOnlyReason(d Decision, r ReasonCode) bool {
	return len(d.Reasons) == 1 && d.Reasons[0] == r
}
