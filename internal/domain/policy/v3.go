package policy

import (
	"github.com/kalletarpila/swingmaster/internal/domain/dowtheory"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

// DecideV3 delegates to DecideV2 for state and reason codes, then applies
// the entry-gate override and updates state-attrs (spec.md §4.3 "V3
// additions", §4.4). Gate overrides never introduce new reason codes —
// only guardrail-added codes (e.g. MIN_STATE_AGE_LOCK) may still appear,
// since the gate's proposed transition is itself subject to the ordinary
// guardrail check.
func DecideV3(from State, age int, sig signals.Set, dowFacts dowtheory.Facts, history []DayRecord, prevAttrs Attrs) Decision {
	d, effective := DecideV2(from, age, sig, dowFacts, history)

	gate, quality := "", ""
	if from == Stabilizing {
		invalidated := effective.Has(signals.Invalidated)
		switch {
		case sig.Has(signals.MA20Reclaimed) && sig.Has(signals.HigherLowConfirmed) && !invalidated:
			gate, quality = "EARLY_STAB_MA20_HL", "A"
		case sig.Has(signals.MA20Reclaimed) && !sig.Has(signals.HigherLowConfirmed) && !invalidated:
			gate, quality = "EARLY_STAB_MA20", "B"
		}
		if gate != "" {
			next, reasons := ApplyGuardrails(from, EntryWindow, age, d.Reasons, false)
			d.NextState = next
			d.Reasons = reasons
			if d.Changed() {
				d.Age = 1
			} else {
				d.Age = age + 1
			}
		} else if d.Changed() && d.NextState == EntryWindow {
			gate, quality = "LEGACY_ENTRY_SETUP_VALID", "LEGACY"
		}
	}

	d.Attrs = updateAttrs(prevAttrs, from, d, effective, dowFacts, gate, quality)
	return d
}
