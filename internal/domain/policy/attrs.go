package policy

import (
	"github.com/kalletarpila/swingmaster/internal/domain/dowtheory"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

// updateAttrs applies the state-attrs merge from spec.md §4.4, in the
// defined order: downtrend_origin, downtrend_entry_type, decline_profile,
// stabilization_phase, entry_gate/entry_quality. entry_continuation_confirmed
// is computed separately by the orchestration layer once 5 forward
// trading days exist (spec.md §4.4 final bullet) — see
// ComputeEntryContinuationConfirmed.
func updateAttrs(prev Attrs, from State, d Decision, sig signals.Set, dowFacts dowtheory.Facts, gate, quality string) Attrs {
	out := prev.Clone()
	if out == nil {
		out = Attrs{}
	}

	if from == NoTrade && d.NextState == DowntrendEarly {
		switch {
		case sig.Has(signals.TrendStarted):
			out[AttrDowntrendOrigin] = "TREND"
		case sig.Has(signals.SlowDeclineStarted):
			out[AttrDowntrendOrigin] = "SLOW"
		}

		if _, set := out[AttrDowntrendEntryType]; !set {
			origin := "UNKNOWN"
			switch {
			case sig.Has(signals.SlowDeclineStarted):
				origin = "SLOW"
			case sig.Has(signals.TrendStarted):
				origin = "TREND"
			}
			structural := sig.HasAny(signals.StructuralDowntrendDetected, signals.DowBosBreakDown) ||
				dowFacts.Signals.HasAny(signals.DowTrendDown, signals.DowNewLL, signals.DowBosBreakDown)

			var value string
			switch {
			case origin == "SLOW" && structural:
				value = "SLOW_STRUCTURAL"
			case origin == "SLOW":
				value = "SLOW_SOFT"
			case origin == "TREND" && structural:
				value = "TREND_STRUCTURAL"
			case origin == "TREND":
				value = "TREND_SOFT"
			default:
				value = "UNKNOWN"
			}
			out[AttrDowntrendEntryType] = value
		}
	}

	declineProfile := "UNKNOWN"
	switch {
	case sig.Has(signals.SlowDriftDetected):
		declineProfile = "SLOW_DRIFT"
	case sig.Has(signals.SharpSellOffDetected):
		declineProfile = "SHARP_SELL_OFF"
	case sig.HasAny(signals.StructuralDowntrendDetected, signals.TrendMatured) || dowFacts.Signals.Has(signals.DowTrendDown):
		declineProfile = "STRUCTURAL_DOWNTREND"
	}
	if existing, ok := out[AttrDeclineProfile]; ok {
		existingStr, _ := existing.(string)
		if existingStr != "UNKNOWN" && declineProfile == "UNKNOWN" {
			// specific -> UNKNOWN forbidden; preserve.
		} else if existingStr != "UNKNOWN" && declineProfile != existingStr {
			// specific -> different specific not allowed by monotonicity; preserve.
		} else {
			out[AttrDeclineProfile] = declineProfile
		}
	} else {
		out[AttrDeclineProfile] = declineProfile
	}

	switch d.NextState {
	case Stabilizing:
		switch {
		case sig.Has(signals.EntrySetupValid) && !sig.Has(signals.Invalidated):
			out[AttrStabilizationPhase] = "EARLY_REVERSAL"
		case sig.Has(signals.StabilizationConfirmed) && sig.Has(signals.VolatilityCompressionDetected) && !sig.Has(signals.Invalidated):
			out[AttrStabilizationPhase] = "BASE_BUILDING"
		default:
			out[AttrStabilizationPhase] = "EARLY_STABILIZATION"
		}
	case EntryWindow:
		out[AttrStabilizationPhase] = "EARLY_REVERSAL"
	}
	if from == Stabilizing && sig.Has(signals.EntrySetupValid) && sig.Has(signals.Invalidated) && d.NextState == NoTrade {
		out[AttrStabilizationPhase] = "EARLY_STABILIZATION"
	}

	if gate != "" {
		out[AttrEntryGate] = gate
		out[AttrEntryQuality] = quality
	}

	for k, v := range out {
		if v == nil || v == "" {
			delete(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ComputeEntryContinuationConfirmed implements spec.md §4.4's final
// bullet: range/backtest-only, computed once 5 forward trading days from
// an ENTRY_WINDOW start exist. closesFwd1to5 are the 5 closing prices on
// fwd_idx=1..5; sma5Fwd1to5 are the corresponding rolling SMA5(close)
// values, with definedFwd1to5[i] false where SMA5 is undefined
// (insufficient history); such days are not counted.
func ComputeEntryContinuationConfirmed(closesFwd1to5 [5]float64, sma5Fwd1to5 [5]float64, definedFwd1to5 [5]bool) bool {
	above := 0
	for i := 0; i < 5; i++ {
		if !definedFwd1to5[i] {
			continue
		}
		if closesFwd1to5[i] > sma5Fwd1to5[i] {
			above++
		}
	}
	return above >= 3
}
