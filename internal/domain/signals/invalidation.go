package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalInvalidated implements INVALIDATED (spec.md §4.1): today's low
// undercuts every low in the prior invalidation_lookback window. The
// provider (not this function) is responsible for the same-day
// suppression of STABILIZATION_CONFIRMED and ENTRY_SETUP_VALID once this
// fires, per the SignalSet invariant in spec.md §3.
func evalInvalidated(v ohlc.View, cfg Config) Set {
	out := NewSet()
	lookback := cfg.InvalidationLookback
	today, ok := v.At(0)
	if !ok {
		return out
	}
	minPrior := -1.0
	for i := 1; i <= lookback; i++ {
		r, ok := v.At(i)
		if !ok {
			return out
		}
		if minPrior < 0 || r.Low < minPrior {
			minPrior = r.Low
		}
	}
	if minPrior < 0 {
		return out
	}
	if today.Low < minPrior {
		out.Add(Invalidated)
	}
	return out
}
