package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalStructuralDowntrend implements STRUCTURAL_DOWNTREND_DETECTED
// (spec.md §4.1). The primary path defers to the Dow-structure analyzer's
// facts (DOW_TREND_DOWN or DOW_NEW_LL); the fallback re-derives a coarse
// 1-step pivot sequence directly from the last 30 closes when Dow facts
// don't already confirm it, so the signal still fires on series too short
// or too choppy for the full pivot analyzer to find two-sided pivots.
func evalStructuralDowntrend(v ohlc.View, dowFacts Set) Set {
	out := NewSet()
	if dowFacts.Has(DowTrendDown) || dowFacts.Has(DowNewLL) {
		out.Add(StructuralDowntrendDetected)
		return out
	}

	const lookback = 30
	closes := v.Closes(lookback)
	if len(closes) < lookback {
		return out
	}
	// closes[0] is latest; walk chronologically (oldest first) to find
	// 1-step pivots (a point strictly below/above both neighbors).
	chron := make([]float64, len(closes))
	for i, c := range closes {
		chron[len(closes)-1-i] = c
	}
	var highs, lows []float64
	for i := 1; i < len(chron)-1; i++ {
		if chron[i] > chron[i-1] && chron[i] > chron[i+1] {
			highs = append(highs, chron[i])
		}
		if chron[i] < chron[i-1] && chron[i] < chron[i+1] {
			lows = append(lows, chron[i])
		}
	}
	if len(highs) >= 2 && len(lows) >= 2 {
		hn := len(highs)
		ln := len(lows)
		descendingHighs := highs[hn-1] < highs[hn-2]
		descendingLows := lows[ln-1] < lows[ln-2]
		if descendingHighs && descendingLows {
			out.Add(StructuralDowntrendDetected)
		}
	}
	return out
}
