package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalSellingPressureEased implements SELLING_PRESSURE_EASED. spec.md §4.1
// enumerates every other primary rule's exact formula but omits this one's;
// it only appears as a named SignalKey (§6.1) and as an alternative trigger
// alongside STABILIZATION_CONFIRMED for the DOWNTREND_EARLY/LATE →
// STABILIZING transition (§4.3). Reverse-engineered here (see DESIGN.md) by
// reusing the ATR already computed for SHARP_SELL_OFF_DETECTED/
// VOLATILITY_COMPRESSION_DETECTED: true range, scaled by today's ATR, has
// shrunk strictly day over day across the last three days, and today's low
// is not below either of the two prior days' lows — the same "pressure is easing" reading used informally in
// the glossary's Sweep description.
func evalSellingPressureEased(v ohlc.View, cfg Config) Set {
	out := NewSet()
	atr, ok := v.ATR(0, cfg.ATRWindow)
	if !ok || atr == 0 {
		return out
	}

	var trPct [3]float64
	for o := 0; o < 3; o++ {
		tr, ok := v.TrueRange(o)
		if !ok {
			return out
		}
		trPct[o] = tr / atr
	}

	row0, ok0 := v.At(0)
	row1, ok1 := v.At(1)
	row2, ok2 := v.At(2)
	if !ok0 || !ok1 || !ok2 {
		return out
	}

	shrinking := trPct[0] < trPct[1] && trPct[1] < trPct[2]
	noNewLow := row0.Low >= row1.Low && row0.Low >= row2.Low
	if shrinking && noNewLow {
		out.Add(SellingPressureEased)
	}
	return out
}
