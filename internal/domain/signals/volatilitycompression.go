package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalVolatilityCompression implements VOLATILITY_COMPRESSION_DETECTED
// (spec.md §4.1): today's ATR-relative-to-price is both lower than two
// reference points further back (offsets 5 and 10) and at most 75% of its
// highest value over the last 20 days, signaling a base is forming.
func evalVolatilityCompression(v ohlc.View, cfg Config) Set {
	out := NewSet()
	const lookback = 20
	if v.Len() < (lookback-1)+cfg.ATRWindow+1 {
		return out
	}
	atrPct := make([]float64, lookback)
	for o := 0; o < lookback; o++ {
		atr, ok := v.ATR(o, cfg.ATRWindow)
		if !ok {
			return out
		}
		row, ok := v.At(o)
		if !ok || row.Close == 0 {
			return out
		}
		atrPct[o] = atr / row.Close
	}
	maxPct := atrPct[0]
	for _, p := range atrPct {
		if p > maxPct {
			maxPct = p
		}
	}
	if atrPct[0] < atrPct[5] && atrPct[0] < atrPct[10] && atrPct[0] <= 0.75*maxPct {
		out.Add(VolatilityCompressionDetected)
	}
	return out
}
