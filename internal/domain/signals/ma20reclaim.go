package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalMA20Reclaim implements MA20_RECLAIMED (spec.md §4.1): yesterday's
// close was at or below its own 20-day SMA, today's close is above its
// 20-day SMA — a one-day reclaim cross, not a sustained-above condition.
func evalMA20Reclaim(v ohlc.View, _ Config) Set {
	out := NewSet()
	closes := v.Closes(21)
	if len(closes) < 21 {
		return out
	}
	for _, c := range closes {
		if c <= 0 {
			return out
		}
	}
	smaT0, ok0 := v.SMA(0, 20)
	smaT1, ok1 := v.SMA(1, 20)
	if !ok0 || !ok1 {
		return out
	}
	if closes[0] > smaT0 && closes[1] <= smaT1 {
		out.Add(MA20Reclaimed)
	}
	return out
}
