package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalEntrySetupValid implements ENTRY_SETUP_VALID (spec.md §4.1). Two
// independent setups can qualify an entry: a tight base range with bounded
// low-drift, or a reclaim of MA20 after briefly dipping below it. Either
// way the candidate invalidation level must sit below today's close, the
// implied risk must be bounded by ATR (or, absent ATR, by a flat percent),
// and the last few closes must still be holding the invalidation level
// rather than grinding straight through it.
func evalEntrySetupValid(v ohlc.View, cfg Config) Set {
	out := NewSet()

	invalidation, ok := baseRangeSetup(v)
	if !ok {
		invalidation, ok = reclaimMA20Setup(v)
	}
	if !ok {
		return out
	}

	today, ok := v.At(0)
	if !ok {
		return out
	}
	entry := today.Close
	if entry <= invalidation {
		return out
	}

	atr14, atrOK := v.ATR(0, cfg.ATRWindow)
	if atrOK {
		if (entry-invalidation)/atr14 > 2.5 {
			return out
		}
	} else {
		if entry == 0 || (entry-invalidation)/entry > 0.06 {
			return out
		}
	}

	closes := v.Closes(3)
	if len(closes) < 3 {
		return out
	}
	for _, c := range closes {
		if c < invalidation*(1-0.003) {
			return out
		}
	}

	out.Add(EntrySetupValid)
	return out
}

// baseRangeSetup checks the tight-base path: a 10-day range no wider than
// 6% of today's close, with the recent half's low not drifting more than
// 0.3% below the earlier half's low. Returns the window low as the
// invalidation level.
func baseRangeSetup(v ohlc.View) (float64, bool) {
	if v.Len() < 10 {
		return 0, false
	}
	today, ok := v.At(0)
	if !ok || today.Close == 0 {
		return 0, false
	}
	maxHigh, minLow := today.High, today.Low
	minFirst, minSecond := -1.0, -1.0
	for i := 0; i < 10; i++ {
		r, ok := v.At(i)
		if !ok {
			return 0, false
		}
		if r.High > maxHigh {
			maxHigh = r.High
		}
		if r.Low < minLow {
			minLow = r.Low
		}
		if i <= 4 {
			if minSecond < 0 || r.Low < minSecond {
				minSecond = r.Low
			}
		} else {
			if minFirst < 0 || r.Low < minFirst {
				minFirst = r.Low
			}
		}
	}
	if (maxHigh-minLow)/today.Close > 0.06 {
		return 0, false
	}
	if minFirst < 0 || minSecond < minFirst*(1-0.003) {
		return 0, false
	}
	return minLow, true
}

// reclaimMA20Setup checks the MA20-reclaim path: yesterday at or below its
// SMA20, today back above it, with today's close sitting in the upper
// part of its own range. Returns min(lows[0..5]) as the invalidation
// level.
func reclaimMA20Setup(v ohlc.View) (float64, bool) {
	closes := v.Closes(2)
	if len(closes) < 2 {
		return 0, false
	}
	sma0, ok0 := v.SMA(0, 20)
	sma1, ok1 := v.SMA(1, 20)
	if !ok0 || !ok1 {
		return 0, false
	}
	if !(closes[1] <= sma1 && closes[0] > sma0) {
		return 0, false
	}
	today, ok := v.At(0)
	if !ok || today.High == today.Low {
		return 0, false
	}
	if (today.Close-today.Low)/(today.High-today.Low) < 0.55 {
		return 0, false
	}
	minLow := -1.0
	for i := 0; i <= 5; i++ {
		r, ok := v.At(i)
		if !ok {
			return 0, false
		}
		if minLow < 0 || r.Low < minLow {
			minLow = r.Low
		}
	}
	return minLow, true
}
