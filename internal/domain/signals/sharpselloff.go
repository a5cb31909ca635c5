package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalSharpSellOff implements SHARP_SELL_OFF_DETECTED (spec.md §4.1): a
// single-day or three-day move large relative to the ticker's own
// volatility (ATR14), rather than a fixed percentage threshold.
func evalSharpSellOff(v ohlc.View, cfg Config) Set {
	out := NewSet()
	closes := v.Closes(4)
	if len(closes) < 4 {
		return out
	}
	atr14, ok := v.ATR(0, cfg.ATRWindow)
	if !ok {
		return out
	}
	c0 := closes[0]
	if c0 == 0 {
		return out
	}
	atrPct := atr14 / c0
	oneDay := c0/closes[1] - 1
	threeDay := c0/closes[3] - 1
	if oneDay <= -2.5*atrPct || threeDay <= -3.5*atrPct {
		out.Add(SharpSellOffDetected)
	}
	return out
}
