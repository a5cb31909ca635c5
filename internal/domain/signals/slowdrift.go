package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalSlowDrift implements SLOW_DRIFT_DETECTED (spec.md §4.1): a slow,
// monotone decline confirmed by both moving averages and a minimum total
// drawdown, distinct from SHARP_SELL_OFF_DETECTED's single/three-day shock.
// When it fires, the legacy SLOW_DECLINE_STARTED key is emitted alongside
// it (kept for policy rules that still key off the old name).
func evalSlowDrift(v ohlc.View, _ Config) Set {
	out := NewSet()
	closes := v.Closes(11)
	if len(closes) < 11 {
		return out
	}
	c0, c2, c5, c10 := closes[0], closes[2], closes[5], closes[10]
	if !(c10 > c5 && c5 > c2 && c2 > c0) {
		return out
	}
	if c0/c10-1 > -0.03 {
		return out
	}
	ma5, ok5 := v.SMA(0, 5)
	ma10, ok10 := v.SMA(0, 10)
	if !ok5 || !ok10 {
		return out
	}
	if !(ma5 < ma10 && c0 < ma10) {
		return out
	}
	out.Add(SlowDriftDetected)
	out.Add(SlowDeclineStarted)
	return out
}
