package signals

import (
	"math"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

// isNewLow reports whether the close at offset undercuts the minimum of
// the prior `priorN` closes (offsets offset+1..offset+priorN).
func isNewLow(v ohlc.View, offset, priorN int) (bool, bool) {
	cur, ok := v.At(offset)
	if !ok {
		return false, false
	}
	min := math.Inf(1)
	found := false
	for i := offset + 1; i <= offset+priorN; i++ {
		r, ok := v.At(i)
		if !ok {
			return false, false
		}
		found = true
		if r.Close < min {
			min = r.Close
		}
	}
	if !found {
		return false, false
	}
	return cur.Close < min, true
}

// newLowOffsets returns, in ascending offset order (most recent first),
// every offset in [0, window) that is a new low relative to its prior
// `priorN` closes.
func newLowOffsets(v ohlc.View, window, priorN int) []int {
	var out []int
	for i := 0; i < window; i++ {
		isLow, ok := isNewLow(v, i, priorN)
		if !ok {
			break
		}
		if isLow {
			out = append(out, i)
		}
	}
	return out
}

// evalTrendMatured implements TREND_MATURED (spec.md §4.1): a downtrend
// has both structurally broken down (repeated new lows, or a material
// drawdown) and persisted long enough (time-below-SMA) that the most
// recent new lows are clustering rather than accelerating (momentum).
func evalTrendMatured(v ohlc.View, cfg Config) Set {
	out := NewSet()

	structureOK := false
	if lows := newLowOffsets(v, 15, 10); len(lows) >= 2 {
		structureOK = true
	}
	if !structureOK {
		closes := v.Closes(21)
		if len(closes) >= 21 {
			maxC := closes[5]
			for _, c := range closes[5:21] {
				if c > maxC {
					maxC = c
				}
			}
			if maxC > 0 && (maxC-closes[0])/maxC >= 0.10 {
				structureOK = true
			}
		}
	}
	if !structureOK {
		return out
	}

	below := 0
	checked := 0
	for i := 0; i < 10; i++ {
		row, ok := v.At(i)
		if !ok {
			break
		}
		sma, ok := v.SMA(i, cfg.SMALen)
		if !ok {
			break
		}
		checked++
		if row.Close < sma {
			below++
		}
	}
	if checked < 10 || float64(below)/10.0 < 0.70 {
		return out
	}

	lows20 := newLowOffsets(v, 20, 10)
	if len(lows20) < 3 {
		return out
	}
	// Most recent three new-low offsets, reordered chronologically
	// (earliest first) to match l1, l2, l3.
	recent := lows20[:3]
	l3Off, l2Off, l1Off := recent[0], recent[1], recent[2]
	r1, ok1 := v.At(l1Off)
	r2, ok2 := v.At(l2Off)
	r3, ok3 := v.At(l3Off)
	if !ok1 || !ok2 || !ok3 {
		return out
	}
	l1, l2, l3 := r1.Close, r2.Close, r3.Close
	if l1 == 0 || l2 == 0 {
		return out
	}
	if math.Abs(l2-l1)/l1 <= 0.02 && math.Abs(l3-l2)/l2 <= 0.02 {
		out.Add(TrendMatured)
	}
	return out
}
