package signals

import (
	"sort"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// evalStabilizationConfirmed implements STABILIZATION_CONFIRMED (spec.md
// §4.1): day-range volatility over the last week has shrunk relative to
// the last 20-day baseline, wide days are rare, no fresh low has broken
// the reference low by more than a sweep's worth, and most days close in
// the upper part of their range.
func evalStabilizationConfirmed(v ohlc.View, cfg Config) Set {
	out := NewSet()
	const recentN = 7
	const baselineN = 20
	if v.Len() < baselineN {
		return out
	}

	rangePct := func(offset int) (float64, bool) {
		r, ok := v.At(offset)
		if !ok || r.Close == 0 {
			return 0, false
		}
		return (r.High - r.Low) / r.Close, true
	}

	recentRanges := make([]float64, 0, recentN)
	for i := 0; i < recentN; i++ {
		rp, ok := rangePct(i)
		if !ok {
			return out
		}
		recentRanges = append(recentRanges, rp)
	}
	baselineRanges := make([]float64, 0, baselineN)
	for i := 0; i < baselineN; i++ {
		rp, ok := rangePct(i)
		if !ok {
			return out
		}
		baselineRanges = append(baselineRanges, rp)
	}
	baselineMedian := median(baselineRanges)
	if baselineMedian <= 0 {
		return out
	}
	recentMedian := median(recentRanges)
	if recentMedian > 0.75*baselineMedian {
		return out
	}

	wideCount := 0
	for _, rp := range recentRanges {
		if rp >= 1.5*baselineMedian {
			wideCount++
		}
	}
	if float64(wideCount)/float64(recentN) > 0.20 {
		return out
	}

	// Reference low: the lowest low in the baseline period before the
	// recent window (offsets recentN..baselineN-1).
	refLow := -1.0
	for i := recentN; i < baselineN; i++ {
		r, ok := v.At(i)
		if !ok {
			return out
		}
		if refLow < 0 || r.Low < refLow {
			refLow = r.Low
		}
	}
	if refLow < 0 {
		return out
	}
	const eps = 0.003
	significantNewLows, sweeps := 0, 0
	upperCloseCount := 0
	for i := 0; i < recentN; i++ {
		r, ok := v.At(i)
		if !ok {
			return out
		}
		if r.Low < refLow*(1-eps) {
			significantNewLows++
		} else if r.Low < refLow {
			sweeps++
		}
		if r.High > r.Low {
			if (r.Close-r.Low)/(r.High-r.Low) >= 0.55 {
				upperCloseCount++
			}
		}
	}
	if significantNewLows > 0 || sweeps > 1 {
		return out
	}
	if upperCloseCount < 3 {
		return out
	}

	out.Add(StabilizationConfirmed)
	return out
}
