// Package dowtheory computes the Dow-theory pivot sequence, trend label,
// and break-of-structure (BoS) markers for an OHLC window (spec.md §4.1,
// "Dow facts"). The analyzer owns its own pivot cache per evaluation only
// — pivots are re-derived from scratch each call, with no cross-evaluation
// state (spec.md §9).
//
// Grounded on internal/domain/regime/detector.go's indicator-vote shape
// (several independent reads of the window combined into one labeled
// verdict), generalized here into a deterministic pivot walk instead of a
// weighted vote.
package dowtheory

import (
	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

const epsPct = 0.0001

// PivotKind distinguishes swing highs from swing lows.
type PivotKind int

const (
	PivotLow PivotKind = iota
	PivotHigh
)

// Pivot is a single confirmed swing point, identified by its offset from
// the as-of date (0 = latest).
type Pivot struct {
	Kind   PivotKind
	Offset int
	Price  float64
}

// Label classifies a pivot relative to its predecessor of the same kind.
type Label string

const (
	LabelL  Label = "L"  // low, no clear higher/lower pattern (or first pivot)
	LabelHL Label = "HL" // higher low
	LabelLL Label = "LL" // lower low
	LabelH  Label = "H"  // high, no clear pattern (or first pivot)
	LabelHH Label = "HH" // higher high
	LabelLH Label = "LH" // lower high
)

// Facts is the full set of Dow-theory derived facts for one evaluation.
type Facts struct {
	Pivots       []Pivot
	LastLow      *Pivot
	LastHigh     *Pivot
	LastLowLabel  Label
	LastHighLabel Label
	Trend         signals.Key // one of DowTrendUp/Down/Neutral
	Signals       signals.Set // the DOW_* keys implied by this analysis
}

// scanDepth bounds how far back the pivot walk looks, independent of
// `window` (the pivot confirmation half-width); pivots need headroom
// beyond the confirmation window to be found at all.
const scanDepth = 60

// Analyze finds the pivot sequence over the available history using a
// confirmation half-width of `window` bars on each side (spec.md's
// dow_window, default 3), and derives trend/label/BoS facts relative to
// the as-of date (offset 0).
func Analyze(v ohlc.View, window int) Facts {
	pivots := findPivots(v, window)

	f := Facts{Pivots: pivots, Signals: signals.NewSet()}

	lastLow, prevLow := lastTwoOfKind(pivots, PivotLow)
	lastHigh, prevHigh := lastTwoOfKind(pivots, PivotHigh)
	f.LastLow = lastLow
	f.LastHigh = lastHigh

	f.LastLowLabel = labelPivot(lastLow, prevLow)
	f.LastHighLabel = labelPivot(lastHigh, prevHigh)

	switch f.LastLowLabel {
	case LabelHL:
		f.Signals.Add(signals.DowLastLowHL)
	case LabelLL:
		f.Signals.Add(signals.DowLastLowLL)
		f.Signals.Add(signals.DowNewLL)
	default:
		f.Signals.Add(signals.DowLastLowL)
	}
	switch f.LastHighLabel {
	case LabelHH:
		f.Signals.Add(signals.DowLastHighHH)
		f.Signals.Add(signals.DowNewHH)
	case LabelLH:
		f.Signals.Add(signals.DowLastHighLH)
	default:
		f.Signals.Add(signals.DowLastHighH)
	}

	f.Trend = classifyTrend(f.LastLowLabel, f.LastHighLabel)
	f.Signals.Add(f.Trend)

	// Trend-change marker: compare against the trend computed one day
	// earlier (i.e. using the window with today's row dropped), so the
	// marker only fires if the change occurred on the as-of date.
	if prior, ok := priorTrend(v, window); ok && prior != f.Trend {
		if marker, ok := changeMarker(prior, f.Trend); ok {
			f.Signals.Add(marker)
			f.Signals.Add(signals.DowReset)
		}
	}

	// Break-of-structure: as-of close breaking beyond the most recent
	// opposite-side pivot, only recognized alongside a reset (spec.md:
	// "DOW_RESET and BoS ... when reset markers align").
	if f.Signals.Has(signals.DowReset) {
		if asOf, ok := v.At(0); ok {
			if f.LastHigh != nil && f.Trend == signals.DowTrendUp && asOf.Close > f.LastHigh.Price {
				f.Signals.Add(signals.DowBosBreakUp)
			}
			if f.LastLow != nil && f.Trend == signals.DowTrendDown && asOf.Close < f.LastLow.Price {
				f.Signals.Add(signals.DowBosBreakDown)
			}
		}
	}

	return f
}

func findPivots(v ohlc.View, window int) []Pivot {
	if window <= 0 {
		return nil
	}
	depth := scanDepth
	if v.Len() < depth {
		depth = v.Len()
	}
	// lo/hi collected chronologically (oldest first) so label ordering
	// below reads naturally; offsets still refer back to the as-of date.
	var pivots []Pivot
	for offset := depth - 1 - window; offset >= window; offset-- {
		center, ok := v.At(offset)
		if !ok {
			continue
		}
		isHigh, isLow := true, true
		for d := 1; d <= window; d++ {
			left, okL := v.At(offset + d)
			right, okR := v.At(offset - d)
			if !okL || !okR {
				isHigh, isLow = false, false
				break
			}
			if left.High >= center.High || right.High >= center.High {
				isHigh = false
			}
			if left.Low <= center.Low || right.Low <= center.Low {
				isLow = false
			}
		}
		if isHigh {
			pivots = append(pivots, Pivot{Kind: PivotHigh, Offset: offset, Price: center.High})
		}
		if isLow {
			pivots = append(pivots, Pivot{Kind: PivotLow, Offset: offset, Price: center.Low})
		}
	}
	// The walk above visits offsets in descending order, so pivots is
	// already chronological (oldest first) and "last" == most recently
	// confirmed.
	return pivots
}

func lastTwoOfKind(pivots []Pivot, kind PivotKind) (last, prev *Pivot) {
	var matches []Pivot
	for _, p := range pivots {
		if p.Kind == kind {
			matches = append(matches, p)
		}
	}
	n := len(matches)
	if n >= 1 {
		last = &matches[n-1]
	}
	if n >= 2 {
		prev = &matches[n-2]
	}
	return last, prev
}

func labelPivot(last, prev *Pivot) Label {
	if last == nil {
		return LabelL
	}
	if prev == nil {
		if last.Kind == PivotHigh {
			return LabelH
		}
		return LabelL
	}
	delta := (last.Price - prev.Price) / prev.Price
	switch last.Kind {
	case PivotHigh:
		if delta > epsPct {
			return LabelHH
		}
		if delta < -epsPct {
			return LabelLH
		}
		return LabelH
	default:
		if delta > epsPct {
			return LabelHL
		}
		if delta < -epsPct {
			return LabelLL
		}
		return LabelL
	}
}

func classifyTrend(lowLabel, highLabel Label) signals.Key {
	up := lowLabel == LabelHL && (highLabel == LabelHH || highLabel == LabelH)
	down := lowLabel == LabelLL && (highLabel == LabelLH || highLabel == LabelH)
	switch {
	case up && !down:
		return signals.DowTrendUp
	case down && !up:
		return signals.DowTrendDown
	default:
		return signals.DowTrendNeutral
	}
}

// priorTrend recomputes the trend using the window as it stood one day
// before the as-of date (offset 1 becomes the new offset 0).
func priorTrend(v ohlc.View, window int) (signals.Key, bool) {
	prior := v.Window(1)
	if prior.Len() == 0 {
		return "", false
	}
	pivots := findPivots(prior, window)
	lastLow, prevLow := lastTwoOfKind(pivots, PivotLow)
	lastHigh, prevHigh := lastTwoOfKind(pivots, PivotHigh)
	return classifyTrend(labelPivot(lastLow, prevLow), labelPivot(lastHigh, prevHigh)), true
}

func changeMarker(prior, current signals.Key) (signals.Key, bool) {
	switch {
	case prior == signals.DowTrendUp && current == signals.DowTrendNeutral:
		return signals.DowTrendChangeUpToNeutral, true
	case prior == signals.DowTrendDown && current == signals.DowTrendNeutral:
		return signals.DowTrendChangeDownToNeutral, true
	case prior == signals.DowTrendNeutral && current == signals.DowTrendUp:
		return signals.DowTrendChangeNeutralToUp, true
	case prior == signals.DowTrendNeutral && current == signals.DowTrendDown:
		return signals.DowTrendChangeNeutralToDown, true
	default:
		return "", false
	}
}
