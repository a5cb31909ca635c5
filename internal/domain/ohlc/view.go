// Package ohlc provides read-only windowed access to a ticker's daily OHLC
// history, plus the ATR helper shared by several signal modules.
package ohlc

import (
	"fmt"
	"math"
	"time"
)

// Row is a single daily OHLC bar. Prices must be finite and positive.
type Row struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Valid reports whether the row's prices are finite and positive.
func (r Row) Valid() bool {
	for _, v := range []float64{r.Open, r.High, r.Low, r.Close} {
		if !math.IsInf(v, 0) && !math.IsNaN(v) && v > 0 {
			continue
		}
		return false
	}
	return true
}

// Series is an ordered sequence of Rows, ascending by date. View indexes
// into it with offset 0 = latest (as-of) row, 1 = previous, etc.
type Series []Row

// View is a read-only window over a Series anchored at an as-of date.
// Offset 0 is the as-of row; index grows into the past.
type View struct {
	rows Series // ascending by date, full history available to this view
}

// NewView builds a View over rows, which must already be sorted ascending
// by date. The view itself performs no sorting or mutation.
func NewView(rows Series) View {
	return View{rows: rows}
}

// Len returns the number of rows available to the view.
func (v View) Len() int { return len(v.rows) }

// At returns the row at offset (0 = latest/as-of). ok is false if offset is
// out of range.
func (v View) At(offset int) (Row, bool) {
	idx := len(v.rows) - 1 - offset
	if idx < 0 || idx >= len(v.rows) {
		return Row{}, false
	}
	return v.rows[idx], true
}

// AsOfDate returns the date of offset 0, if any.
func (v View) AsOfDate() (time.Time, bool) {
	r, ok := v.At(0)
	return r.Date, ok
}

// Closes returns the last n closes, ordered with index 0 = latest (offset
// 0) through index n-1 = offset n-1. If fewer than n rows are available,
// the returned slice is shorter than n (callers must check length).
func (v View) Closes(n int) []float64 {
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		r, ok := v.At(i)
		if !ok {
			break
		}
		out = append(out, r.Close)
	}
	return out
}

// Window returns a sub-view starting at offset (i.e. a view whose offset 0
// is this view's offset `offset`), useful for rolling computations that
// need "the same window, n days ago".
func (v View) Window(offset int) View {
	idx := len(v.rows) - 1 - offset
	if idx < 0 {
		return View{}
	}
	return View{rows: v.rows[:idx+1]}
}

// SMA computes the simple moving average of the last n closes starting at
// offset. ok is false if insufficient rows are available.
func (v View) SMA(offset, n int) (float64, bool) {
	if n <= 0 {
		return 0, false
	}
	sum := 0.0
	for i := offset; i < offset+n; i++ {
		r, ok := v.At(i)
		if !ok {
			return 0, false
		}
		sum += r.Close
	}
	return sum / float64(n), true
}

// TrueRange computes TR_i = max(high-low, |high-prevClose|, |low-prevClose|)
// for the row at offset, using the row at offset+1 as the previous close.
func (v View) TrueRange(offset int) (float64, bool) {
	cur, ok := v.At(offset)
	if !ok {
		return 0, false
	}
	prev, ok := v.At(offset + 1)
	if !ok {
		return 0, false
	}
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc)), true
}

// ATR computes the Average True Range over `period` days starting at
// offset: ATR = mean(first `period` TR values), per spec.md §4.1. Requires
// at least period+1 rows from offset.
func (v View) ATR(offset, period int) (float64, bool) {
	if period <= 0 {
		return 0, false
	}
	sum := 0.0
	for i := offset; i < offset+period; i++ {
		tr, ok := v.TrueRange(i)
		if !ok {
			return 0, false
		}
		sum += tr
	}
	return sum / float64(period), true
}

// RequiredRowsPrecondition validates the provider's required-rows gate
// described in spec.md §4.1, returning a descriptive error if unmet.
func RequiredRowsPrecondition(v View, required int) error {
	if v.Len() < required {
		return fmt.Errorf("insufficient rows: have %d, need %d", v.Len(), required)
	}
	return nil
}
