package signals

import (
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

// rowsWithRanges builds a Series where ranges[i] is the (high-low) spread of
// the i-th row (0 = oldest), closes held flat at 100 so TrueRange reduces to
// high-low.
func rowsWithRanges(ranges []float64) ohlc.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(ohlc.Series, len(ranges))
	for i, r := range ranges {
		half := r / 2
		out[i] = ohlc.Row{
			Date: base.AddDate(0, 0, i), Open: 100, Close: 100,
			High: 100 + half, Low: 100 - half,
		}
	}
	return out
}

func TestEvalSellingPressureEased_ShrinkingRangeNoNewLow(t *testing.T) {
	cfg := DefaultConfig()
	// Enough flat padding rows before the last three so ATR(0, ATRWindow)
	// is dominated by the padding, then three days of strictly shrinking
	// true range: oldest-of-three widest, today's narrowest.
	padding := make([]float64, cfg.ATRWindow+2)
	for i := range padding {
		padding[i] = 2
	}
	ranges := append(padding, 4, 3, 2)
	v := ohlc.NewView(rowsWithRanges(ranges))
	sig := evalSellingPressureEased(v, cfg)
	if !sig.Has(SellingPressureEased) {
		t.Fatalf("expected SELLING_PRESSURE_EASED, got %v", sig.Keys())
	}
}

func TestEvalSellingPressureEased_NewLowSuppresses(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := cfg.ATRWindow + 5
	rows := make(ohlc.Series, n)
	for i := 0; i < n; i++ {
		rows[i] = ohlc.Row{Date: base.AddDate(0, 0, i), Open: 100, Close: 100, High: 102, Low: 98}
	}
	// True range shrinks on the last three days (4 -> 2.5 -> 1.1), but
	// today (offset 0) undercuts both prior days' lows.
	rows[n-3] = ohlc.Row{Date: rows[n-3].Date, Open: 100, Close: 100, High: 104, Low: 100}
	rows[n-2] = ohlc.Row{Date: rows[n-2].Date, Open: 100, Close: 100, High: 102.5, Low: 100}
	rows[n-1] = ohlc.Row{Date: rows[n-1].Date, Open: 100, Close: 100, High: 100, Low: 98.9}
	v := ohlc.NewView(rows)
	sig := evalSellingPressureEased(v, cfg)
	if sig.Has(SellingPressureEased) {
		t.Fatalf("expected no SELLING_PRESSURE_EASED when today makes a new low, got %v", sig.Keys())
	}
}

func TestEvalSellingPressureEased_InsufficientRows(t *testing.T) {
	cfg := DefaultConfig()
	v := ohlc.NewView(rowsWithRanges([]float64{2, 2}))
	sig := evalSellingPressureEased(v, cfg)
	if sig.Has(SellingPressureEased) {
		t.Fatalf("expected no signal with insufficient rows, got %v", sig.Keys())
	}
}
