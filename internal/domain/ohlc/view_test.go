package ohlc

import (
	"testing"
	"time"
)

func mkSeries(closes []float64) Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(Series, len(closes))
	for i, c := range closes {
		out[i] = Row{
			Date:  base.AddDate(0, 0, i),
			Open:  c,
			High:  c * 1.01,
			Low:   c * 0.99,
			Close: c,
		}
	}
	return out
}

func TestView_AtOffsets(t *testing.T) {
	v := NewView(mkSeries([]float64{10, 11, 12, 13}))

	r0, ok := v.At(0)
	if !ok || r0.Close != 13 {
		t.Fatalf("offset 0 = %+v, ok=%v; want close 13", r0, ok)
	}
	r3, ok := v.At(3)
	if !ok || r3.Close != 10 {
		t.Fatalf("offset 3 = %+v, ok=%v; want close 10", r3, ok)
	}
	if _, ok := v.At(4); ok {
		t.Fatalf("offset 4 should be out of range")
	}
}

func TestView_SMA(t *testing.T) {
	v := NewView(mkSeries([]float64{1, 2, 3, 4, 5}))
	sma, ok := v.SMA(0, 3)
	if !ok {
		t.Fatal("expected SMA to be computable")
	}
	// offsets 0,1,2 = closes 5,4,3
	want := (5.0 + 4.0 + 3.0) / 3.0
	if sma != want {
		t.Fatalf("SMA = %v, want %v", sma, want)
	}
	if _, ok := v.SMA(0, 10); ok {
		t.Fatal("expected SMA to fail with insufficient rows")
	}
}

func TestView_ATR(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	v := NewView(mkSeries(closes))
	atr, ok := v.ATR(0, 3)
	if !ok {
		t.Fatal("expected ATR to be computable")
	}
	if atr <= 0 {
		t.Fatalf("ATR should be positive, got %v", atr)
	}
	if _, ok := v.ATR(0, 10); ok {
		t.Fatal("expected ATR to fail with insufficient rows")
	}
}

func TestRequiredRowsPrecondition(t *testing.T) {
	v := NewView(mkSeries([]float64{1, 2, 3}))
	if err := RequiredRowsPrecondition(v, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RequiredRowsPrecondition(v, 4); err == nil {
		t.Fatal("expected error for insufficient rows")
	}
}

func TestRow_Valid(t *testing.T) {
	good := Row{Open: 1, High: 2, Low: 0.5, Close: 1.5}
	if !good.Valid() {
		t.Fatal("expected valid row")
	}
	bad := Row{Open: -1, High: 2, Low: 0.5, Close: 1.5}
	if bad.Valid() {
		t.Fatal("expected invalid row for negative open")
	}
}
