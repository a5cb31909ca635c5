package signals

import (
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

func seriesFromCloses(closes []float64) ohlc.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(ohlc.Series, len(closes))
	for i, c := range closes {
		out[i] = ohlc.Row{
			Date:  base.AddDate(0, 0, i),
			Open:  c,
			High:  c * 1.005,
			Low:   c * 0.995,
			Close: c,
		}
	}
	return out
}

func TestEvaluate_InsufficientData(t *testing.T) {
	cfg := DefaultConfig()
	v := ohlc.NewView(seriesFromCloses([]float64{100, 101, 102}))
	res := Evaluate(v, cfg, "", "")
	if !res.Signals.Has(DataInsufficient) {
		t.Fatalf("expected DATA_INSUFFICIENT, got %v", res.Signals.Keys())
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expected only DATA_INSUFFICIENT, got %v", res.Signals.Keys())
	}
}

func TestEvaluate_SlowDriftDetected(t *testing.T) {
	cfg := DefaultConfig()
	// Monotone decline over 11 closes satisfying c[-10]>c[-5]>c[-2]>c[0]
	// and a >3% total drawdown, padded with enough history to clear the
	// required-rows precondition.
	closes := make([]float64, cfg.RequiredRows()+5)
	price := 100.0
	for i := range closes {
		closes[len(closes)-1-i] = price
		price /= 0.995
	}
	v := ohlc.NewView(seriesFromCloses(closes))
	res := Evaluate(v, cfg, "", "")
	if !res.Signals.Has(SlowDriftDetected) {
		t.Fatalf("expected SLOW_DRIFT_DETECTED, got %v", res.Signals.Keys())
	}
	if !res.Signals.Has(SlowDeclineStarted) {
		t.Fatalf("expected legacy SLOW_DECLINE_STARTED alongside SLOW_DRIFT_DETECTED")
	}
}

func TestEvaluate_InvalidatedSuppressesStabilizationAndEntrySetup(t *testing.T) {
	cfg := DefaultConfig()
	closes := make([]float64, cfg.RequiredRows()+5)
	for i := range closes {
		closes[i] = 100
	}
	// Make today's low undercut everything in the invalidation lookback.
	rows := seriesFromCloses(closes)
	rows[len(rows)-1].Low = 50
	v := ohlc.NewView(rows)
	res := Evaluate(v, cfg, "", "")
	if !res.Signals.Has(Invalidated) {
		t.Fatalf("expected INVALIDATED, got %v", res.Signals.Keys())
	}
	if res.Signals.Has(StabilizationConfirmed) || res.Signals.Has(EntrySetupValid) {
		t.Fatalf("INVALIDATED must suppress same-day STABILIZATION_CONFIRMED/ENTRY_SETUP_VALID, got %v", res.Signals.Keys())
	}
}

func TestEvaluate_NoSignalWhenNothingFires(t *testing.T) {
	cfg := DefaultConfig()
	closes := make([]float64, cfg.RequiredRows()+5)
	for i := range closes {
		closes[i] = 100
	}
	rows := seriesFromCloses(closes)
	// Daily ranges of ±5% keep the 10-day base range above the 6% cap, so
	// ENTRY_SETUP_VALID's base-range setup cannot qualify either.
	for i := range rows {
		rows[i].High = 105
		rows[i].Low = 95
	}
	v := ohlc.NewView(rows)
	res := Evaluate(v, cfg, "", "")
	if !res.Signals.Has(NoSignal) {
		t.Fatalf("expected NO_SIGNAL on a flat series, got %v", res.Signals.Keys())
	}
}

func TestEvaluate_RequireRowOnDateMismatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireRowOnDate = true
	closes := make([]float64, cfg.RequiredRows()+5)
	for i := range closes {
		closes[i] = 100
	}
	v := ohlc.NewView(seriesFromCloses(closes))
	res := Evaluate(v, cfg, "2024-06-01", "2024-05-30")
	if !res.Signals.Has(DataInsufficient) {
		t.Fatalf("expected DATA_INSUFFICIENT on stale latest row, got %v", res.Signals.Keys())
	}
}
