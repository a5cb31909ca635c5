package dowtheory

import (
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
	"github.com/kalletarpila/swingmaster/internal/domain/signals"
)

func mkRows(highs, lows []float64) ohlc.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(ohlc.Series, len(highs))
	for i := range highs {
		out[i] = ohlc.Row{
			Date:  base.AddDate(0, 0, i),
			Open:  (highs[i] + lows[i]) / 2,
			High:  highs[i],
			Low:   lows[i],
			Close: (highs[i] + lows[i]) / 2,
		}
	}
	return out
}

func TestAnalyze_UptrendClassification(t *testing.T) {
	// Ascending highs and lows with clear swing points every 3 bars.
	var highs, lows []float64
	base := 100.0
	for i := 0; i < 40; i++ {
		offsetInCycle := i % 6
		bump := 0.0
		switch {
		case offsetInCycle == 0:
			bump = 5
		case offsetInCycle == 3:
			bump = -5
		}
		highs = append(highs, base+bump+float64(i)*0.5)
		lows = append(lows, base+bump+float64(i)*0.5-2)
	}
	v := ohlc.NewView(mkRows(highs, lows))
	f := Analyze(v, 3)
	if f.Trend == "" {
		t.Fatal("expected a trend classification")
	}
	// Exactly one trend key should be present.
	count := 0
	for _, k := range []signals.Key{signals.DowTrendUp, signals.DowTrendDown, signals.DowTrendNeutral} {
		if f.Signals.Has(k) {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one trend key, got %d in %v", count, f.Signals.Keys())
	}
	if f.Trend != signals.DowTrendUp {
		t.Fatalf("expected DOW_TREND_UP on ascending swings, got %v", f.Trend)
	}
}

func TestAnalyze_NoPivotsYieldsNeutral(t *testing.T) {
	highs := make([]float64, 20)
	lows := make([]float64, 20)
	for i := range highs {
		highs[i] = 100
		lows[i] = 99
	}
	v := ohlc.NewView(mkRows(highs, lows))
	f := Analyze(v, 3)
	if f.Trend != signals.DowTrendNeutral {
		t.Fatalf("expected neutral trend on a flat series, got %v", f.Trend)
	}
}
