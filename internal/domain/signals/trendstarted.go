package signals

import "github.com/kalletarpila/swingmaster/internal/domain/ohlc"

// evalTrendStarted implements TREND_STARTED (spec.md §4.1): a regime that
// has spent most of the last 30 days above its rising SMA20 just broke
// down through it, with a debounce window ruling out a trend that was
// already broken and a breakdown check confirming fresh weakness. The
// Dow-facts override recognizes the same onset from pivot structure alone
// when the SMA-cross conditions don't hold on their own.
func evalTrendStarted(v ohlc.View, cfg Config, dowFacts Set) Set {
	out := NewSet()

	if dowFacts.Has(DowTrendChangeUpToNeutral) && dowFacts.Has(DowLastLowLL) {
		out.Add(TrendStarted)
		return out
	}

	regimeWindow := cfg.RegimeWindow
	above := 0
	checked := 0
	for i := 0; i < regimeWindow; i++ {
		row, ok := v.At(i)
		if !ok {
			break
		}
		sma, ok := v.SMA(i, cfg.SMALen)
		if !ok {
			break
		}
		checked++
		if row.Close > sma {
			above++
		}
	}
	if checked < regimeWindow {
		return out
	}
	regimeRatio := float64(above) / float64(regimeWindow)
	if regimeRatio < cfg.AboveRatioMin {
		return out
	}

	sma0, ok0 := v.SMA(0, cfg.SMALen)
	smaSlope, okSlope := v.SMA(cfg.SlopeLookback, cfg.SMALen)
	if !ok0 || !okSlope {
		return out
	}
	if sma0-smaSlope <= 0 {
		return out
	}

	yestClose, ok := v.At(1)
	if !ok {
		return out
	}
	yestSMA, ok := v.SMA(1, cfg.SMALen)
	if !ok {
		return out
	}
	todayClose, ok := v.At(0)
	if !ok {
		return out
	}
	todaySMA := sma0
	if !(yestClose.Close >= yestSMA && todayClose.Close < todaySMA) {
		return out
	}

	for i := 1; i <= cfg.DebounceDays+1; i++ {
		row, ok := v.At(i)
		if !ok {
			return out
		}
		sma, ok := v.SMA(i, cfg.SMALen)
		if !ok {
			return out
		}
		if row.Close < sma {
			return out
		}
	}

	closes := v.Closes(cfg.BreakLowWindow + 1)
	if len(closes) < cfg.BreakLowWindow+1 {
		return out
	}
	minPrior := closes[1]
	for _, c := range closes[1 : cfg.BreakLowWindow+1] {
		if c < minPrior {
			minPrior = c
		}
	}
	if closes[0] < minPrior {
		out.Add(TrendStarted)
	}
	return out
}
