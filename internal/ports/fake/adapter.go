// Package fake provides a deterministic in-memory ports.OHLCSource for
// tests and the evaluate/range CLI demo path, grounded on
// internal/data/exchanges/fake/adapter.go's deterministic-seed approach:
// a per-symbol base price, a per-bar RNG seeded from the adapter seed, the
// bar's date and the symbol's length, and a simple random-walk-plus-trend
// price model. The same (ticker, asOfDate, minRows) call always reproduces
// the same series; since each bar opens at the previous close, a bar's
// prices also depend on where the series starts (its minRows).
package fake

import (
	"context"
	"crypto/md5"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

const dateLayout = "2006-01-02"

// Adapter implements ports.OHLCSource with deterministic fake daily bars.
type Adapter struct {
	seed       int64
	volatility float64
	trendBias  float64
	priceBase  map[string]float64
}

// NewAdapter creates a deterministic fake OHLC adapter seeded explicitly.
func NewAdapter(seed int64) *Adapter {
	return &Adapter{
		seed:       seed,
		volatility: 0.02,
		priceBase:  make(map[string]float64),
	}
}

// NewDeterministicAdapter derives the seed from name so repeated calls in
// different processes still reproduce the same series.
func NewDeterministicAdapter(name string) *Adapter {
	hash := md5.Sum([]byte(name))
	seed := int64(hash[0])<<56 | int64(hash[1])<<48 | int64(hash[2])<<40 | int64(hash[3])<<32 |
		int64(hash[4])<<24 | int64(hash[5])<<16 | int64(hash[6])<<8 | int64(hash[7])
	return NewAdapter(seed)
}

// SetVolatility configures the daily volatility used for price generation.
func (a *Adapter) SetVolatility(volatility float64) { a.volatility = volatility }

// SetTrendBias configures a directional drift applied across the series.
func (a *Adapter) SetTrendBias(bias float64) { a.trendBias = bias }

// SetBasePrice sets the base price a ticker's random walk starts from.
func (a *Adapter) SetBasePrice(ticker string, price float64) {
	a.priceBase[strings.ToUpper(ticker)] = price
}

// FetchSeries implements ports.OHLCSource.
func (a *Adapter) FetchSeries(ctx context.Context, ticker, asOfDate string, minRows int) (ohlc.Series, error) {
	asOf, err := time.Parse(dateLayout, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("fake adapter: invalid as_of_date %q: %w", asOfDate, err)
	}
	if minRows <= 0 {
		minRows = 1
	}

	symbol := strings.ToUpper(ticker)
	start := asOf.AddDate(0, 0, -(minRows - 1))

	series := make(ohlc.Series, 0, minRows)
	prevClose := a.basePrice(symbol)
	for i := 0; i < minRows; i++ {
		day := start.AddDate(0, 0, i)
		row := a.generateRow(symbol, day, prevClose)
		series = append(series, row)
		prevClose = row.Close
	}
	return series, nil
}

func (a *Adapter) basePrice(symbol string) float64 {
	if p, ok := a.priceBase[symbol]; ok {
		return p
	}
	return 100.0
}

func (a *Adapter) generateRow(symbol string, day time.Time, prevClose float64) ohlc.Row {
	rng := rand.New(rand.NewSource(a.seed + day.Unix() + int64(len(symbol))))

	hours := day.Sub(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).Hours()
	trendComponent := a.trendBias * hours * 0.001
	randomWalk := rng.NormFloat64() * a.volatility * prevClose * 0.1
	volatilityCluster := math.Sin(hours*0.1) * a.volatility * prevClose * 0.05

	open := prevClose
	close := prevClose*(1+trendComponent) + randomWalk + volatilityCluster
	if close <= 0 {
		close = prevClose * 0.99
	}

	rangePct := 0.02 * rng.Float64()
	high := math.Max(open, close) * (1 + rangePct)
	low := math.Min(open, close) * (1 - rangePct)

	return ohlc.Row{
		Date:  day,
		Open:  open,
		High:  high,
		Low:   low,
		Close: close,
	}
}
