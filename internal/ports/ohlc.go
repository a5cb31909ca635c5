// Package ports declares the external-collaborator interfaces the
// evaluation core depends on but spec.md deliberately leaves unspecified
// ("OHLC data source adapters... are specified only through the interfaces
// the core consumes", spec.md §1).
package ports

import (
	"context"

	"github.com/kalletarpila/swingmaster/internal/domain/ohlc"
)

// OHLCSource fetches daily OHLC history for a ticker ending at (and
// including) asOfDate. Implementations decide venue, pagination and
// retry policy; the evaluation core only requires enough rows to satisfy
// each signal's RequiredRowsPrecondition.
type OHLCSource interface {
	// FetchSeries returns the last minRows (or more) daily bars for ticker
	// up to and including asOfDate, ordered ascending by date.
	FetchSeries(ctx context.Context, ticker, asOfDate string, minRows int) (ohlc.Series, error)
}
