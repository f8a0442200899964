// Package ratesource derives historical annual growth rates (CAGR) for
// tickers. It defines the Source interface for price histories, a Yahoo
// Finance implementation, a static table for offline use, and the Resolver
// that adds connectivity probing and retries on top of a Source.
package ratesource

import (
	"context"
	"errors"
	"time"

	"github.com/seenimoa/growthcast/pkg/models"
)

// Source fetches daily price history for a ticker.
type Source interface {
	// Name returns the human-readable name of this source.
	Name() string

	// History returns daily closes in ascending date order for [from, to).
	History(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)
}

// RateSource resolves a ticker to its historical annual growth rate.
// Resolver and Static implement it.
type RateSource interface {
	Name() string
	Rate(ctx context.Context, ticker string) (models.RateQuote, error)
}

// --- Sentinel errors ---

// ErrNotFound is returned when a ticker has no data at the source.
var ErrNotFound = errors.New("ticker not found or has no data")

// ErrNoConnection is returned when the network is unreachable after all
// retries.
var ErrNoConnection = errors.New("no internet connection available")

// ErrInvalidData is returned when downloaded data cannot yield a rate.
var ErrInvalidData = errors.New("invalid price data")

// ErrDownload wraps transport failures that survived every retry.
var ErrDownload = errors.New("failed to retrieve data")

// IsDataError reports whether err describes the data itself rather than the
// transport. Data errors are never retried.
func IsDataError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidData)
}
