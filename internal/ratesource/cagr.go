package ratesource

import (
	"fmt"
	"math"

	"github.com/seenimoa/growthcast/pkg/models"
)

// daysPerYear converts a day span into years for CAGR.
const daysPerYear = 365.0

// CAGR returns the compound annual growth rate in percent between the first
// and last point of a history:
//
//	((last / first) ^ (1 / years) - 1) * 100,  years = whole days / 365
//
// Points must be in ascending date order.
func CAGR(points []models.PricePoint) (float64, error) {
	if len(points) == 0 {
		return 0, ErrNotFound
	}
	if len(points) < 2 {
		return 0, fmt.Errorf("%w: insufficient data points", ErrInvalidData)
	}

	first, last := points[0], points[len(points)-1]
	if first.Close <= 0 || last.Close <= 0 {
		return 0, fmt.Errorf("%w: prices must be positive values", ErrInvalidData)
	}

	days := math.Floor(last.Date.Sub(first.Date).Hours() / 24)
	if days <= 0 {
		return 0, fmt.Errorf("%w: invalid date range in data", ErrInvalidData)
	}
	years := days / daysPerYear

	return (math.Pow(last.Close/first.Close, 1/years) - 1) * 100, nil
}
