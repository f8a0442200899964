package ratesource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seenimoa/growthcast/pkg/models"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// Static serves rates from a fixed ticker table. It is used offline and in
// tests.
type Static struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewStatic creates a static source. Keys are normalized.
func NewStatic(rates map[string]float64) *Static {
	s := &Static{rates: make(map[string]float64, len(rates))}
	for k, v := range rates {
		s.rates[utils.NormalizeTicker(k)] = v
	}
	return s
}

// Name returns the source name.
func (s *Static) Name() string { return "static" }

// Set adds or replaces a rate.
func (s *Static) Set(ticker string, rate float64) {
	s.mu.Lock()
	s.rates[utils.NormalizeTicker(ticker)] = rate
	s.mu.Unlock()
}

// Rate returns the table entry for ticker or ErrNotFound.
func (s *Static) Rate(ctx context.Context, ticker string) (models.RateQuote, error) {
	if err := ctx.Err(); err != nil {
		return models.RateQuote{}, err
	}
	t := utils.NormalizeTicker(ticker)

	s.mu.RLock()
	r, ok := s.rates[t]
	s.mu.RUnlock()
	if !ok {
		return models.RateQuote{}, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	return models.RateQuote{
		Ticker:    t,
		Rate:      r,
		Source:    s.Name(),
		FetchedAt: time.Now(),
	}, nil
}
