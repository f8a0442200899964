package lookup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/growthcast/internal/portfolio"
	"github.com/seenimoa/growthcast/internal/ratesource"
)

// ResolvePending resolves the rate of every pending holding with at most
// limit concurrent lookups and returns a new slice; holdings is not modified.
// Each distinct ticker is looked up once. The first failure cancels the
// remaining lookups and is returned wrapped with its ticker.
func ResolvePending(ctx context.Context, source ratesource.RateSource, holdings []portfolio.Holding, limit int) ([]portfolio.Holding, error) {
	out := make([]portfolio.Holding, len(holdings))
	copy(out, holdings)

	tickers := unique(portfolio.PendingTickers(holdings))
	if len(tickers) == 0 {
		return out, nil
	}

	rates := make([]float64, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, t := range tickers {
		i, t := i, t
		g.Go(func() error {
			q, err := source.Rate(gctx, t)
			if err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			rates[i] = q.Rate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byTicker := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		byTicker[t] = rates[i]
	}
	for i, h := range out {
		if h.Status == portfolio.RatePending {
			out[i] = h.WithRate(byTicker[h.Ticker])
		}
	}
	return out, nil
}

// ResolvePending resolves pending holdings through the registry's source
// with its configured concurrency.
func (r *Registry) ResolvePending(ctx context.Context, holdings []portfolio.Holding) ([]portfolio.Holding, error) {
	return ResolvePending(ctx, r.source, holdings, r.limit)
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
