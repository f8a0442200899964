package ratesource

import (
	"fmt"
	"strings"

	"github.com/seenimoa/growthcast/internal/config"
	"github.com/seenimoa/growthcast/internal/logging"
)

// FromConfig builds the rate source selected by cfg.Provider. The "yahoo"
// provider is wrapped in a Resolver with the configured window and retry
// policy; "static" serves cfg.Static directly.
func FromConfig(cfg config.RatesConfig, logger logging.Logger, rec Recorder) (RateSource, error) {
	switch strings.ToLower(cfg.Provider) {
	case "static":
		return NewStatic(cfg.Static), nil
	case "", "yahoo":
	default:
		return nil, fmt.Errorf("unknown rate provider %q", cfg.Provider)
	}

	from, to, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	yahoo := NewYahoo(YahooOptions{
		BaseURL:           cfg.BaseURL,
		CacheTTL:          cfg.CacheTTL,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	var prober Prober
	if cfg.ProbeURL != "" {
		prober = HTTPProber{URL: cfg.ProbeURL}
	}
	return NewResolver(yahoo, ResolverConfig{
		From:       from,
		To:         to,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Prober:     prober,
		Logger:     logger,
		Recorder:   rec,
	}), nil
}
