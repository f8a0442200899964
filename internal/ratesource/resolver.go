package ratesource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seenimoa/growthcast/internal/logging"
	"github.com/seenimoa/growthcast/internal/metrics"
	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/pkg/models"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// DefaultProbeURL is checked before each download attempt.
const DefaultProbeURL = "https://www.google.com"

// Prober checks network reachability.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(ctx context.Context) error

// Probe calls f.
func (f ProbeFunc) Probe(ctx context.Context) error { return f(ctx) }

// HTTPProber reports the network reachable when URL answers at all.
// Any HTTP status counts; only transport failures are errors.
type HTTPProber struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// Probe performs a HEAD request against p.URL.
func (p HTTPProber) Probe(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := p.URL
	if target == "" {
		target = DefaultProbeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Recorder receives one observation per finished lookup.
type Recorder interface {
	RecordRateLookup(result string, d time.Duration)
}

// ResolverConfig controls the history window and retry policy.
type ResolverConfig struct {
	From       time.Time
	To         time.Time
	MaxRetries int
	RetryDelay time.Duration

	// Prober is optional; nil skips the connectivity check.
	Prober   Prober
	Logger   logging.Logger
	Recorder Recorder
}

// DefaultResolverConfig mirrors the application defaults: five years of
// history ending 2025-01-01, two retries two seconds apart.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		From:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
	}
}

// Resolver turns a Source into a RateSource: it probes connectivity, retries
// transport failures, and computes CAGR over the configured window.
type Resolver struct {
	source Source
	cfg    ResolverConfig
	logger logging.Logger
}

// NewResolver creates a resolver on top of source.
func NewResolver(source Source, cfg ResolverConfig) *Resolver {
	return &Resolver{
		source: source,
		cfg:    cfg,
		logger: logging.OrNop(cfg.Logger).Named("ratesource"),
	}
}

// Name returns the underlying source name.
func (r *Resolver) Name() string { return r.source.Name() }

// WithRetry returns a copy of r with a different retry policy.
func (r *Resolver) WithRetry(maxRetries int, delay time.Duration) *Resolver {
	cp := *r
	cp.cfg.MaxRetries = maxRetries
	cp.cfg.RetryDelay = delay
	return &cp
}

// Rate resolves ticker to its CAGR over the configured window. It makes at
// most MaxRetries+1 attempts. Connectivity and download failures are retried
// after RetryDelay; data errors (ErrNotFound, ErrInvalidData) return
// immediately. Cancelling ctx aborts any wait.
func (r *Resolver) Rate(ctx context.Context, ticker string) (models.RateQuote, error) {
	t := utils.NormalizeTicker(ticker)
	if t == "" {
		return models.RateQuote{}, &projection.ValidationError{Field: "ticker", Message: "ticker must be a non-empty string"}
	}
	if r.cfg.MaxRetries < 0 {
		return models.RateQuote{}, &projection.ValidationError{Field: "max_retries", Message: "max_retries must be a non-negative integer"}
	}
	if r.cfg.RetryDelay < 0 {
		return models.RateQuote{}, &projection.ValidationError{Field: "retry_delay", Message: "retry_delay must be a non-negative number"}
	}

	start := time.Now()
	quote, err := r.resolve(ctx, t)
	if r.cfg.Recorder != nil {
		r.cfg.Recorder.RecordRateLookup(resultLabel(err), time.Since(start))
	}
	return quote, err
}

func (r *Resolver) resolve(ctx context.Context, t string) (models.RateQuote, error) {
	log := r.logger.With(logging.String("ticker", t))
	attempts := r.cfg.MaxRetries + 1

	var (
		lastErr   error
		connected bool
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			log.Warn("retrying rate lookup",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", attempts),
				logging.Duration("delay", r.cfg.RetryDelay),
				logging.Err(lastErr),
			)
			if err := sleepCtx(ctx, r.cfg.RetryDelay); err != nil {
				return models.RateQuote{}, err
			}
		}

		if r.cfg.Prober != nil {
			if err := r.cfg.Prober.Probe(ctx); err != nil {
				if ctx.Err() != nil {
					return models.RateQuote{}, ctx.Err()
				}
				connected = false
				lastErr = err
				continue
			}
		}
		connected = true

		points, err := r.source.History(ctx, t, r.cfg.From, r.cfg.To)
		if err != nil {
			if ctx.Err() != nil {
				return models.RateQuote{}, ctx.Err()
			}
			if IsDataError(err) {
				return models.RateQuote{}, err
			}
			lastErr = err
			continue
		}

		rate, err := CAGR(points)
		if err != nil {
			return models.RateQuote{}, fmt.Errorf("%s: %w", t, err)
		}

		log.Debug("rate resolved", logging.Float64("rate", rate), logging.Int("points", len(points)))
		return models.RateQuote{
			Ticker:    t,
			Symbol:    symbolFor(r.source, t),
			Rate:      rate,
			From:      points[0].Date,
			To:        points[len(points)-1].Date,
			Points:    len(points),
			Source:    r.source.Name(),
			FetchedAt: time.Now(),
		}, nil
	}

	if !connected {
		return models.RateQuote{}, fmt.Errorf("%w after %d attempts: %v", ErrNoConnection, attempts, lastErr)
	}
	return models.RateQuote{}, fmt.Errorf("%w for '%s' after %d attempts: %w", ErrDownload, t, attempts, lastErr)
}

func symbolFor(src Source, ticker string) string {
	if _, ok := src.(*Yahoo); ok {
		return utils.ToYahooSymbol(ticker)
	}
	return ticker
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resultLabel classifies a lookup outcome for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrNoConnection):
		return metrics.ResultNoConnection
	case errors.Is(err, ErrInvalidData):
		return metrics.ResultInvalidData
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCancelled
	default:
		return metrics.ResultError
	}
}
