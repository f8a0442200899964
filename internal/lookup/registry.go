// Package lookup runs ticker rate lookups in the background. A Registry keeps
// at most one lookup in flight per ticker; starting a new one for the same
// ticker cancels the old one.
package lookup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seenimoa/growthcast/internal/logging"
	"github.com/seenimoa/growthcast/internal/metrics"
	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/internal/ratesource"
	"github.com/seenimoa/growthcast/pkg/models"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// Options configures a Registry.
type Options struct {
	Sink    Sink
	Logger  logging.Logger
	Metrics *metrics.Metrics

	// Concurrency bounds ResolvePending. Zero means 4.
	Concurrency int
}

// Registry tracks in-flight lookups keyed by normalized ticker.
type Registry struct {
	source  ratesource.RateSource
	sink    Sink
	logger  logging.Logger
	metrics *metrics.Metrics
	limit   int

	mu    sync.Mutex
	tasks map[string]*Lookup
	seq   uint64
	wg    sync.WaitGroup
}

// New creates a registry that resolves rates through source.
func New(source ratesource.RateSource, opts Options) *Registry {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}
	return &Registry{
		source:  source,
		sink:    opts.Sink,
		logger:  logging.OrNop(opts.Logger).Named("lookup"),
		metrics: opts.Metrics,
		limit:   limit,
		tasks:   make(map[string]*Lookup),
	}
}

// Lookup is a handle to one background resolution.
type Lookup struct {
	id      uint64
	ticker  string
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	cancelled bool
	quote     models.RateQuote
	err       error
}

// Ticker returns the normalized ticker.
func (l *Lookup) Ticker() string { return l.ticker }

// Done is closed when the lookup finishes or is cancelled.
func (l *Lookup) Done() <-chan struct{} { return l.done }

// Result returns the outcome once Done is closed.
func (l *Lookup) Result() (models.RateQuote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quote, l.err
}

func (l *Lookup) stop() {
	l.mu.Lock()
	l.cancelled = true
	l.mu.Unlock()
	l.cancel()
}

// Start launches a lookup for ticker, cancelling any lookup already running
// for it. The lookup outlives ctx's caller only as long as ctx itself.
func (r *Registry) Start(ctx context.Context, ticker string) (*Lookup, error) {
	t := utils.NormalizeTicker(ticker)
	if t == "" {
		return nil, &projection.ValidationError{Field: "ticker", Message: "ticker must be a non-empty string"}
	}

	lctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if prev, ok := r.tasks[t]; ok {
		prev.stop()
		r.logger.Debug("replaced running lookup", logging.String("ticker", t))
	}
	r.seq++
	l := &Lookup{
		id:      r.seq,
		ticker:  t,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.tasks[t] = l
	r.wg.Add(1)
	r.mu.Unlock()

	r.metrics.LookupStarted()
	go r.run(lctx, l)
	return l, nil
}

func (r *Registry) run(ctx context.Context, l *Lookup) {
	defer r.wg.Done()
	defer r.finish(l)

	r.publish(l, Event{Type: EventProgress, Ticker: l.ticker, Message: fmt.Sprintf("Analyzing ticker %s...", l.ticker)})

	quote, err := r.source.Rate(ctx, l.ticker)

	l.mu.Lock()
	l.quote, l.err = quote, err
	if l.cancelled && err == nil {
		l.err = context.Canceled
	}
	l.mu.Unlock()

	if err != nil {
		r.logger.Info("lookup failed", logging.String("ticker", l.ticker), logging.Err(err))
		r.publish(l, Event{Type: EventError, Ticker: l.ticker, Message: UserMessage(l.ticker, err)})
		return
	}
	r.logger.Info("lookup finished", logging.String("ticker", l.ticker), logging.Float64("rate", quote.Rate))
	r.publish(l, Event{Type: EventResult, Ticker: l.ticker, Quote: &quote})
}

// publish forwards ev unless the lookup was cancelled. The check and the send
// happen under the lookup's mutex so nothing is published after stop returns.
func (r *Registry) publish(l *Lookup, ev Event) {
	if r.sink == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelled {
		return
	}
	ev.Time = time.Now()
	r.sink(ev)
}

func (r *Registry) finish(l *Lookup) {
	r.mu.Lock()
	if cur, ok := r.tasks[l.ticker]; ok && cur.id == l.id {
		delete(r.tasks, l.ticker)
	}
	r.mu.Unlock()

	l.cancel()
	r.metrics.LookupFinished()
	close(l.done)
}

// Cancel stops the lookup for ticker. It reports whether one was running.
func (r *Registry) Cancel(ticker string) bool {
	t := utils.NormalizeTicker(ticker)
	r.mu.Lock()
	l, ok := r.tasks[t]
	if ok {
		delete(r.tasks, t)
	}
	r.mu.Unlock()
	if ok {
		l.stop()
	}
	return ok
}

// CancelAll stops every running lookup.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = make(map[string]*Lookup)
	r.mu.Unlock()
	for _, l := range tasks {
		l.stop()
	}
}

// Running reports whether a lookup for ticker is in flight.
func (r *Registry) Running(ticker string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[utils.NormalizeTicker(ticker)]
	return ok
}

// InFlight returns the tickers with running lookups, sorted.
func (r *Registry) InFlight() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.tasks))
	for t := range r.tasks {
		out = append(out, t)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// Wait blocks until every started lookup has finished.
func (r *Registry) Wait() { r.wg.Wait() }
