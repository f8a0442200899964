// Package metrics exposes growthcast's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "growthcast"

// Lookup results used as the "result" label.
const (
	ResultOK           = "ok"
	ResultNotFound     = "not_found"
	ResultNoConnection = "no_connection"
	ResultInvalidData  = "invalid_data"
	ResultError        = "error"
	ResultCancelled    = "cancelled"
)

// Metrics owns a private registry and the application's collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	projections    *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	inFlight       prometheus.Gauge
}

// Options controls which runtime collectors are registered next to the
// application metrics.
type Options struct {
	GoMetrics      bool
	ProcessMetrics bool
}

// New creates and registers all collectors on a fresh registry.
func New(opts Options) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projections_total",
			Help:      "Projections computed, by kind (single, portfolio).",
		}, []string{"kind"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_lookups_total",
			Help:      "Historical rate lookups, by result.",
		}, []string{"result"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_lookup_duration_seconds",
			Help:      "Wall time of historical rate lookups including retries.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookups_in_flight",
			Help:      "Ticker lookups currently registered and running.",
		}),
	}

	m.registry.MustRegister(m.projections, m.lookups, m.lookupDuration, m.inFlight)
	if opts.GoMetrics {
		m.registry.MustRegister(collectors.NewGoCollector())
	}
	if opts.ProcessMetrics {
		m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProjection counts one projection of the given kind.
func (m *Metrics) RecordProjection(kind string) {
	if m == nil {
		return
	}
	m.projections.WithLabelValues(kind).Inc()
}

// RecordRateLookup counts a finished lookup and observes its duration.
func (m *Metrics) RecordRateLookup(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
	m.lookupDuration.Observe(d.Seconds())
}

// LookupStarted and LookupFinished track the in-flight gauge.
func (m *Metrics) LookupStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) LookupFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
