// Package api provides the HTTP REST API server for growthcast.
//
// It exposes endpoints for single and portfolio projections, historical rate
// lookups, CSV and JSON export, and a WebSocket stream of lookup events.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/growthcast/internal/config"
	"github.com/seenimoa/growthcast/internal/logging"
	"github.com/seenimoa/growthcast/internal/lookup"
	"github.com/seenimoa/growthcast/internal/metrics"
	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/internal/ratesource"
	"github.com/seenimoa/growthcast/internal/store"
)

// Options supplies the collaborators of a Server. Nil fields are built from
// the config.
type Options struct {
	Rates   ratesource.RateSource
	Metrics *metrics.Metrics
	Logger  logging.Logger
	Version string
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfgMu   sync.RWMutex
	cfg     *config.Config
	rates   ratesource.RateSource
	lookups *lookup.Registry
	metrics *metrics.Metrics
	logger  logging.Logger
	wsHub   *WSHub
	version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := logging.OrNop(opts.Logger).Named("api")

	m := opts.Metrics
	if m == nil {
		m = metrics.New(metrics.Options{GoMetrics: true, ProcessMetrics: true})
	}

	rates := opts.Rates
	if rates == nil {
		var err error
		rates, err = ratesource.FromConfig(cfg.Rates, logger, m)
		if err != nil {
			return nil, fmt.Errorf("rate source setup failed: %w", err)
		}
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		cfg:     cfg,
		rates:   rates,
		metrics: m,
		logger:  logger,
		wsHub:   NewWSHub(),
		version: version,
	}
	srv.lookups = lookup.New(rates, lookup.Options{
		Sink:        srv.broadcastEvent,
		Logger:      opts.Logger,
		Metrics:     m,
		Concurrency: cfg.Rates.ConcurrentFetches,
	})
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Lookups returns the background lookup registry.
func (s *Server) Lookups() *lookup.Registry {
	return s.lookups
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when ctx
// is cancelled. Running lookups are cancelled on shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()
	defer s.wsHub.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", logging.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	s.lookups.CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(shutdownCtx)
	s.lookups.Wait()
	return err
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check and metrics
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connections are long-lived and skip the request timeout.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(120 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/frequencies", s.handleFrequencies)

			// Projections
			r.Post("/projection", s.handleProjection)
			r.Post("/portfolio", s.handlePortfolio)

			// Rates
			r.Get("/rate/{ticker}", s.handleRate)
			r.Post("/lookups", s.handleStartLookup)
			r.Get("/lookups", s.handleListLookups)
			r.Delete("/lookups/{ticker}", s.handleCancelLookup)

			// Export / import
			r.Post("/export/csv", s.handleExportCSV)
			r.Post("/export/json", s.handleExportJSON)
			r.Post("/import", s.handleImport)

			// Configuration
			r.Get("/config", s.handleGetConfig)
			r.Put("/config", s.handleUpdateConfig)
		})
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Int("bytes", ww.BytesWritten()),
				logging.Duration("elapsed", time.Since(start)),
				logging.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// ============================================================
// Response helpers
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeJSON encodes v before writing the status, so an unencodable value
// (NaN, for one) becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(APIResponse{
			Success: false,
			Error:   "failed to encode response: " + err.Error(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeErr maps a domain error onto an HTTP status.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Err(err))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, projection.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, projection.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, ratesource.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ratesource.ErrNoConnection):
		return http.StatusServiceUnavailable
	case errors.Is(err, ratesource.ErrInvalidData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ratesource.ErrDownload):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &projection.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	return nil
}
