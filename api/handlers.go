package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/growthcast/internal/portfolio"
	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/internal/report"
	"github.com/seenimoa/growthcast/internal/store"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// ============================================================
// Request / Response types
// ============================================================

// ProjectionRequest is the body for POST /api/v1/projection. Omitted
// frequencies and years take the configured defaults.
type ProjectionRequest struct {
	InitialDeposit        float64  `json:"initial_deposit"`
	ContributionAmount    float64  `json:"contribution_amount"`
	Rate                  float64  `json:"rate"`
	CompoundFrequency     string   `json:"compound_frequency,omitempty"`
	ContributionFrequency string   `json:"contribution_frequency,omitempty"`
	Years                 *float64 `json:"years,omitempty"`
}

// HoldingInput is one investment in a portfolio request. A null rate asks
// for a lookup of Ticker.
type HoldingInput struct {
	Ticker             string   `json:"ticker"`
	Rate               *float64 `json:"rate"`
	InitialDeposit     float64  `json:"initial_deposit"`
	ContributionAmount float64  `json:"contribution_amount"`
}

// PortfolioRequest is the body for POST /api/v1/portfolio and the export
// endpoints.
type PortfolioRequest struct {
	Holdings              []HoldingInput `json:"holdings"`
	CompoundFrequency     string         `json:"compound_frequency,omitempty"`
	ContributionFrequency string         `json:"contribution_frequency,omitempty"`
	Years                 *float64       `json:"years,omitempty"`
	Resolve               bool           `json:"resolve,omitempty"`
}

// ProjectionResponse carries a projection plus the invested-principal series
// aligned with its breakdown.
type ProjectionResponse struct {
	projection.Projection
	InvestedSeries []float64 `json:"invested_series"`
}

// PortfolioResponse adds the per-holding standalone values.
type PortfolioResponse struct {
	ProjectionResponse
	Holdings []report.HoldingValue `json:"holdings"`
}

// LookupRequest is the body for POST /api/v1/lookups.
type LookupRequest struct {
	Ticker string `json:"ticker"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"version":           s.version,
		"rate_source":       s.rates.Name(),
		"lookups_in_flight": len(s.lookups.InFlight()),
		"ws_clients":        s.wsHub.ClientCount(),
	})
}

func (s *Server) handleFrequencies(w http.ResponseWriter, r *http.Request) {
	type freq struct {
		Label   string  `json:"label"`
		PerYear float64 `json:"per_year"`
	}
	var out []freq
	for _, f := range projection.Frequencies() {
		out = append(out, freq{Label: f.String(), PerYear: f.PerYear()})
	}
	writeData(w, http.StatusOK, out)
}

// handleProjection serves JSON by default and the growth chart with
// ?format=svg.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}

	params, err := s.params(req.CompoundFrequency, req.ContributionFrequency, req.Years)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	spec := projection.Spec{
		InitialDeposit:        req.InitialDeposit,
		ContributionAmount:    req.ContributionAmount,
		Rate:                  req.Rate,
		CompoundFrequency:     params.CompoundFrequency,
		ContributionFrequency: params.ContributionFrequency,
		Years:                 params.Years,
	}
	if err := spec.Validate(); err != nil {
		s.writeErr(w, err)
		return
	}
	p, err := projection.Project(spec)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.metrics.RecordProjection("single")

	if r.URL.Query().Get("format") == "svg" {
		writeSVG(w, report.GrowthChart(p, report.ChartConfig{}))
		return
	}
	writeData(w, http.StatusOK, ProjectionResponse{
		Projection:     p,
		InvestedSeries: projection.InvestedSeries(p.Spec, p.Breakdown),
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, params, err := s.portfolioInput(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	p, err := portfolio.Project(holdings, params)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	values, err := report.HoldingValues(holdings, params)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.metrics.RecordProjection("portfolio")

	switch r.URL.Query().Get("format") {
	case "svg":
		writeSVG(w, report.GrowthChart(p, report.ChartConfig{}))
	case "holdings.svg":
		writeSVG(w, report.HoldingsChart(values, report.ChartConfig{}))
	default:
		writeData(w, http.StatusOK, PortfolioResponse{
			ProjectionResponse: ProjectionResponse{
				Projection:     p,
				InvestedSeries: projection.InvestedSeries(p.Spec, p.Breakdown),
			},
			Holdings: values,
		})
	}
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	q, err := s.rates.Rate(r.Context(), ticker)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusOK, q)
}

// handleStartLookup starts a background lookup whose progress is streamed
// over /api/v1/ws. It is detached from the request context.
func (s *Server) handleStartLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	l, err := s.lookups.Start(context.Background(), req.Ticker)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeData(w, http.StatusAccepted, map[string]string{
		"ticker": l.Ticker(),
		"status": "started",
	})
}

func (s *Server) handleListLookups(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]interface{}{
		"in_flight": s.lookups.InFlight(),
	})
}

func (s *Server) handleCancelLookup(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if !s.lookups.Cancel(ticker) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no lookup running for %s", ticker))
		return
	}
	writeData(w, http.StatusOK, map[string]string{
		"ticker": ticker,
		"status": "cancelled",
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	holdings, params, err := s.portfolioInput(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := store.ExportCSV(&buf, holdings, params, time.Now()); err != nil {
		s.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExportJSON returns the request as an investment document. Pending
// holdings are kept with a null rate unless resolve is set.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	holdings, params, err := s.portfolioInput(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := store.Encode(&buf, store.NewDocument(holdings, params)); err != nil {
		s.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport validates an investment document and returns it in request
// form.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := store.Decode(r.Body)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	holdings, err := doc.Holdings()
	if err != nil {
		s.writeErr(w, err)
		return
	}

	years := doc.Metadata.Years
	out := PortfolioRequest{
		CompoundFrequency:     doc.Metadata.CompoundFrequency.String(),
		ContributionFrequency: doc.Metadata.ContributionFrequency.String(),
		Years:                 &years,
	}
	for _, h := range holdings {
		in := HoldingInput{
			Ticker:             h.Ticker,
			InitialDeposit:     h.InitialDeposit,
			ContributionAmount: h.ContributionAmount,
		}
		if h.Status == portfolio.RateResolved {
			rate := h.Rate
			in.Rate = &rate
		}
		out.Holdings = append(out.Holdings, in)
	}
	writeData(w, http.StatusOK, out)
}

// ============================================================
// Helpers
// ============================================================

// params fills omitted settings from the configured defaults.
func (s *Server) params(compound, contribution string, years *float64) (portfolio.Params, error) {
	s.cfgMu.RLock()
	defaults := s.cfg.Projection
	s.cfgMu.RUnlock()

	if compound == "" {
		compound = defaults.CompoundFrequency
	}
	if contribution == "" {
		contribution = defaults.ContributionFrequency
	}
	var (
		p   portfolio.Params
		err error
	)
	if p.CompoundFrequency, err = projection.ParseFrequency(compound); err != nil {
		return portfolio.Params{}, err
	}
	if p.ContributionFrequency, err = projection.ParseFrequency(contribution); err != nil {
		return portfolio.Params{}, err
	}
	p.Years = defaults.Years
	if years != nil {
		p.Years = *years
	}
	return p, p.Validate()
}

// portfolioInput decodes a PortfolioRequest into holdings, resolving pending
// rates when asked.
func (s *Server) portfolioInput(r *http.Request) ([]portfolio.Holding, portfolio.Params, error) {
	var req PortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, portfolio.Params{}, err
	}
	params, err := s.params(req.CompoundFrequency, req.ContributionFrequency, req.Years)
	if err != nil {
		return nil, portfolio.Params{}, err
	}

	holdings := make([]portfolio.Holding, 0, len(req.Holdings))
	for i, in := range req.Holdings {
		h, err := in.holding()
		if err != nil {
			return nil, portfolio.Params{}, fmt.Errorf("investment %d: %w", i+1, err)
		}
		holdings = append(holdings, h)
	}

	if req.Resolve {
		holdings, err = s.lookups.ResolvePending(r.Context(), holdings)
		if err != nil {
			return nil, portfolio.Params{}, err
		}
	}
	return holdings, params, nil
}

func (in HoldingInput) holding() (portfolio.Holding, error) {
	var h portfolio.Holding
	if in.Rate == nil {
		if utils.NormalizeTicker(in.Ticker) == "" {
			return portfolio.Holding{}, &projection.ValidationError{Field: "rate", Message: "invalid investment data: a rate or a ticker is required"}
		}
		h = portfolio.Pending(in.Ticker, in.InitialDeposit, in.ContributionAmount)
	} else {
		h = portfolio.Holding{
			Ticker:             utils.NormalizeTicker(in.Ticker),
			Rate:               *in.Rate,
			InitialDeposit:     in.InitialDeposit,
			ContributionAmount: in.ContributionAmount,
		}
	}
	return h, h.Validate()
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}
