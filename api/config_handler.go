package api

import (
	"net/http"

	"github.com/seenimoa/growthcast/internal/config"
	"github.com/seenimoa/growthcast/internal/projection"
)

// ProjectionDefaults is the JSON form of config.ProjectionConfig.
type ProjectionDefaults struct {
	Years                 float64 `json:"years,omitempty"`
	CompoundFrequency     string  `json:"compound_frequency,omitempty"`
	ContributionFrequency string  `json:"contribution_frequency,omitempty"`
	Currency              string  `json:"currency,omitempty"`
}

// RateSettings is the read-only view of config.RatesConfig.
type RateSettings struct {
	Provider          string  `json:"provider"`
	Source            string  `json:"source"`
	From              string  `json:"from"`
	To                string  `json:"to"`
	MaxRetries        int     `json:"max_retries"`
	RetryDelaySeconds float64 `json:"retry_delay_seconds"`
	ConcurrentFetches int     `json:"concurrent_fetches"`
}

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Projection ProjectionDefaults `json:"projection"`
	Rates      RateSettings       `json:"rates"`
}

// handleGetConfig returns the running configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.RLock()
	resp := s.configResponse()
	s.cfgMu.RUnlock()
	writeData(w, http.StatusOK, resp)
}

// handleUpdateConfig merges non-zero projection defaults into the running
// config. Changes are not persisted.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var incoming ProjectionDefaults
	if err := decodeJSON(r, &incoming); err != nil {
		s.writeErr(w, err)
		return
	}

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	next := s.cfg.Projection
	mergeProjection(&next, incoming)
	if _, _, err := next.Frequencies(); err != nil {
		s.writeErr(w, err)
		return
	}
	if err := projection.ValidateYears(next.Years); err != nil {
		s.writeErr(w, err)
		return
	}
	s.cfg.Projection = next

	writeData(w, http.StatusOK, s.configResponse())
}

func (s *Server) configResponse() ConfigResponse {
	p, rc := s.cfg.Projection, s.cfg.Rates
	return ConfigResponse{
		Projection: ProjectionDefaults{
			Years:                 p.Years,
			CompoundFrequency:     p.CompoundFrequency,
			ContributionFrequency: p.ContributionFrequency,
			Currency:              p.Currency,
		},
		Rates: RateSettings{
			Provider:          rc.Provider,
			Source:            s.rates.Name(),
			From:              rc.From,
			To:                rc.To,
			MaxRetries:        rc.MaxRetries,
			RetryDelaySeconds: rc.RetryDelay.Seconds(),
			ConcurrentFetches: rc.ConcurrentFetches,
		},
	}
}

// mergeProjection copies non-zero/non-empty values from src into dst.
func mergeProjection(dst *config.ProjectionConfig, src ProjectionDefaults) {
	if src.Years != 0 {
		dst.Years = src.Years
	}
	if src.CompoundFrequency != "" {
		dst.CompoundFrequency = src.CompoundFrequency
	}
	if src.ContributionFrequency != "" {
		dst.ContributionFrequency = src.ContributionFrequency
	}
	if src.Currency != "" {
		dst.Currency = src.Currency
	}
}
