// Package portfolio reduces a list of individual holdings into the single
// normalized spec the projection engine consumes.
package portfolio

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// RateStatus tells whether a holding's rate is usable yet.
type RateStatus int

const (
	// RateResolved is the zero value: the rate was entered or looked up.
	RateResolved RateStatus = iota
	// RatePending means a ticker lookup has not completed.
	RatePending
)

func (s RateStatus) String() string {
	if s == RatePending {
		return "pending"
	}
	return "resolved"
}

// Holding is one investment line item.
type Holding struct {
	Ticker             string     `json:"ticker"`
	Rate               float64    `json:"rate"` // annual, percent
	InitialDeposit     float64    `json:"initial_deposit"`
	ContributionAmount float64    `json:"contribution_amount"`
	Status             RateStatus `json:"-"`
}

// Pending returns a holding whose rate still has to be looked up for ticker.
func Pending(ticker string, initialDeposit, contribution float64) Holding {
	return Holding{
		Ticker:             utils.NormalizeTicker(ticker),
		InitialDeposit:     initialDeposit,
		ContributionAmount: contribution,
		Status:             RatePending,
	}
}

// Validate checks that every numeric field is finite and non-negative. The first
// violation is returned as a *projection.ValidationError.
func (h Holding) Validate() error {
	switch {
	case h.InitialDeposit < 0 || math.IsNaN(h.InitialDeposit):
		return &projection.ValidationError{Field: "initial_deposit", Message: "initial deposit cannot be negative"}
	case math.IsInf(h.InitialDeposit, 0):
		return &projection.ValidationError{Field: "initial_deposit", Message: "initial deposit must be a finite number"}
	case h.ContributionAmount < 0 || math.IsNaN(h.ContributionAmount):
		return &projection.ValidationError{Field: "contribution_amount", Message: "contribution amount cannot be negative"}
	case math.IsInf(h.ContributionAmount, 0):
		return &projection.ValidationError{Field: "contribution_amount", Message: "contribution amount must be a finite number"}
	case h.Status == RateResolved && (h.Rate < 0 || math.IsNaN(h.Rate)):
		return &projection.ValidationError{Field: "rate", Message: "rate cannot be negative"}
	case h.Status == RateResolved && math.IsInf(h.Rate, 0):
		return &projection.ValidationError{Field: "rate", Message: "rate must be a finite number"}
	}
	return nil
}

// WithRate returns a copy of h carrying a resolved rate.
func (h Holding) WithRate(rate float64) Holding {
	h.Rate = rate
	h.Status = RateResolved
	return h
}

// ParseHolding builds a validated holding from raw text fields, as they come
// from a form or command line. An empty rate with a ticker yields a pending
// holding.
func ParseHolding(ticker, rate, initialDeposit, contribution string) (Holding, error) {
	h := Holding{Ticker: utils.NormalizeTicker(ticker)}

	var err error
	if h.InitialDeposit, err = parseAmount(initialDeposit); err != nil {
		return Holding{}, fmt.Errorf("invalid investment data: initial deposit: %w", err)
	}
	if h.ContributionAmount, err = parseAmount(contribution); err != nil {
		return Holding{}, fmt.Errorf("invalid investment data: contribution amount: %w", err)
	}

	switch {
	case strings.TrimSpace(rate) != "":
		if h.Rate, err = parseAmount(rate); err != nil {
			return Holding{}, fmt.Errorf("invalid investment data: rate: %w", err)
		}
	case h.Ticker != "":
		h.Status = RatePending
	default:
		return Holding{}, &projection.ValidationError{Field: "rate", Message: "invalid investment data: a rate or a ticker is required"}
	}

	if err := h.Validate(); err != nil {
		return Holding{}, err
	}
	return h, nil
}

// ParseHoldingFlag parses the compact "TICKER:RATE:INITIAL:CONTRIBUTION" form
// used on the command line. RATE may be empty to request a lookup.
func ParseHoldingFlag(s string) (Holding, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Holding{}, &projection.ValidationError{
			Field:   "holding",
			Message: fmt.Sprintf("invalid holding %q: want TICKER:RATE:INITIAL:CONTRIBUTION", s),
		}
	}
	return ParseHolding(parts[0], parts[1], parts[2], parts[3])
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &projection.ValidationError{Field: "amount", Message: fmt.Sprintf("%q is not a number", s)}
	}
	return v, nil
}
