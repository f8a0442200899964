package portfolio

import (
	"fmt"

	"github.com/seenimoa/growthcast/internal/projection"
)

// Params are the settings shared by every holding in one calculation.
type Params struct {
	CompoundFrequency     projection.Frequency `json:"compound_frequency"`
	ContributionFrequency projection.Frequency `json:"contribution_frequency"`
	Years                 float64              `json:"years"`
}

// Validate checks frequency membership and a positive horizon.
func (p Params) Validate() error {
	if !p.CompoundFrequency.Valid() {
		return &projection.ValidationError{Field: "compound_frequency", Message: fmt.Sprintf("invalid frequency: %d", int(p.CompoundFrequency))}
	}
	if !p.ContributionFrequency.Valid() {
		return &projection.ValidationError{Field: "contribution_frequency", Message: fmt.Sprintf("invalid frequency: %d", int(p.ContributionFrequency))}
	}
	return projection.ValidateYears(p.Years)
}

// Weight is the capital h will have put in by the horizon, undiscounted.
// It is only an averaging weight, not a financial quantity.
func Weight(h Holding, contribution projection.Frequency, years float64) float64 {
	return h.InitialDeposit + h.ContributionAmount*contribution.PerYear()*years
}

// WeightedRate averages the holdings' rates by Weight. It is 0 when every
// weight is zero.
func WeightedRate(holdings []Holding, contribution projection.Frequency, years float64) float64 {
	var weightedSum, totalWeight float64
	for _, h := range holdings {
		w := Weight(h, contribution, years)
		weightedSum += h.Rate * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// Totals sums initial deposits and contribution amounts.
func Totals(holdings []Holding) (initial, contribution float64) {
	for _, h := range holdings {
		initial += h.InitialDeposit
		contribution += h.ContributionAmount
	}
	return initial, contribution
}

// Aggregate collapses holdings into one projection.Spec with a single blended
// rate.
//
// Projecting the aggregate approximates, but does not equal, projecting each
// holding on its own rate and summing: compounding is convex in the rate, so
// the blended figure is slightly lower than the per-holding sum whenever the
// rates differ. This is a known modeling limitation and is kept on purpose.
func Aggregate(holdings []Holding, p Params) (projection.Spec, error) {
	if len(holdings) == 0 {
		return projection.Spec{}, &projection.ValidationError{Field: "investments", Message: "at least one investment is required"}
	}
	if err := p.Validate(); err != nil {
		return projection.Spec{}, err
	}
	for i, h := range holdings {
		if err := h.Validate(); err != nil {
			return projection.Spec{}, fmt.Errorf("investment %d: %w", i+1, err)
		}
		if h.Status == RatePending {
			return projection.Spec{}, fmt.Errorf("%w: investment %d (%s) has no resolved rate", projection.ErrPrecondition, i+1, h.Ticker)
		}
	}

	initial, contribution := Totals(holdings)
	return projection.Spec{
		InitialDeposit:        initial,
		ContributionAmount:    contribution,
		Rate:                  WeightedRate(holdings, p.ContributionFrequency, p.Years),
		CompoundFrequency:     p.CompoundFrequency,
		ContributionFrequency: p.ContributionFrequency,
		Years:                 p.Years,
		InvestmentCount:       len(holdings),
	}, nil
}

// Project aggregates holdings and runs the projection engine on the result.
func Project(holdings []Holding, p Params) (projection.Projection, error) {
	spec, err := Aggregate(holdings, p)
	if err != nil {
		return projection.Projection{}, err
	}
	return projection.Project(spec)
}

// PendingTickers lists the tickers of holdings still awaiting a rate.
func PendingTickers(holdings []Holding) []string {
	var out []string
	for _, h := range holdings {
		if h.Status == RatePending {
			out = append(out, h.Ticker)
		}
	}
	return out
}

// Standalone projects h on its own with the shared parameters. A pending
// holding is a precondition violation.
func Standalone(h Holding, p Params) (projection.Result, error) {
	if h.Status == RatePending {
		return projection.Result{}, fmt.Errorf("%w: rate for %s is still pending", projection.ErrPrecondition, h.Ticker)
	}
	return projection.Compute(projection.Spec{
		InitialDeposit:        h.InitialDeposit,
		ContributionAmount:    h.ContributionAmount,
		Rate:                  h.Rate,
		CompoundFrequency:     p.CompoundFrequency,
		ContributionFrequency: p.ContributionFrequency,
		Years:                 p.Years,
	})
}
