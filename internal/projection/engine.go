// Package projection computes compound growth with periodic contributions.
//
// Every function here is pure: no I/O, no shared state, safe for concurrent
// use. Inputs are validated at the boundary (Spec.Validate or the portfolio
// aggregator); once a Spec exists the engine only checks the preconditions it
// needs for arithmetic safety and reports violations as ErrPrecondition.
package projection

import (
	"fmt"
	"math"
)

// Spec is the single-holding-equivalent description of an investment.
type Spec struct {
	InitialDeposit        float64   `json:"initial_deposit"`
	ContributionAmount    float64   `json:"contribution_amount"`
	Rate                  float64   `json:"rate"` // annual, percent
	CompoundFrequency     Frequency `json:"compound_frequency"`
	ContributionFrequency Frequency `json:"contribution_frequency"`
	Years                 float64   `json:"years"`
	InvestmentCount       int       `json:"investment_count,omitempty"`
}

// Result holds the aggregate outcome of a projection. Spec is carried for
// display only and is never recomputed.
type Result struct {
	Spec         Spec    `json:"spec"`
	Invested     float64 `json:"invested"`
	FinalCapital float64 `json:"final_capital"`
	Profit       float64 `json:"profit"`
}

// Breakdown is the capital at the end of each whole year, starting at year 0.
type Breakdown struct {
	Years   []int     `json:"years"`
	Capital []float64 `json:"capital"`
}

// Projection bundles a Result with its annual breakdown.
type Projection struct {
	Result
	Breakdown Breakdown `json:"breakdown"`
}

// Validate checks the user-facing invariants of a directly entered spec.
// It returns the first violation as a *ValidationError.
func (s Spec) Validate() error {
	switch {
	case s.InitialDeposit < 0 || math.IsNaN(s.InitialDeposit):
		return &ValidationError{Field: "initial_deposit", Message: "initial deposit cannot be negative"}
	case math.IsInf(s.InitialDeposit, 0):
		return &ValidationError{Field: "initial_deposit", Message: "initial deposit must be a finite number"}
	case s.ContributionAmount < 0 || math.IsNaN(s.ContributionAmount):
		return &ValidationError{Field: "contribution_amount", Message: "contribution amount cannot be negative"}
	case math.IsInf(s.ContributionAmount, 0):
		return &ValidationError{Field: "contribution_amount", Message: "contribution amount must be a finite number"}
	case s.Rate < 0 || math.IsNaN(s.Rate):
		return &ValidationError{Field: "rate", Message: "rate cannot be negative"}
	case math.IsInf(s.Rate, 0):
		return &ValidationError{Field: "rate", Message: "rate must be a finite number"}
	case !s.CompoundFrequency.Valid():
		return &ValidationError{Field: "compound_frequency", Message: fmt.Sprintf("invalid frequency: %d", int(s.CompoundFrequency))}
	case !s.ContributionFrequency.Valid():
		return &ValidationError{Field: "contribution_frequency", Message: fmt.Sprintf("invalid frequency: %d", int(s.ContributionFrequency))}
	}
	return ValidateYears(s.Years)
}

// Compute returns invested capital, final capital and profit for spec.
//
// With r = rate/100, n compounding and m contribution periods per year:
//
//	invested = P + PMT·m·t
//	final    = P·(1+r/n)^(n·t) + PMT·((1+i)^(m·t) − 1)/i,  i = (1+r/n)^(n/m) − 1
//
// and final = invested when r == 0.
func Compute(spec Spec) (Result, error) {
	if err := checkPreconditions(spec); err != nil {
		return Result{}, err
	}
	invested := investedAt(spec, spec.Years)
	final := capitalAt(spec, spec.Years)
	return Result{
		Spec:         spec,
		Invested:     invested,
		FinalCapital: final,
		Profit:       final - invested,
	}, nil
}

// AnnualBreakdown evaluates the closed form at every whole year from 0 to
// floor(spec.Years). Each point is computed independently, so there is no
// drift from incremental updates and capital[0] is the initial deposit.
func AnnualBreakdown(spec Spec) (Breakdown, error) {
	if err := checkPreconditions(spec); err != nil {
		return Breakdown{}, err
	}
	last := int(math.Floor(spec.Years))
	b := Breakdown{
		Years:   make([]int, 0, last+1),
		Capital: make([]float64, 0, last+1),
	}
	for year := 0; year <= last; year++ {
		b.Years = append(b.Years, year)
		b.Capital = append(b.Capital, capitalAt(spec, float64(year)))
	}
	return b, nil
}

// InvestedSeries returns the undiscounted principal contributed by the end of
// each year in the breakdown. It is used to plot capital against principal.
func InvestedSeries(spec Spec, b Breakdown) []float64 {
	out := make([]float64, len(b.Years))
	for i, year := range b.Years {
		out[i] = investedAt(spec, float64(year))
	}
	return out
}

// Project runs Compute and AnnualBreakdown on the same spec.
func Project(spec Spec) (Projection, error) {
	res, err := Compute(spec)
	if err != nil {
		return Projection{}, err
	}
	b, err := AnnualBreakdown(spec)
	if err != nil {
		return Projection{}, err
	}
	return Projection{Result: res, Breakdown: b}, nil
}

func investedAt(spec Spec, t float64) float64 {
	return spec.InitialDeposit + spec.ContributionAmount*spec.ContributionFrequency.PerYear()*t
}

func capitalAt(spec Spec, t float64) float64 {
	r := spec.Rate / 100
	if r == 0 {
		return investedAt(spec, t)
	}
	n := spec.CompoundFrequency.PerYear()
	m := spec.ContributionFrequency.PerYear()

	// Work in log space: 1+r/n rounds to 1 for tiny rates, which would
	// leave i == 0 and the annuity term at 0/0.
	lg := math.Log1p(r / n)
	growth := math.Expm1(n * t * lg) // (1+r/n)^(n·t) − 1 == (1+i)^(m·t) − 1
	deposit := spec.InitialDeposit * (1 + growth)
	i := math.Expm1(n / m * lg)
	if i == 0 {
		return deposit + spec.ContributionAmount*m*t
	}
	return deposit + spec.ContributionAmount*growth/i
}

func checkPreconditions(spec Spec) error {
	switch {
	case !spec.CompoundFrequency.Valid():
		return fmt.Errorf("%w: compound frequency %d", ErrPrecondition, int(spec.CompoundFrequency))
	case !spec.ContributionFrequency.Valid():
		return fmt.Errorf("%w: contribution frequency %d", ErrPrecondition, int(spec.ContributionFrequency))
	case !(spec.Years > 0) || isInf(spec.Years):
		return fmt.Errorf("%w: years must be positive and finite, got %v", ErrPrecondition, spec.Years)
	case !isFinite(spec.Rate) || !isFinite(spec.InitialDeposit) || !isFinite(spec.ContributionAmount):
		return fmt.Errorf("%w: non-finite amount or rate in spec", ErrPrecondition)
	}
	return nil
}

func isInf(f float64) bool { return math.IsInf(f, 0) }

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
