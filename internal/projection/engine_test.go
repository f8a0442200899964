package projection

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func monthly(p, pmt, rate, years float64) Spec {
	return Spec{
		InitialDeposit:        p,
		ContributionAmount:    pmt,
		Rate:                  rate,
		CompoundFrequency:     Monthly,
		ContributionFrequency: Monthly,
		Years:                 years,
	}
}

// ── Compute ──

func TestComputeScenario(t *testing.T) {
	res, err := Compute(monthly(1000, 100, 5, 3))
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if res.Invested != 4600 {
		t.Errorf("Invested = %f, want 4600", res.Invested)
	}
	if res.FinalCapital <= 4600 {
		t.Errorf("FinalCapital = %f, want > 4600", res.FinalCapital)
	}
	if !approxEqual(res.FinalCapital, 5036.8058, 1e-3) {
		t.Errorf("FinalCapital = %f, want ~5036.8058", res.FinalCapital)
	}
	if res.Profit != res.FinalCapital-4600 {
		t.Errorf("Profit = %f, want FinalCapital-4600", res.Profit)
	}
}

func TestComputeZeroRate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"monthly", monthly(1000, 100, 0, 3)},
		{"fractional years", Spec{InitialDeposit: 250, ContributionAmount: 40, CompoundFrequency: Annually, ContributionFrequency: Quarterly, Years: 2.5}},
		{"no contributions", Spec{InitialDeposit: 500, CompoundFrequency: Semiannually, ContributionFrequency: Annually, Years: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			want := tt.spec.InitialDeposit + tt.spec.ContributionAmount*tt.spec.ContributionFrequency.PerYear()*tt.spec.Years
			if res.FinalCapital != want {
				t.Errorf("FinalCapital = %v, want exactly %v", res.FinalCapital, want)
			}
			if res.Profit != 0 {
				t.Errorf("Profit = %v, want 0", res.Profit)
			}
		})
	}
}

func TestComputePositiveRateBeatsInvested(t *testing.T) {
	for _, n := range Frequencies() {
		for _, m := range Frequencies() {
			spec := Spec{
				InitialDeposit:        1500,
				ContributionAmount:    75,
				Rate:                  4.2,
				CompoundFrequency:     n,
				ContributionFrequency: m,
				Years:                 6.5,
			}
			res, err := Compute(spec)
			if err != nil {
				t.Fatalf("%s/%s: %v", n, m, err)
			}
			if !(res.FinalCapital > res.Invested) {
				t.Errorf("%s/%s: final %f not > invested %f", n, m, res.FinalCapital, res.Invested)
			}
		}
	}
}

func TestComputeKnownValues(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want float64
	}{
		{"annual deposit only", Spec{InitialDeposit: 1000, Rate: 10, CompoundFrequency: Annually, ContributionFrequency: Annually, Years: 2}, 1210},
		{"single annual contribution", Spec{ContributionAmount: 100, Rate: 12, CompoundFrequency: Monthly, ContributionFrequency: Annually, Years: 1}, 100},
		{"quarterly compounding monthly contributions", Spec{InitialDeposit: 10000, Rate: 6, CompoundFrequency: Quarterly, ContributionFrequency: Monthly, Years: 10}, 18140.1841},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			if !approxEqual(res.FinalCapital, tt.want, 1e-3) {
				t.Errorf("FinalCapital = %f, want %f", res.FinalCapital, tt.want)
			}
		})
	}
}

func TestComputeTinyRates(t *testing.T) {
	for _, rate := range []float64{1e-12, 1e-14, 1e-17, 1e-300, 5e-324} {
		for _, n := range Frequencies() {
			for _, m := range Frequencies() {
				spec := Spec{InitialDeposit: 1000, ContributionAmount: 100, Rate: rate, CompoundFrequency: n, ContributionFrequency: m, Years: 3}
				if err := spec.Validate(); err != nil {
					t.Fatalf("rate %g: %v", rate, err)
				}
				p, err := Project(spec)
				if err != nil {
					t.Fatalf("rate %g %s/%s: %v", rate, n, m, err)
				}
				if math.IsNaN(p.FinalCapital) || math.IsInf(p.FinalCapital, 0) {
					t.Fatalf("rate %g %s/%s: FinalCapital = %v", rate, n, m, p.FinalCapital)
				}
				if !approxEqual(p.FinalCapital, p.Invested, 1e-6) {
					t.Errorf("rate %g %s/%s: FinalCapital = %v, want ~%v", rate, n, m, p.FinalCapital, p.Invested)
				}
				for i, c := range p.Breakdown.Capital {
					if math.IsNaN(c) {
						t.Fatalf("rate %g %s/%s: breakdown[%d] is NaN", rate, n, m, i)
					}
				}
			}
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	spec := Spec{InitialDeposit: 1234.56, ContributionAmount: 78.9, Rate: 7.3, CompoundFrequency: Quarterly, ContributionFrequency: Monthly, Years: 12.25}
	a, err := Compute(spec)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Compute(spec)
	if math.Float64bits(a.FinalCapital) != math.Float64bits(b.FinalCapital) ||
		math.Float64bits(a.Invested) != math.Float64bits(b.Invested) ||
		math.Float64bits(a.Profit) != math.Float64bits(b.Profit) {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}

func TestComputePassesSpecThrough(t *testing.T) {
	spec := monthly(10, 1, 3, 2)
	spec.InvestmentCount = 4
	res, err := Compute(spec)
	if err != nil {
		t.Fatal(err)
	}
	if res.Spec != spec {
		t.Errorf("Spec = %+v, want %+v", res.Spec, spec)
	}
}

func TestComputePreconditions(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"zero compound frequency", Spec{ContributionFrequency: Monthly, Years: 1}},
		{"zero contribution frequency", Spec{CompoundFrequency: Monthly, Years: 1}},
		{"unknown frequency", Spec{CompoundFrequency: Frequency(52), ContributionFrequency: Monthly, Years: 1}},
		{"zero years", monthly(1, 1, 1, 0)},
		{"negative years", monthly(1, 1, 1, -2)},
		{"infinite years", monthly(1, 1, 1, math.Inf(1))},
		{"NaN rate", monthly(1, 1, math.NaN(), 1)},
		{"infinite deposit", monthly(math.Inf(1), 1, 1, 1)},
		{"infinite rate", monthly(1, 1, math.Inf(1), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compute(tt.spec); !errors.Is(err, ErrPrecondition) {
				t.Errorf("Compute() error = %v, want ErrPrecondition", err)
			}
			if _, err := AnnualBreakdown(tt.spec); !errors.Is(err, ErrPrecondition) {
				t.Errorf("AnnualBreakdown() error = %v, want ErrPrecondition", err)
			}
		})
	}
}

// ── AnnualBreakdown ──

func TestAnnualBreakdownShape(t *testing.T) {
	tests := []struct {
		years   float64
		wantLen int
	}{
		{0.5, 1},
		{1, 2},
		{3, 4},
		{3.99, 4},
		{10, 11},
	}
	for _, tt := range tests {
		spec := monthly(1000, 50, 5, tt.years)
		b, err := AnnualBreakdown(spec)
		if err != nil {
			t.Fatal(err)
		}
		if len(b.Years) != tt.wantLen || len(b.Capital) != tt.wantLen {
			t.Errorf("years=%v: len(Years)=%d len(Capital)=%d, want %d", tt.years, len(b.Years), len(b.Capital), tt.wantLen)
			continue
		}
		for i, y := range b.Years {
			if y != i {
				t.Errorf("years=%v: Years[%d] = %d", tt.years, i, y)
			}
		}
		if b.Capital[0] != spec.InitialDeposit {
			t.Errorf("years=%v: Capital[0] = %v, want %v", tt.years, b.Capital[0], spec.InitialDeposit)
		}
	}
}

func TestAnnualBreakdownMatchesCompute(t *testing.T) {
	spec := Spec{InitialDeposit: 2000, ContributionAmount: 150, Rate: 6.5, CompoundFrequency: Quarterly, ContributionFrequency: Monthly, Years: 8}
	b, err := AnnualBreakdown(spec)
	if err != nil {
		t.Fatal(err)
	}
	for i, year := range b.Years {
		at := spec
		if year == 0 {
			continue
		}
		at.Years = float64(year)
		res, _ := Compute(at)
		if res.FinalCapital != b.Capital[i] {
			t.Errorf("year %d: breakdown %v != compute %v", year, b.Capital[i], res.FinalCapital)
		}
	}
}

func TestAnnualBreakdownMonotonic(t *testing.T) {
	tests := []struct {
		name   string
		spec   Spec
		strict bool
	}{
		{"positive rate", monthly(1000, 0, 4, 15), true},
		{"contributions only", monthly(0, 100, 0, 15), true},
		{"both", Spec{InitialDeposit: 500, ContributionAmount: 20, Rate: 9, CompoundFrequency: Annually, ContributionFrequency: Quarterly, Years: 20}, true},
		{"flat", monthly(1000, 0, 0, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := AnnualBreakdown(tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			for i := 1; i < len(b.Capital); i++ {
				if b.Capital[i] < b.Capital[i-1] {
					t.Fatalf("capital decreased at year %d: %v < %v", i, b.Capital[i], b.Capital[i-1])
				}
				if tt.strict && !(b.Capital[i] > b.Capital[i-1]) {
					t.Fatalf("capital not strictly increasing at year %d", i)
				}
			}
		})
	}
}

func TestInvestedSeries(t *testing.T) {
	spec := monthly(1000, 100, 5, 3)
	b, _ := AnnualBreakdown(spec)
	got := InvestedSeries(spec, b)
	want := []float64{1000, 2200, 3400, 4600}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("InvestedSeries[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProject(t *testing.T) {
	p, err := Project(monthly(1000, 100, 5, 3))
	if err != nil {
		t.Fatal(err)
	}
	if p.Invested != 4600 {
		t.Errorf("Invested = %v", p.Invested)
	}
	last := p.Breakdown.Capital[len(p.Breakdown.Capital)-1]
	if last != p.FinalCapital {
		t.Errorf("last breakdown point %v != final capital %v", last, p.FinalCapital)
	}
}

// ── Validation ──

func TestSpecValidate(t *testing.T) {
	valid := monthly(0, 0, 0, 1)
	if err := valid.Validate(); err != nil {
		t.Fatalf("zero amounts should be valid: %v", err)
	}

	tests := []struct {
		name  string
		mut   func(*Spec)
		field string
		msg   string
	}{
		{"negative deposit", func(s *Spec) { s.InitialDeposit = -1 }, "initial_deposit", "initial deposit cannot be negative"},
		{"negative contribution", func(s *Spec) { s.ContributionAmount = -1 }, "contribution_amount", "contribution amount cannot be negative"},
		{"negative rate", func(s *Spec) { s.Rate = -0.5 }, "rate", "rate cannot be negative"},
		{"bad compound", func(s *Spec) { s.CompoundFrequency = 3 }, "compound_frequency", "invalid frequency: 3"},
		{"bad contribution freq", func(s *Spec) { s.ContributionFrequency = 0 }, "contribution_frequency", "invalid frequency: 0"},
		{"zero years", func(s *Spec) { s.Years = 0 }, "years", "years must be a positive number"},
		{"infinite deposit", func(s *Spec) { s.InitialDeposit = math.Inf(1) }, "initial_deposit", "initial deposit must be a finite number"},
		{"infinite contribution", func(s *Spec) { s.ContributionAmount = math.Inf(1) }, "contribution_amount", "contribution amount must be a finite number"},
		{"infinite rate", func(s *Spec) { s.Rate = math.Inf(1) }, "rate", "rate must be a finite number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mut(&s)
			err := s.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field || ve.Message != tt.msg {
				t.Errorf("got (%q, %q), want (%q, %q)", ve.Field, ve.Message, tt.field, tt.msg)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("expected errors.Is(err, ErrValidation)")
			}
		})
	}
}

func TestParseYears(t *testing.T) {
	good := map[string]float64{"5": 5, "10.5": 10.5, "  1  ": 1}
	for in, want := range good {
		got, err := ParseYears(in)
		if err != nil || got != want {
			t.Errorf("ParseYears(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	bad := map[string]string{
		"0":            "years must be a positive number",
		"-5":           "years must be a positive number",
		"not_a_number": "please enter a valid number for years",
		"NaN":          "years must be a positive number",
	}
	for in, msg := range bad {
		_, err := ParseYears(in)
		if err == nil || err.Error() != msg {
			t.Errorf("ParseYears(%q) error = %v, want %q", in, err, msg)
		}
	}
}
