package portfolio

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/seenimoa/growthcast/internal/projection"
)

func TestHoldingValidate(t *testing.T) {
	tests := []struct {
		name string
		h    Holding
		msg  string
	}{
		{"valid", Holding{InitialDeposit: 1000, ContributionAmount: 100, Rate: 0.07, Ticker: "SPY"}, ""},
		{"zeros allowed", Holding{}, ""},
		{"negative deposit", Holding{InitialDeposit: -1000, ContributionAmount: 100, Rate: 0.07}, "initial deposit cannot be negative"},
		{"negative contribution", Holding{InitialDeposit: 1000, ContributionAmount: -100, Rate: 0.07}, "contribution amount cannot be negative"},
		{"negative rate", Holding{InitialDeposit: 1000, ContributionAmount: 100, Rate: -0.05}, "rate cannot be negative"},
		{"pending ignores rate", Holding{Rate: -1, Status: RatePending}, ""},
		{"infinite deposit", Holding{InitialDeposit: math.Inf(1)}, "initial deposit must be a finite number"},
		{"infinite contribution", Holding{ContributionAmount: math.Inf(1)}, "contribution amount must be a finite number"},
		{"infinite rate", Holding{Rate: math.Inf(1)}, "rate must be a finite number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.h.Validate()
			if tt.msg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.msg {
				t.Fatalf("Validate() = %v, want %q", err, tt.msg)
			}
			if !errors.Is(err, projection.ErrValidation) {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseHolding(t *testing.T) {
	h, err := ParseHolding("spy", "0.07", "1000", "100")
	if err != nil {
		t.Fatal(err)
	}
	if h.Ticker != "SPY" || h.Rate != 0.07 || h.InitialDeposit != 1000 || h.ContributionAmount != 100 {
		t.Errorf("ParseHolding = %+v", h)
	}
	if h.Status != RateResolved {
		t.Error("expected resolved status")
	}
}

func TestParseHoldingRejectsInfinity(t *testing.T) {
	for _, field := range []string{"rate", "initial", "contribution"} {
		rate, initial, contrib := "5", "1000", "100"
		switch field {
		case "rate":
			rate = "Inf"
		case "initial":
			initial = "+Inf"
		case "contribution":
			contrib = "inf"
		}
		if _, err := ParseHolding("SPY", rate, initial, contrib); !errors.Is(err, projection.ErrValidation) {
			t.Errorf("%s: ParseHolding error = %v, want validation error", field, err)
		}
	}
}

func TestParseHoldingPending(t *testing.T) {
	h, err := ParseHolding("aapl", "", "1000", "")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != RatePending || h.Ticker != "AAPL" || h.ContributionAmount != 0 {
		t.Errorf("ParseHolding = %+v", h)
	}
}

func TestParseHoldingErrors(t *testing.T) {
	tests := []struct {
		name                      string
		ticker, rate, dep, contrib string
		want                      string
	}{
		{"bad number", "", "0.07", "not_a_number", "100", "invalid investment data"},
		{"no rate no ticker", "", "", "1000", "100", "a rate or a ticker is required"},
		{"negative", "X", "1", "-5", "0", "initial deposit cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHolding(tt.ticker, tt.rate, tt.dep, tt.contrib)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
			if !errors.Is(err, projection.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseHoldingFlag(t *testing.T) {
	h, err := ParseHoldingFlag("VTI:6.5:2000:150")
	if err != nil {
		t.Fatal(err)
	}
	if h.Ticker != "VTI" || h.Rate != 6.5 || h.InitialDeposit != 2000 || h.ContributionAmount != 150 {
		t.Errorf("ParseHoldingFlag = %+v", h)
	}

	h, err = ParseHoldingFlag("qqq::500:50")
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != RatePending {
		t.Error("empty rate should be pending")
	}

	if _, err := ParseHoldingFlag("VTI:6.5"); err == nil {
		t.Error("expected error for short form")
	}
}
