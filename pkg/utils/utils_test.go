package utils

import "testing"

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" spy ", "SPY"},
		{"$msft", "MSFT"},
		{"brk-b", "BRK-B"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTicker(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"sp500", "^GSPC"},
		{"Nasdaq", "^IXIC"},
		{"^GSPC", "^GSPC"},
		{"VWCE.DE", "VWCE.DE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ToYahooSymbol(tt.input)
			if result != tt.expected {
				t.Errorf("ToYahooSymbol(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsIndex(t *testing.T) {
	if !IsIndex("dow") {
		t.Error("DOW should be an index")
	}
	if IsIndex("AAPL") {
		t.Error("AAPL should not be an index")
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45%"},
		{0, "+0.00%"},
		{-1.23, "-1.23%"},
	}
	for _, tt := range tests {
		if got := FormatPct(tt.input); got != tt.expected {
			t.Errorf("FormatPct(%v) = %s, want %s", tt.input, got, tt.expected)
		}
	}
	if got := FormatRate(6.3333); got != "6.33%" {
		t.Errorf("FormatRate = %s", got)
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "500.00"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
		{1000000000, "1B"},
		{-12000, "-12K"},
		{3.2e12, "3.2T"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatCompact(tt.input); got != tt.expected {
				t.Errorf("FormatCompact(%f) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatGrouped(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0.00"},
		{100, "100.00"},
		{1000, "1,000.00"},
		{1234567.891, "1,234,567.89"},
		{-4600, "-4,600.00"},
		{999999.999, "1,000,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatGrouped(tt.input); got != tt.expected {
				t.Errorf("FormatGrouped(%f) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
