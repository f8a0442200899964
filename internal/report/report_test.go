package report

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/seenimoa/growthcast/internal/portfolio"
	"github.com/seenimoa/growthcast/internal/projection"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleProjection(t *testing.T) projection.Projection {
	t.Helper()
	p, err := projection.Project(projection.Spec{
		InitialDeposit:        10000,
		ContributionAmount:    500,
		Rate:                  7,
		CompoundFrequency:     projection.Monthly,
		ContributionFrequency: projection.Monthly,
		Years:                 5,
	})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	return p
}

func sampleParams() portfolio.Params {
	return portfolio.Params{
		CompoundFrequency:     projection.Annually,
		ContributionFrequency: projection.Annually,
		Years:                 3,
	}
}

// ════════════════════════════════════════════════════════════════════
// Money
// ════════════════════════════════════════════════════════════════════

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{1234.5, "USD", "$1,234.50"},
		{1234.5, "usd", "$1,234.50"},
		{0, "", "$0.00"},
		{1000000, "USD", "$1,000,000.00"},
		{0.005, "USD", "$0.01"},
		{1234.5, "XYZ", "1,234.50 XYZ"},
	}
	for _, tt := range tests {
		got := FormatMoney(tt.amount, tt.currency)
		if got != tt.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestGrowthChart(t *testing.T) {
	svg := GrowthChart(sampleProjection(t), ChartConfig{})
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete SVG document")
	}
	for _, want := range []string{"Growth over 5 years at 7.00%", "Capital", "Invested", "Y0", "Y5"} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected %q in growth chart", want)
		}
	}
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected two series paths, got %d", strings.Count(svg, "<path"))
	}
}

func TestGrowthChart_CustomTitle(t *testing.T) {
	cfg := DefaultChartConfig()
	cfg.Title = "Retirement <plan>"
	svg := GrowthChart(sampleProjection(t), cfg)
	if !strings.Contains(svg, "Retirement &lt;plan&gt;") {
		t.Error("expected escaped custom title")
	}
}

func TestLineChart_Basic(t *testing.T) {
	series := []LineChartSeries{
		{Name: "Capital", Values: []float64{100, 105, 102, 110, 108}, Color: "#2196f3"},
		{Name: "Invested", Values: []float64{100, 103, 101, 106, 104}, Color: "#ff9800"},
	}
	labels := []string{"Y0", "Y1", "Y2", "Y3", "Y4"}

	cfg := DefaultChartConfig()
	cfg.Title = "Performance Comparison"

	svg := LineChart(series, labels, cfg)
	if !strings.Contains(svg, "Performance Comparison") {
		t.Error("expected title")
	}
	if !strings.Contains(svg, "Capital") {
		t.Error("expected series name in legend")
	}
	if !strings.Contains(svg, "Invested") {
		t.Error("expected second series name")
	}
}

func TestLineChart_Empty(t *testing.T) {
	svg := LineChart(nil, nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data") {
		t.Error("expected empty message")
	}
	svg = LineChart([]LineChartSeries{{Name: "A"}}, nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data points") {
		t.Error("expected no-points message")
	}
}

func TestLineChart_SinglePoint(t *testing.T) {
	series := []LineChartSeries{{Name: "A", Values: []float64{42}}}
	svg := LineChart(series, nil, DefaultChartConfig())
	if !strings.Contains(svg, "<circle") {
		t.Error("expected a marker for a single point")
	}
	// centered in the plot area: 70 + 670/2
	if !strings.Contains(svg, `cx="405.0"`) {
		t.Error("expected single point to be centered")
	}
}

func TestLineChart_NaN(t *testing.T) {
	series := []LineChartSeries{
		{Name: "Test", Values: []float64{10, math.NaN(), 20, math.NaN(), 30}},
	}
	svg := LineChart(series, nil, DefaultChartConfig())
	if !strings.Contains(svg, "path") {
		t.Error("expected path even with NaN values")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("NaN must not leak into the SVG")
	}
}

func TestHorizontalBarChart_Basic(t *testing.T) {
	items := []BarItem{
		{Label: "SPY", Value: 12500},
		{Label: "QQQ", Value: 14300},
		{Label: "BND", Value: 8200},
	}

	cfg := DefaultChartConfig()
	cfg.Title = "Holdings"

	svg := HorizontalBarChart(items, cfg)
	if !strings.Contains(svg, "Holdings") {
		t.Error("expected title")
	}
	if !strings.Contains(svg, "SPY") {
		t.Error("expected label 'SPY'")
	}
	if !strings.Contains(svg, "14.3K") {
		t.Error("expected compact value label")
	}
}

func TestHorizontalBarChart_Empty(t *testing.T) {
	svg := HorizontalBarChart(nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data") {
		t.Error("expected empty message")
	}
}

// ════════════════════════════════════════════════════════════════════
// Holdings
// ════════════════════════════════════════════════════════════════════

func TestHoldingValues(t *testing.T) {
	holdings := []portfolio.Holding{
		{Ticker: "CASH", Rate: 0, InitialDeposit: 1000, ContributionAmount: 100},
		{Ticker: "BOND", Rate: 10, InitialDeposit: 1000},
	}
	values, err := HoldingValues(holdings, sampleParams())
	if err != nil {
		t.Fatalf("HoldingValues: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0].Final != 1300 || values[0].Profit != 0 {
		t.Errorf("zero-rate holding = %+v, want final 1300 and no profit", values[0])
	}
	if math.Abs(values[1].Final-1331) > 1e-6 {
		t.Errorf("10%% annual over 3 years = %v, want 1331", values[1].Final)
	}
}

func TestHoldingValues_Pending(t *testing.T) {
	holdings := []portfolio.Holding{
		{Ticker: "CASH", InitialDeposit: 1},
		portfolio.Pending("spy", 1, 1),
	}
	_, err := HoldingValues(holdings, sampleParams())
	if !errors.Is(err, projection.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if !strings.Contains(err.Error(), "investment 2") {
		t.Errorf("expected position in error, got %v", err)
	}
}

func TestHoldingsChart_UnnamedHolding(t *testing.T) {
	values := []HoldingValue{
		{Holding: portfolio.Holding{Ticker: "SPY"}, Final: 10},
		{Holding: portfolio.Holding{}, Final: 5},
	}
	svg := HoldingsChart(values, ChartConfig{})
	if !strings.Contains(svg, "Final value by holding") {
		t.Error("expected default title")
	}
	if !strings.Contains(svg, "#2") {
		t.Error("expected positional label for holding without ticker")
	}
}

func TestCharts_KeepTitleWithDefaultSize(t *testing.T) {
	tests := []struct {
		name string
		svg  string
	}{
		{"line", LineChart([]LineChartSeries{{Name: "a", Values: []float64{1, 2}}}, nil, ChartConfig{Title: "Custom line"})},
		{"bar", HorizontalBarChart([]BarItem{{Label: "a", Value: 1}}, ChartConfig{Title: "Custom bar"})},
		{"holdings", HoldingsChart([]HoldingValue{{Holding: portfolio.Holding{Ticker: "SPY"}, Final: 1}}, ChartConfig{Title: "Custom holdings"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.svg, "Custom "+tt.name) {
				t.Errorf("title lost:\n%s", tt.svg)
			}
			if !strings.Contains(tt.svg, `width="800"`) {
				t.Error("expected default width")
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Text
// ════════════════════════════════════════════════════════════════════

func TestText_Basic(t *testing.T) {
	text := Text(sampleProjection(t), Options{Breakdown: true})
	for _, want := range []string{
		"Investment Projection",
		"Initial deposit:      $10,000.00",
		"Contribution:         $500.00 Monthly",
		"Annual rate:          7.00%",
		"Years:                5",
		"Total invested:       $40,000.00",
		"Year",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in text report", want)
		}
	}
	if strings.Count(text, "\n  5 ") != 1 {
		t.Error("expected a breakdown row for year 5")
	}
}

func TestText_NoBreakdown(t *testing.T) {
	text := Text(sampleProjection(t), Options{Currency: "USD", Title: "Custom"})
	if !strings.Contains(text, "Custom") {
		t.Error("expected custom title")
	}
	if strings.Contains(text, "Year ") {
		t.Error("breakdown should be omitted")
	}
}

func TestPortfolioText(t *testing.T) {
	holdings := []portfolio.Holding{
		{Ticker: "SPY", Rate: 7, InitialDeposit: 1000, ContributionAmount: 100},
		{Ticker: "BND", Rate: 3, InitialDeposit: 500},
	}
	params := sampleParams()
	p, err := portfolio.Project(holdings, params)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	values, err := HoldingValues(holdings, params)
	if err != nil {
		t.Fatalf("HoldingValues: %v", err)
	}

	text := PortfolioText(p, values, Options{})
	for _, want := range []string{"Portfolio Projection", "HOLDINGS", "SPY", "BND", "Investments:          2"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in portfolio report", want)
		}
	}
}
