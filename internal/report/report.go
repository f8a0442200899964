package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/growthcast/internal/portfolio"
	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// Options controls text rendering.
type Options struct {
	Currency  string // ISO code (default: USD)
	Title     string // header line (default: "Investment Projection")
	Breakdown bool   // include the year-by-year table
}

// HoldingValue is one holding projected on its own with the shared
// parameters.
type HoldingValue struct {
	Holding portfolio.Holding `json:"holding"`
	Final   float64           `json:"final_value"`
	Profit  float64           `json:"profit"`
}

// HoldingValues projects each holding separately. The values need not sum
// to the blended portfolio projection.
func HoldingValues(holdings []portfolio.Holding, p portfolio.Params) ([]HoldingValue, error) {
	out := make([]HoldingValue, 0, len(holdings))
	for i, h := range holdings {
		res, err := portfolio.Standalone(h, p)
		if err != nil {
			return nil, fmt.Errorf("investment %d: %w", i+1, err)
		}
		out = append(out, HoldingValue{Holding: h, Final: res.FinalCapital, Profit: res.Profit})
	}
	return out, nil
}

// HoldingsChart renders per-holding final values as horizontal bars.
func HoldingsChart(values []HoldingValue, cfg ChartConfig) string {
	items := make([]BarItem, 0, len(values))
	for i, v := range values {
		label := v.Holding.Ticker
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		items = append(items, BarItem{Label: label, Value: v.Final})
	}
	if cfg.Title == "" {
		cfg.Title = "Final value by holding"
	}
	return HorizontalBarChart(items, cfg)
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

// Text renders a projection summary for the terminal.
func Text(p projection.Projection, opts Options) string {
	var sb strings.Builder
	writeHeader(&sb, opts)
	writeInputs(&sb, p.Spec, opts)
	writeResults(&sb, p, opts)
	if opts.Breakdown {
		writeBreakdown(&sb, p, opts)
	}
	sb.WriteString(strings.Repeat("═", 60) + "\n")
	return sb.String()
}

// PortfolioText renders a portfolio projection followed by the per-holding
// table.
func PortfolioText(p projection.Projection, values []HoldingValue, opts Options) string {
	if opts.Title == "" {
		opts.Title = "Portfolio Projection"
	}
	thin := strings.Repeat("─", 60)

	var sb strings.Builder
	writeHeader(&sb, opts)
	writeInputs(&sb, p.Spec, opts)

	sb.WriteString("\n  ■ HOLDINGS\n")
	sb.WriteString(fmt.Sprintf("    %-10s %8s %14s %12s %16s\n", "Ticker", "Rate", "Initial", "Contrib.", "Alone"))
	for _, v := range values {
		h := v.Holding
		sb.WriteString(fmt.Sprintf("    %-10s %8s %14s %12s %16s\n",
			h.Ticker, utils.FormatRate(h.Rate),
			FormatMoney(h.InitialDeposit, opts.Currency),
			FormatMoney(h.ContributionAmount, opts.Currency),
			FormatMoney(v.Final, opts.Currency)))
	}
	sb.WriteString(thin + "\n")

	writeResults(&sb, p, opts)
	if opts.Breakdown {
		writeBreakdown(&sb, p, opts)
	}
	sb.WriteString(strings.Repeat("═", 60) + "\n")
	return sb.String()
}

func writeHeader(sb *strings.Builder, opts Options) {
	title := opts.Title
	if title == "" {
		title = "Investment Projection"
	}
	line := strings.Repeat("═", 60)
	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", title))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", time.Now().Format("02 Jan 2006, 15:04")))
	sb.WriteString(line + "\n")
}

func writeInputs(sb *strings.Builder, s projection.Spec, opts Options) {
	sb.WriteString(fmt.Sprintf("  Initial deposit:      %s\n", FormatMoney(s.InitialDeposit, opts.Currency)))
	sb.WriteString(fmt.Sprintf("  Contribution:         %s %s\n", FormatMoney(s.ContributionAmount, opts.Currency), s.ContributionFrequency))
	sb.WriteString(fmt.Sprintf("  Annual rate:          %s\n", utils.FormatRate(s.Rate)))
	sb.WriteString(fmt.Sprintf("  Compounding:          %s\n", s.CompoundFrequency))
	sb.WriteString(fmt.Sprintf("  Years:                %s\n", trimFloat(s.Years)))
	if s.InvestmentCount > 0 {
		sb.WriteString(fmt.Sprintf("  Investments:          %d\n", s.InvestmentCount))
	}
	sb.WriteString(strings.Repeat("─", 60) + "\n")
}

func writeResults(sb *strings.Builder, p projection.Projection, opts Options) {
	growth := 0.0
	if p.Invested > 0 {
		growth = p.Profit / p.Invested * 100
	}
	sb.WriteString(fmt.Sprintf("  Total invested:       %s\n", FormatMoney(p.Invested, opts.Currency)))
	sb.WriteString(fmt.Sprintf("  Final capital:        %s\n", FormatMoney(p.FinalCapital, opts.Currency)))
	sb.WriteString(fmt.Sprintf("  Profit:               %s (%s)\n", FormatMoney(p.Profit, opts.Currency), utils.FormatPct(growth)))
}

func writeBreakdown(sb *strings.Builder, p projection.Projection, opts Options) {
	invested := projection.InvestedSeries(p.Spec, p.Breakdown)
	sb.WriteString(strings.Repeat("─", 60) + "\n")
	sb.WriteString(fmt.Sprintf("  %-6s %24s %24s\n", "Year", "Invested", "Capital"))
	for i, y := range p.Breakdown.Years {
		sb.WriteString(fmt.Sprintf("  %-6d %24s %24s\n", y,
			FormatMoney(invested[i], opts.Currency),
			FormatMoney(p.Breakdown.Capital[i], opts.Currency)))
	}
}
