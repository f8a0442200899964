package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/growthcast/internal/logging"
	"github.com/seenimoa/growthcast/internal/lookup"
	"github.com/seenimoa/growthcast/internal/portfolio"
	"github.com/seenimoa/growthcast/internal/projection"
	"github.com/seenimoa/growthcast/internal/ratesource"
	"github.com/seenimoa/growthcast/internal/report"
	"github.com/seenimoa/growthcast/internal/store"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// --- Project Command ---

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a single investment",
	Long:  "Project the growth of one investment with an initial deposit and periodic contributions.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		initial, _ := cmd.Flags().GetFloat64("initial")
		contribution, _ := cmd.Flags().GetFloat64("contribution")
		rate, _ := cmd.Flags().GetFloat64("rate")

		spec := projection.Spec{
			InitialDeposit:        initial,
			ContributionAmount:    contribution,
			Rate:                  rate,
			CompoundFrequency:     params.CompoundFrequency,
			ContributionFrequency: params.ContributionFrequency,
			Years:                 params.Years,
		}
		if err := spec.Validate(); err != nil {
			return err
		}
		p, err := projection.Project(spec)
		if err != nil {
			return err
		}

		fmt.Print(report.Text(p, reportOptions(cmd)))
		return writeChart(cmd, "chart", report.GrowthChart(p, report.ChartConfig{}))
	},
}

func init() {
	projectCmd.Flags().Float64("initial", 0, "initial deposit")
	projectCmd.Flags().Float64("contribution", 0, "amount added every contribution period")
	projectCmd.Flags().Float64("rate", 0, "annual rate in percent")
	_ = projectCmd.MarkFlagRequired("rate")
	addParamFlags(projectCmd)
	addReportFlags(projectCmd)
}

// --- Portfolio Command ---

var portfolioCmd = &cobra.Command{
	Use:   "portfolio [file]",
	Short: "Project a portfolio of holdings",
	Long: `Project a portfolio loaded from an investment file, or built from
--holding TICKER:RATE:INITIAL:CONTRIBUTION flags. Leave RATE empty to look it
up from historical prices (requires --resolve).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		holdings, params, err := loadHoldings(cmd, args)
		if err != nil {
			return err
		}
		if resolve, _ := cmd.Flags().GetBool("resolve"); resolve {
			if holdings, err = resolvePending(holdings); err != nil {
				return err
			}
		}

		p, err := portfolio.Project(holdings, params)
		if err != nil {
			return err
		}
		values, err := report.HoldingValues(holdings, params)
		if err != nil {
			return err
		}

		fmt.Print(report.PortfolioText(p, values, reportOptions(cmd)))

		if err := writeChart(cmd, "chart", report.GrowthChart(p, report.ChartConfig{})); err != nil {
			return err
		}
		if err := writeChart(cmd, "holdings-chart", report.HoldingsChart(values, report.ChartConfig{})); err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("csv"); path != "" {
			if err := store.ExportCSVFile(path, holdings, params); err != nil {
				return err
			}
			fmt.Printf("📄 CSV written to %s\n", path)
		}
		if path, _ := cmd.Flags().GetString("save"); path != "" {
			if err := store.Save(path, store.NewDocument(holdings, params)); err != nil {
				return err
			}
			fmt.Printf("💾 Portfolio saved to %s\n", path)
		}
		return nil
	},
}

func init() {
	portfolioCmd.Flags().StringArray("holding", nil, "holding as TICKER:RATE:INITIAL:CONTRIBUTION (repeatable)")
	portfolioCmd.Flags().Bool("resolve", false, "look up rates for holdings without one")
	portfolioCmd.Flags().String("holdings-chart", "", "write a per-holding SVG bar chart to this path")
	portfolioCmd.Flags().String("csv", "", "export holdings to this CSV path")
	portfolioCmd.Flags().String("save", "", "save the portfolio as an investment file")
	addParamFlags(portfolioCmd)
	addReportFlags(portfolioCmd)
}

// --- Rate Command ---

var rateCmd = &cobra.Command{
	Use:   "rate [ticker...]",
	Short: "Estimate annual rates from historical prices",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := rateSource()
		if err != nil {
			return err
		}
		if r, ok := src.(*ratesource.Resolver); ok && (cmd.Flags().Changed("retries") || cmd.Flags().Changed("delay")) {
			retries, _ := cmd.Flags().GetInt("retries")
			delay, _ := cmd.Flags().GetDuration("delay")
			src = r.WithRetry(retries, delay)
		}

		ctx, stop := signalContext()
		defer stop()

		var failed int
		for _, arg := range args {
			ticker := utils.NormalizeTicker(arg)
			fmt.Printf("🔍 Analyzing ticker %s...\n", ticker)
			q, err := src.Rate(ctx, ticker)
			if err != nil {
				failed++
				fmt.Printf("   ❌ %s\n", lookup.UserMessage(ticker, err))
				logger.Debug("rate lookup failed", logging.String("ticker", ticker), logging.Err(err))
				continue
			}
			fmt.Printf("   %s: %s", q.Ticker, utils.FormatRate(q.Rate))
			if q.Points > 0 {
				fmt.Printf(" (%s → %s, %d closes, %s)", q.From.Format(time.DateOnly), q.To.Format(time.DateOnly), q.Points, q.Source)
			}
			fmt.Println()
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d lookups failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rateCmd.Flags().Int("retries", 2, "maximum retries after the first attempt")
	rateCmd.Flags().Duration("delay", 2*time.Second, "wait between attempts")
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export [file] [out.csv]",
	Short: "Export an investment file to CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := store.Load(args[0])
		if err != nil {
			return err
		}
		holdings, err := doc.Holdings()
		if err != nil {
			return err
		}
		if resolve, _ := cmd.Flags().GetBool("resolve"); resolve {
			if holdings, err = resolvePending(holdings); err != nil {
				return err
			}
		}
		if err := store.ExportCSVFile(args[1], holdings, doc.Params()); err != nil {
			return err
		}
		fmt.Printf("📄 CSV written to %s\n", args[1])
		return nil
	},
}

func init() {
	exportCmd.Flags().Bool("resolve", false, "look up rates for holdings without one")
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("years", 0, "years of growth (default from config)")
	cmd.Flags().String("compound", "", "compounding frequency (default from config)")
	cmd.Flags().String("contribution-frequency", "", "contribution frequency (default from config)")
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("currency", "", "ISO currency code for display (default from config)")
	cmd.Flags().Bool("no-breakdown", false, "omit the year-by-year table")
	cmd.Flags().String("chart", "", "write an SVG growth chart to this path")
}

// paramsFromFlags resolves shared parameters from flags, falling back to the
// configured defaults.
func paramsFromFlags(cmd *cobra.Command) (portfolio.Params, error) {
	compound, contribution, err := cfg.Projection.Frequencies()
	if err != nil {
		return portfolio.Params{}, err
	}
	p := portfolio.Params{
		CompoundFrequency:     compound,
		ContributionFrequency: contribution,
		Years:                 cfg.Projection.Years,
	}
	if s, _ := cmd.Flags().GetString("compound"); s != "" {
		if p.CompoundFrequency, err = projection.ParseFrequency(s); err != nil {
			return portfolio.Params{}, err
		}
	}
	if s, _ := cmd.Flags().GetString("contribution-frequency"); s != "" {
		if p.ContributionFrequency, err = projection.ParseFrequency(s); err != nil {
			return portfolio.Params{}, err
		}
	}
	if cmd.Flags().Changed("years") {
		p.Years, _ = cmd.Flags().GetFloat64("years")
	}
	return p, p.Validate()
}

// loadHoldings reads holdings from the file argument or --holding flags.
// Flags given on the command line override the file's parameters.
func loadHoldings(cmd *cobra.Command, args []string) ([]portfolio.Holding, portfolio.Params, error) {
	flags, _ := cmd.Flags().GetStringArray("holding")

	if len(args) == 1 {
		doc, err := store.Load(args[0])
		if err != nil {
			return nil, portfolio.Params{}, err
		}
		holdings, err := doc.Holdings()
		if err != nil {
			return nil, portfolio.Params{}, err
		}
		params := doc.Params()
		if s, _ := cmd.Flags().GetString("compound"); s != "" {
			if params.CompoundFrequency, err = projection.ParseFrequency(s); err != nil {
				return nil, portfolio.Params{}, err
			}
		}
		if s, _ := cmd.Flags().GetString("contribution-frequency"); s != "" {
			if params.ContributionFrequency, err = projection.ParseFrequency(s); err != nil {
				return nil, portfolio.Params{}, err
			}
		}
		if cmd.Flags().Changed("years") {
			params.Years, _ = cmd.Flags().GetFloat64("years")
		}
		for _, f := range flags {
			h, err := portfolio.ParseHoldingFlag(f)
			if err != nil {
				return nil, portfolio.Params{}, err
			}
			holdings = append(holdings, h)
		}
		return holdings, params, params.Validate()
	}

	if len(flags) == 0 {
		return nil, portfolio.Params{}, fmt.Errorf("no holdings: pass an investment file or --holding flags")
	}
	params, err := paramsFromFlags(cmd)
	if err != nil {
		return nil, portfolio.Params{}, err
	}
	holdings := make([]portfolio.Holding, 0, len(flags))
	for i, f := range flags {
		h, err := portfolio.ParseHoldingFlag(f)
		if err != nil {
			return nil, portfolio.Params{}, fmt.Errorf("holding %d: %w", i+1, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, params, nil
}

func rateSource() (ratesource.RateSource, error) {
	return ratesource.FromConfig(cfg.Rates, logger, nil)
}

// resolvePending looks up every pending holding's rate, printing progress
// events as they arrive.
func resolvePending(holdings []portfolio.Holding) ([]portfolio.Holding, error) {
	pending := portfolio.PendingTickers(holdings)
	if len(pending) == 0 {
		return holdings, nil
	}
	src, err := rateSource()
	if err != nil {
		return nil, err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("🔍 Looking up %d ticker(s) via %s...\n", len(pending), src.Name())
	start := time.Now()
	out, err := lookup.ResolvePending(ctx, src, holdings, cfg.Rates.ConcurrentFetches)
	if err != nil {
		return nil, err
	}
	for i, h := range out {
		if holdings[i].Status == portfolio.RatePending {
			fmt.Printf("   %-8s %s\n", h.Ticker, utils.FormatRate(h.Rate))
		}
	}
	logger.Debug("resolved pending holdings",
		logging.Int("tickers", len(pending)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func reportOptions(cmd *cobra.Command) report.Options {
	currency, _ := cmd.Flags().GetString("currency")
	if currency == "" {
		currency = cfg.Projection.Currency
	}
	noBreakdown, _ := cmd.Flags().GetBool("no-breakdown")
	return report.Options{Currency: currency, Breakdown: !noBreakdown}
}

func writeChart(cmd *cobra.Command, flag, svg string) error {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Printf("📈 Chart written to %s\n", path)
	return nil
}
