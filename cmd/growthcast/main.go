// growthcast projects compound growth of single investments and portfolios,
// with annual rates looked up from historical prices.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seenimoa/growthcast/api"
	"github.com/seenimoa/growthcast/internal/config"
	"github.com/seenimoa/growthcast/internal/logging"
	"github.com/seenimoa/growthcast/internal/projection"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set up by the root command.
var (
	cfg    *config.Config
	logger logging.Logger = logging.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "growthcast",
	Short: "growthcast: compound growth projections for investments and portfolios",
	Long: `growthcast projects the future value of an investment with periodic
contributions, blends several holdings into one portfolio projection, and
estimates annual rates from five years of historical prices.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			return err
		}
		logging.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(frequenciesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("growthcast %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Frequencies Command ---

var frequenciesCmd = &cobra.Command{
	Use:   "frequencies",
	Short: "List supported compounding and contribution frequencies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range projection.Frequencies() {
			fmt.Printf("  %-14s %2.0f per year\n", f, f.PerYear())
		}
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}

		srv, err := api.NewServer(cfg, api.Options{Logger: logger, Version: version})
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		fmt.Printf("🌐 Starting growthcast API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(ctx, cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  growthcast Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Projection defaults:")
		fmt.Printf("    Years:         %v\n", cfg.Projection.Years)
		fmt.Printf("    Compounding:   %s\n", cfg.Projection.CompoundFrequency)
		fmt.Printf("    Contributions: %s\n", cfg.Projection.ContributionFrequency)
		fmt.Printf("    Currency:      %s\n", cfg.Projection.Currency)
		fmt.Println()

		fmt.Println("  Rate lookups:")
		fmt.Printf("    Provider:      %s\n", cfg.Rates.Provider)
		fmt.Printf("    Window:        %s → %s\n", cfg.Rates.From, cfg.Rates.To)
		fmt.Printf("    Retries:       %d (delay %s)\n", cfg.Rates.MaxRetries, cfg.Rates.RetryDelay)
		fmt.Printf("    Concurrency:   %d\n", cfg.Rates.ConcurrentFetches)
		if len(cfg.Rates.Static) > 0 {
			fmt.Printf("    Static table:  %d tickers\n", len(cfg.Rates.Static))
		}
		fmt.Println()

		fmt.Printf("  API Server:      %s\n", cfg.API.Addr())
		fmt.Printf("  Logging:         %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
