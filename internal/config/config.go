// Package config handles configuration loading for growthcast.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/growthcast/internal/projection"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "GROWTHCAST"

// Config represents the complete application configuration.
type Config struct {
	Projection ProjectionConfig `mapstructure:"projection" yaml:"projection"`
	Rates      RatesConfig      `mapstructure:"rates"      yaml:"rates"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// ProjectionConfig holds the defaults applied when a request omits them.
type ProjectionConfig struct {
	Years                 float64 `mapstructure:"years"                  yaml:"years"`
	CompoundFrequency     string  `mapstructure:"compound_frequency"     yaml:"compound_frequency"`
	ContributionFrequency string  `mapstructure:"contribution_frequency" yaml:"contribution_frequency"`
	Currency              string  `mapstructure:"currency"               yaml:"currency"`
}

// RatesConfig holds historical rate lookup settings.
type RatesConfig struct {
	Provider          string             `mapstructure:"provider"            yaml:"provider"` // "yahoo" or "static"
	BaseURL           string             `mapstructure:"base_url"            yaml:"base_url"`
	ProbeURL          string             `mapstructure:"probe_url"           yaml:"probe_url"`
	From              string             `mapstructure:"from"                yaml:"from"` // YYYY-MM-DD
	To                string             `mapstructure:"to"                  yaml:"to"`
	MaxRetries        int                `mapstructure:"max_retries"         yaml:"max_retries"`
	RetryDelay        time.Duration      `mapstructure:"retry_delay"         yaml:"retry_delay"`
	CacheTTL          time.Duration      `mapstructure:"cache_ttl"           yaml:"cache_ttl"`
	RequestsPerSecond float64            `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	ConcurrentFetches int                `mapstructure:"concurrent_fetches"  yaml:"concurrent_fetches"`
	Static            map[string]float64 `mapstructure:"static"              yaml:"static"` // ticker → annual %
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.growthcast/config.yaml (home directory)
//  3. /etc/growthcast/config.yaml (system)
//
// Environment variables override config file values.
// Format: GROWTHCAST_<SECTION>_<KEY>, e.g., GROWTHCAST_RATES_MAX_RETRIES
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".growthcast"))
	v.AddConfigPath("/etc/growthcast")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Rates.Static != nil {
		static := make(map[string]float64, len(cfg.Rates.Static))
		for k, rate := range cfg.Rates.Static {
			// viper lowercases map keys
			static[strings.ToUpper(k)] = rate
		}
		cfg.Rates.Static = static
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Projection defaults
	v.SetDefault("projection.years", 10)
	v.SetDefault("projection.compound_frequency", "Monthly")
	v.SetDefault("projection.contribution_frequency", "Monthly")
	v.SetDefault("projection.currency", "USD")

	// Rate lookup defaults
	v.SetDefault("rates.provider", "yahoo")
	v.SetDefault("rates.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("rates.probe_url", "https://www.google.com")
	v.SetDefault("rates.from", "2020-01-01")
	v.SetDefault("rates.to", "2025-01-01")
	v.SetDefault("rates.max_retries", 2)
	v.SetDefault("rates.retry_delay", "2s")
	v.SetDefault("rates.cache_ttl", "15m")
	v.SetDefault("rates.requests_per_second", 5.0)
	v.SetDefault("rates.concurrent_fetches", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, _, err := c.Projection.Frequencies(); err != nil {
		return err
	}
	if err := projection.ValidateYears(c.Projection.Years); err != nil {
		return fmt.Errorf("projection.years: %w", err)
	}

	switch strings.ToLower(c.Rates.Provider) {
	case "yahoo", "static":
	default:
		return fmt.Errorf("rates.provider: unknown provider %q", c.Rates.Provider)
	}
	if _, _, err := c.Rates.Window(); err != nil {
		return err
	}
	if c.Rates.MaxRetries < 0 {
		return fmt.Errorf("rates.max_retries must be non-negative, got %d", c.Rates.MaxRetries)
	}
	if c.Rates.RetryDelay < 0 {
		return fmt.Errorf("rates.retry_delay must be non-negative, got %s", c.Rates.RetryDelay)
	}
	if c.Rates.ConcurrentFetches < 1 {
		return fmt.Errorf("rates.concurrent_fetches must be at least 1, got %d", c.Rates.ConcurrentFetches)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// Frequencies parses the configured default frequencies.
func (p ProjectionConfig) Frequencies() (compound, contribution projection.Frequency, err error) {
	compound, err = projection.ParseFrequency(p.CompoundFrequency)
	if err != nil {
		return 0, 0, fmt.Errorf("projection.compound_frequency: %w", err)
	}
	contribution, err = projection.ParseFrequency(p.ContributionFrequency)
	if err != nil {
		return 0, 0, fmt.Errorf("projection.contribution_frequency: %w", err)
	}
	return compound, contribution, nil
}

// Window parses the historical window used for CAGR.
func (r RatesConfig) Window() (from, to time.Time, err error) {
	from, err = time.Parse(time.DateOnly, r.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("rates.from: %w", err)
	}
	to, err = time.Parse(time.DateOnly, r.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("rates.to: %w", err)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("rates.to (%s) must be after rates.from (%s)", r.To, r.From)
	}
	return from, to, nil
}

// Addr returns the listen address for the API server.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
