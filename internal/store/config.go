// Package store loads and validates the scanner's yaml configuration.
package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"shortscan/internal/batch"
	"shortscan/internal/catalyst"
	"shortscan/internal/indicator"
	"shortscan/internal/provider/alphavantage"
	"shortscan/internal/risk"
	"shortscan/internal/scoring"
)

type Config struct {
	// Provider selects the market data backend: LIVE hits Alpha Vantage,
	// MOCK serves deterministic synthetic data.
	Provider string `yaml:"provider"`

	AlphaVantage alphavantage.Config `yaml:"alphavantage"`

	Universe struct {
		// Mode: GAINERS pulls the provider's top gainers screen, STATIC uses
		// the symbol list, WATCHLIST reads the file.
		Mode          string   `yaml:"mode"`
		Static        []string `yaml:"static"`
		WatchlistPath string   `yaml:"watchlist_path"`
		// ExpandWarrants injects each warrant's underlying common stock.
		ExpandWarrants bool `yaml:"expand_warrants"`
	} `yaml:"universe"`

	Scanner struct {
		MaxTickers       int     `yaml:"max_tickers"`
		MinChangePercent float64 `yaml:"min_change_percent"`
		MinPrice         float64 `yaml:"min_price"`
		ConcurrencyLimit int     `yaml:"concurrency_limit"`
		LookbackBars     int     `yaml:"lookback_bars"`
	} `yaml:"scanner"`

	Indicators struct {
		RSIPeriod   int     `yaml:"rsi_period"`
		BBWindow    int     `yaml:"bb_window"`
		BBStdDev    float64 `yaml:"bb_stddev"`
		ATRPeriod   int     `yaml:"atr_period"`
		ATRTrailing int     `yaml:"atr_trailing"`
		MACDFast    int     `yaml:"macd_fast"`
		MACDSlow    int     `yaml:"macd_slow"`
		MACDSignal  int     `yaml:"macd_signal"`
	} `yaml:"indicators"`

	Risk    risk.Config    `yaml:"risk"`
	Scoring scoring.Config `yaml:"scoring"`

	Catalyst struct {
		Enabled bool `yaml:"enabled"`
		// Analyzer: CLAUDE, HEURISTIC, or NONE.
		Analyzer           string                `yaml:"analyzer"`
		Claude             catalyst.ClaudeConfig `yaml:"claude"`
		MaxHeadlines       int                   `yaml:"max_headlines"`
		CacheMinutes       int                   `yaml:"cache_minutes"`
		ScraperTimeoutSecs int                   `yaml:"scraper_timeout_secs"`
	} `yaml:"catalyst"`

	Recorder struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"recorder"`

	Output struct {
		// JSONPath, when set, receives the ranked result as a JSON file.
		JSONPath string `yaml:"json_path"`
	} `yaml:"output"`
}

func (c *Config) Validate() error {
	if c.Provider != "LIVE" && c.Provider != "MOCK" {
		return fmt.Errorf("invalid provider '%s': must be 'LIVE' or 'MOCK'", c.Provider)
	}
	switch c.Universe.Mode {
	case "GAINERS", "STATIC", "WATCHLIST":
	default:
		return fmt.Errorf("invalid universe.mode '%s': must be 'GAINERS', 'STATIC', or 'WATCHLIST'", c.Universe.Mode)
	}
	if c.Universe.Mode == "STATIC" && len(c.Universe.Static) == 0 {
		return fmt.Errorf("universe.static cannot be empty in STATIC mode")
	}
	if c.Universe.Mode == "WATCHLIST" && c.Universe.WatchlistPath == "" {
		return fmt.Errorf("universe.watchlist_path required in WATCHLIST mode")
	}
	switch c.Catalyst.Analyzer {
	case "", "CLAUDE", "HEURISTIC", "NONE":
	default:
		return fmt.Errorf("invalid catalyst.analyzer '%s': must be 'CLAUDE', 'HEURISTIC', or 'NONE'", c.Catalyst.Analyzer)
	}
	if c.Recorder.Enabled && c.Recorder.DBPath == "" {
		return fmt.Errorf("recorder.db_path required when recorder is enabled")
	}
	return nil
}

// LoadConfig reads and validates a yaml config file, filling defaults for
// anything unset.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultConfig returns a runnable configuration: mock provider, gainers
// universe, catalyst heuristics, no persistence.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "MOCK"
	}
	if c.Universe.Mode == "" {
		c.Universe.Mode = "GAINERS"
	}
	if c.Scanner.MaxTickers == 0 {
		c.Scanner.MaxTickers = 25
	}
	if c.Scanner.ConcurrencyLimit == 0 {
		c.Scanner.ConcurrencyLimit = 5
	}
	if c.Scanner.LookbackBars == 0 {
		c.Scanner.LookbackBars = 60
	}
	if c.Catalyst.Analyzer == "" {
		c.Catalyst.Analyzer = "HEURISTIC"
	}
	if c.Catalyst.MaxHeadlines == 0 {
		c.Catalyst.MaxHeadlines = 15
	}
	if c.Catalyst.CacheMinutes == 0 {
		c.Catalyst.CacheMinutes = 60
	}
	if c.Catalyst.ScraperTimeoutSecs == 0 {
		c.Catalyst.ScraperTimeoutSecs = 30
	}
	// Recorder.DBPath has no default: an enabled recorder without a path is
	// a config error, caught by Validate.
}

// IndicatorParams converts the indicator section, leaving zero values for
// the engine's own defaults.
func (c *Config) IndicatorParams() indicator.Params {
	return indicator.Params{
		RSIPeriod:   c.Indicators.RSIPeriod,
		BBWindow:    c.Indicators.BBWindow,
		BBStdDev:    c.Indicators.BBStdDev,
		ATRPeriod:   c.Indicators.ATRPeriod,
		ATRTrailing: c.Indicators.ATRTrailing,
		MACDFast:    c.Indicators.MACDFast,
		MACDSlow:    c.Indicators.MACDSlow,
		MACDSignal:  c.Indicators.MACDSignal,
	}
}

// BatchOptions converts the scanner section.
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{
		MaxTickers:       c.Scanner.MaxTickers,
		MinChangePercent: c.Scanner.MinChangePercent,
		MinPrice:         c.Scanner.MinPrice,
		ConcurrencyLimit: c.Scanner.ConcurrencyLimit,
	}
}

// CatalystServiceConfig converts the catalyst section.
func (c *Config) CatalystServiceConfig() catalyst.ServiceConfig {
	return catalyst.ServiceConfig{
		MaxHeadlines:   c.Catalyst.MaxHeadlines,
		CacheDuration:  time.Duration(c.Catalyst.CacheMinutes) * time.Minute,
		ScraperTimeout: time.Duration(c.Catalyst.ScraperTimeoutSecs) * time.Second,
	}
}
