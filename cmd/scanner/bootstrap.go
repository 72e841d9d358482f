package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"shortscan/internal/batch"
	"shortscan/internal/catalyst"
	"shortscan/internal/evaluator"
	"shortscan/internal/indicator"
	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/provider/alphavantage"
	"shortscan/internal/provider/mock"
	"shortscan/internal/provider/providerobs"
	"shortscan/internal/recorder"
	"shortscan/internal/risk"
	"shortscan/internal/scoring"
	"shortscan/internal/source"
	"shortscan/internal/store"
)

// initializeSystem loads the environment and initializes logging/tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig reads the config file named by SHORTSCAN_CONFIG (default
// config.yaml), or falls back to defaults when no file exists.
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("SHORTSCAN_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn(ctx, "No config file found, using defaults", "path", path)
		return store.DefaultConfig(), nil
	}

	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	logger.Info(ctx, "Config loaded", "path", path, "provider", cfg.Provider)
	return cfg, nil
}

// initializeProvider selects the data backend and wraps it with
// observability middleware.
func initializeProvider(ctx context.Context, cfg *store.Config) (interfaces.PriceFetcher, *alphavantage.Client) {
	if cfg.Provider == "LIVE" {
		client := alphavantage.New(cfg.AlphaVantage)
		logger.Info(ctx, "Using live Alpha Vantage market data")
		return providerobs.Wrap(client), client
	}

	logger.Warn(ctx, "Using MOCK provider - synthetic deterministic data")
	return providerobs.Wrap(&mock.Provider{}), nil
}

// initializeTickerSource builds the universe source for this run.
func initializeTickerSource(ctx context.Context, cfg *store.Config, av *alphavantage.Client) (interfaces.TickerSource, error) {
	var src interfaces.TickerSource
	switch cfg.Universe.Mode {
	case "STATIC":
		src = &source.Static{Symbols: cfg.Universe.Static}
	case "WATCHLIST":
		src = &source.Watchlist{Path: cfg.Universe.WatchlistPath}
	case "GAINERS":
		if av != nil {
			src = &source.GainersScreen{Screen: av}
		} else {
			src = &mock.Provider{}
		}
	default:
		return nil, fmt.Errorf("unknown universe mode %q", cfg.Universe.Mode)
	}

	if cfg.Universe.ExpandWarrants {
		src = &source.WithWarrants{Source: src}
	}
	return src, nil
}

// initializeCatalyst builds the catalyst fetcher, or nil when disabled.
func initializeCatalyst(ctx context.Context, cfg *store.Config) interfaces.CatalystFetcher {
	if !cfg.Catalyst.Enabled {
		return nil
	}

	var analyzer catalyst.Analyzer
	switch cfg.Catalyst.Analyzer {
	case "CLAUDE":
		if os.Getenv("CLAUDE_API_KEY") == "" {
			logger.Warn(ctx, "CLAUDE_API_KEY missing, falling back to heuristic catalyst analyzer")
			analyzer = catalyst.NewHeuristicAnalyzer()
		} else {
			logger.Info(ctx, "Using Claude catalyst analyzer", "model", cfg.Catalyst.Claude.Model)
			analyzer = catalyst.NewClaudeAnalyzer(cfg.Catalyst.Claude)
		}
	case "NONE":
		return catalyst.NoopFetcher{}
	default:
		analyzer = catalyst.NewHeuristicAnalyzer()
	}

	return catalyst.NewService(analyzer, cfg.CatalystServiceConfig())
}

// initializeRecorder opens the run store, or a noop when disabled.
func initializeRecorder(ctx context.Context, cfg *store.Config) interfaces.RunRecorder {
	if !cfg.Recorder.Enabled {
		return recorder.NoopRecorder{}
	}

	r, err := recorder.NewSQLiteRecorder(cfg.Recorder.DBPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open run recorder, continuing without persistence", err, "path", cfg.Recorder.DBPath)
		return recorder.NoopRecorder{}
	}
	logger.Info(ctx, "Run recorder opened", "path", cfg.Recorder.DBPath)
	return r
}

// initializeOrchestrator wires the full pipeline.
func initializeOrchestrator(cfg *store.Config, fetcher interfaces.PriceFetcher, cat interfaces.CatalystFetcher) *batch.Orchestrator {
	eval := evaluator.New(
		fetcher,
		cat,
		indicator.New(cfg.IndicatorParams()),
		risk.NewClassifier(cfg.Risk),
		scoring.NewScorer(cfg.Scoring),
		evaluator.Options{
			LookbackBars:    cfg.Scanner.LookbackBars,
			IncludeCatalyst: cfg.Catalyst.Enabled,
		},
	)
	return batch.New(eval, cfg.BatchOptions())
}
