package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shortscan/internal/logger"
	"shortscan/internal/types"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Warn(ctx, "Interrupt received, cancelling run")
		cancel()
	}()

	if err := run(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Scan failed", err)
		shutdown()
		os.Exit(1)
	}
	shutdown()
}

func run(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	fetcher, av := initializeProvider(ctx, cfg)
	src, err := initializeTickerSource(ctx, cfg, av)
	if err != nil {
		return err
	}
	cat := initializeCatalyst(ctx, cfg)
	rec := initializeRecorder(ctx, cfg)
	defer rec.Close()

	orchestrator := initializeOrchestrator(cfg, fetcher, cat)

	tickers, err := src.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	logger.Info(ctx, "Universe loaded", "mode", cfg.Universe.Mode, "tickers", len(tickers))

	result, err := orchestrator.Run(ctx, tickers)
	if err != nil {
		return err
	}

	printResult(ctx, result)

	if err := rec.RecordRun(ctx, result); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record run", err)
	}
	if cfg.Output.JSONPath != "" {
		if err := writeJSON(cfg.Output.JSONPath, result); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write JSON output", err, "path", cfg.Output.JSONPath)
		} else {
			logger.Info(ctx, "Results written", "path", cfg.Output.JSONPath)
		}
	}
	return nil
}

func printResult(ctx context.Context, result *types.BatchResult) {
	logger.Info(ctx, "Scan complete", "candidates", result.Count, "failed", len(result.Failed))

	for i, c := range result.Candidates {
		flags := make([]string, len(c.RiskFlags))
		for j, f := range c.RiskFlags {
			flags[j] = string(f)
		}
		logger.Candidate(ctx, c.Symbol, c.Score, string(c.Rating), string(c.Expression),
			"rank", i+1,
			"flags", flags,
			"warnings", len(c.Warnings),
			"status", string(c.Status),
		)
	}
	for _, f := range result.Failed {
		logger.Warn(ctx, "Ticker failed", "symbol", f.Symbol, "kind", string(f.Kind), "reason", f.Reason)
	}
	for _, w := range result.Warnings {
		logger.Warn(ctx, "Run notice", "notice", w)
	}
}

func writeJSON(path string, result *types.BatchResult) error {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = logger.Shutdown(ctx)
}
