package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
provider: LIVE
alphavantage:
  requests_per_minute: 5
universe:
  mode: STATIC
  static: [ABCD, EFGH]
  expand_warrants: true
scanner:
  max_tickers: 10
  min_change_percent: 20
  min_price: 1.5
  concurrency_limit: 3
risk:
  squeeze_ipo_days: 90
scoring:
  baseline: 10.0
catalyst:
  enabled: true
  analyzer: HEURISTIC
recorder:
  enabled: true
  db_path: /tmp/scans.db
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "LIVE" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if len(cfg.Universe.Static) != 2 || !cfg.Universe.ExpandWarrants {
		t.Errorf("unexpected universe: %+v", cfg.Universe)
	}
	if cfg.Risk.SqueezeIPODays != 90 {
		t.Errorf("risk override not applied: %d", cfg.Risk.SqueezeIPODays)
	}

	opts := cfg.BatchOptions()
	if opts.MaxTickers != 10 || opts.ConcurrencyLimit != 3 || opts.MinChangePercent != 20 || opts.MinPrice != 1.5 {
		t.Errorf("unexpected batch options: %+v", opts)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "provider: MOCK\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Universe.Mode != "GAINERS" {
		t.Errorf("expected GAINERS default, got %q", cfg.Universe.Mode)
	}
	if cfg.Scanner.ConcurrencyLimit != 5 || cfg.Scanner.LookbackBars != 60 {
		t.Errorf("unexpected scanner defaults: %+v", cfg.Scanner)
	}
	if cfg.Catalyst.Analyzer != "HEURISTIC" {
		t.Errorf("expected HEURISTIC default, got %q", cfg.Catalyst.Analyzer)
	}
}

func TestValidateRejectsBadProvider(t *testing.T) {
	path := writeConfig(t, "provider: PAPER\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestValidateStaticModeNeedsSymbols(t *testing.T) {
	path := writeConfig(t, "provider: MOCK\nuniverse:\n  mode: STATIC\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for empty static universe")
	}
}

func TestValidateWatchlistNeedsPath(t *testing.T) {
	path := writeConfig(t, "provider: MOCK\nuniverse:\n  mode: WATCHLIST\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for missing watchlist path")
	}
}

func TestValidateRecorderNeedsPath(t *testing.T) {
	path := writeConfig(t, "provider: MOCK\nrecorder:\n  enabled: true\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for enabled recorder without db path")
	}
}

func TestRecorderPathAcceptedWhenSet(t *testing.T) {
	path := writeConfig(t, "provider: MOCK\nrecorder:\n  enabled: true\n  db_path: scans.db\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Recorder.DBPath != "scans.db" {
		t.Errorf("unexpected db path: %q", cfg.Recorder.DBPath)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
