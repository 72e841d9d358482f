// Package recorder persists scan runs so past rankings can be reviewed and
// compared after the fact.
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/types"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ interfaces.RunRecorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a scan is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at     INTEGER NOT NULL,
			evaluated  INTEGER NOT NULL,
			failed     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_at ON runs(run_at)`,

		`CREATE TABLE IF NOT EXISTS candidates (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           INTEGER NOT NULL REFERENCES runs(id),
			rank             INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			score            REAL NOT NULL,
			rating           TEXT NOT NULL,
			expression       TEXT NOT NULL,
			status           TEXT NOT NULL,
			risk_flags       TEXT,
			rsi_14           REAL,
			bb_percent_b     REAL,
			atr_expansion    REAL,
			macd_histogram   REAL,
			change_percent   REAL,
			market_cap       REAL,
			catalyst_class   TEXT,
			catalyst_summary TEXT,
			warnings         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_symbol ON candidates(symbol)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			symbol TEXT NOT NULL,
			kind   TEXT,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes one run, its ranked candidates, and its failure ledger in
// a single transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, result *types.BatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_at, evaluated, failed) VALUES (?,?,?)`,
		result.RunAt.Unix(), result.Count, len(result.Failed),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for rank, c := range result.Candidates {
		flags := make([]string, len(c.RiskFlags))
		for i, f := range c.RiskFlags {
			flags[i] = string(f)
		}

		var catalystClass, catalystSummary *string
		if c.Catalyst != nil {
			cc := string(c.Catalyst.Classification)
			catalystClass = &cc
			catalystSummary = &c.Catalyst.Summary
		}

		var warnings *string
		if len(c.Warnings) > 0 {
			b, _ := json.Marshal(c.Warnings)
			s := string(b)
			warnings = &s
		}

		var changePercent, marketCap *float64
		if c.Metadata != nil {
			changePercent = c.Metadata.ChangePercent
			marketCap = c.Metadata.MarketCap
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO candidates
			(run_id, rank, symbol, score, rating, expression, status, risk_flags,
			 rsi_14, bb_percent_b, atr_expansion, macd_histogram,
			 change_percent, market_cap, catalyst_class, catalyst_summary, warnings)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, rank+1, c.Symbol, c.Score, string(c.Rating), string(c.Expression),
			string(c.Status), strings.Join(flags, ","),
			c.Indicators.RSI14, c.Indicators.BBPercentB,
			c.Indicators.ATRExpansion, c.Indicators.MACDHistogram,
			changePercent, marketCap, catalystClass, catalystSummary, warnings,
		)
		if err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.Symbol, err)
		}
	}

	for _, f := range result.Failed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, symbol, kind, reason) VALUES (?,?,?,?)`,
			runID, f.Symbol, string(f.Kind), f.Reason,
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info(ctx, "Run recorded", "run_id", runID, "candidates", result.Count, "failures", len(result.Failed))
	return nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
