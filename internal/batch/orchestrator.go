// Package batch fans one run's ticker list out across a bounded worker pool,
// collects successes and failures, and ranks the surviving candidates.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/types"
)

// Options controls one batch run.
type Options struct {
	// MaxTickers caps how many tickers are evaluated after deduplication.
	// Zero means no cap.
	MaxTickers int `yaml:"max_tickers"`

	// MinChangePercent drops tickers whose source-reported day change is
	// below the threshold. Tickers with no reported change pass the filter.
	MinChangePercent float64 `yaml:"min_change_percent"`

	// MinPrice drops tickers whose source-reported last price is below the
	// threshold. Tickers with no reported price pass the filter.
	MinPrice float64 `yaml:"min_price"`

	// ConcurrencyLimit bounds in-flight evaluations. Defaults to 5.
	ConcurrencyLimit int `yaml:"concurrency_limit"`
}

// Orchestrator runs batches of evaluations against one evaluator.
type Orchestrator struct {
	evaluator interfaces.CandidateEvaluator
	opts      Options
	now       func() time.Time
}

// New creates an orchestrator. A non-positive concurrency limit falls back
// to 5.
func New(evaluator interfaces.CandidateEvaluator, opts Options) *Orchestrator {
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = 5
	}
	return &Orchestrator{evaluator: evaluator, opts: opts, now: time.Now}
}

// Run evaluates every ticker and returns the ranked result. Per-ticker
// failures are recorded and do not stop the batch; fatal provider errors
// (credentials, total outage) cancel all in-flight work and fail the run.
func (o *Orchestrator) Run(ctx context.Context, tickers []types.TickerInput) (*types.BatchResult, error) {
	timer := logger.StartOperation(ctx, "batch_run", "tickers", len(tickers))
	ctx = timer.GetContext()

	queue, dupes := o.prepare(ctx, tickers)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates []types.Candidate
		failed     []types.FailedTicker
	)
	sem := make(chan struct{}, o.opts.ConcurrencyLimit)

	for _, input := range queue {
		select {
		case <-runCtx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(input types.TickerInput) {
				defer wg.Done()
				defer func() { <-sem }()

				cand, err := o.evaluator.Evaluate(runCtx, input)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if types.IsFatal(err) {
						cancel(err)
						return
					}
					failed = append(failed, types.FailedTicker{
						Symbol: input.Symbol,
						Kind:   types.FetchKind(err),
						Reason: err.Error(),
					})
					return
				}
				candidates = append(candidates, *cand)
			}(input)
		}
		if runCtx.Err() != nil {
			break
		}
	}
	wg.Wait()

	if cause := context.Cause(runCtx); cause != nil && cause != runCtx.Err() {
		timer.EndWithError(cause)
		return nil, fmt.Errorf("batch aborted: %w", cause)
	}
	if err := ctx.Err(); err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	surviving := make(map[string]bool, len(candidates))
	for i := range candidates {
		surviving[candidates[i].Symbol] = true
		if n := dupes[candidates[i].Symbol]; n > 0 {
			candidates[i].Warnings = append(candidates[i].Warnings,
				fmt.Sprintf("symbol appeared %d times in the input, evaluated once", n+1))
		}
	}

	// Duplicates of a symbol that was filtered out or failed have no
	// candidate to carry the notice; record it on the run instead.
	var runWarnings []string
	for symbol, n := range dupes {
		if !surviving[symbol] {
			runWarnings = append(runWarnings,
				fmt.Sprintf("symbol %s appeared %d times in the input but produced no candidate", symbol, n+1))
		}
	}
	sort.Strings(runWarnings)

	rank(candidates)

	result := &types.BatchResult{
		Candidates: candidates,
		Count:      len(candidates),
		Failed:     failed,
		Warnings:   runWarnings,
		RunAt:      o.now().UTC(),
	}
	timer.End("evaluated", len(candidates), "failed", len(failed))
	return result, nil
}

// prepare dedupes by normalized symbol (first occurrence wins, extra
// occurrences are counted so the surviving candidate carries a warning),
// applies the change filter, and caps the queue.
func (o *Orchestrator) prepare(ctx context.Context, tickers []types.TickerInput) ([]types.TickerInput, map[string]int) {
	queue := make([]types.TickerInput, 0, len(tickers))
	seen := map[string]bool{}
	dupes := map[string]int{}

	for _, t := range tickers {
		symbol := strings.ToUpper(strings.TrimSpace(t.Symbol))
		if symbol == "" {
			continue
		}
		t.Symbol = symbol

		if seen[symbol] {
			dupes[symbol]++
			logger.Warn(ctx, "duplicate ticker in input", "symbol", symbol)
			continue
		}
		seen[symbol] = true

		if o.opts.MinChangePercent > 0 && t.ChangePercent != nil && *t.ChangePercent < o.opts.MinChangePercent {
			continue
		}
		if o.opts.MinPrice > 0 && t.LastPrice != nil && *t.LastPrice < o.opts.MinPrice {
			continue
		}

		queue = append(queue, t)
	}

	if o.opts.MaxTickers > 0 && len(queue) > o.opts.MaxTickers {
		queue = queue[:o.opts.MaxTickers]
	}
	return queue, dupes
}

// rank orders candidates by score descending, ties broken by symbol
// ascending so runs are reproducible.
func rank(candidates []types.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
}
