// Package evaluator runs the per-ticker pipeline: fetch market data, compute
// indicators, classify risk, assess the catalyst, score, and select a trade
// expression.
package evaluator

import (
	"context"
	"fmt"

	"shortscan/internal/indicator"
	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/risk"
	"shortscan/internal/scoring"
	"shortscan/internal/types"
)

// Options tunes one evaluator instance.
type Options struct {
	// LookbackBars is how much daily history to request. Defaults to 60,
	// comfortably above the 35 bars the full indicator bundle needs.
	LookbackBars int

	// IncludeCatalyst enables the catalyst assessment step when a fetcher is
	// wired. A catalyst failure downgrades the candidate to partial instead
	// of failing it.
	IncludeCatalyst bool
}

// Evaluator wires the pipeline stages together. Construct once, reuse across
// tickers; it is safe for concurrent use.
type Evaluator struct {
	fetcher    interfaces.PriceFetcher
	catalyst   interfaces.CatalystFetcher
	engine     *indicator.Engine
	classifier *risk.Classifier
	scorer     *scoring.Scorer
	opts       Options
}

// New creates an evaluator. catalyst may be nil when catalyst assessment is
// disabled.
func New(fetcher interfaces.PriceFetcher, catalyst interfaces.CatalystFetcher, engine *indicator.Engine, classifier *risk.Classifier, scorer *scoring.Scorer, opts Options) *Evaluator {
	if opts.LookbackBars <= 0 {
		opts.LookbackBars = 60
	}
	return &Evaluator{
		fetcher:    fetcher,
		catalyst:   catalyst,
		engine:     engine,
		classifier: classifier,
		scorer:     scorer,
		opts:       opts,
	}
}

// Evaluate runs the full pipeline for one ticker. A price history failure is
// terminal; metadata and catalyst failures degrade the candidate to partial
// status with a warning instead.
func (e *Evaluator) Evaluate(ctx context.Context, input types.TickerInput) (*types.Candidate, error) {
	timer := logger.StartOperation(ctx, "evaluate_ticker", "symbol", input.Symbol)
	ctx = timer.GetContext()

	cand := &types.Candidate{
		Symbol:   input.Symbol,
		Status:   types.StatusOK,
		Warnings: []string{},
	}
	if input.IsWarrant {
		cand.Warnings = append(cand.Warnings, fmt.Sprintf(
			"warrant instrument, underlying %s evaluated separately", input.Underlying))
	}

	series, err := e.fetcher.History(ctx, input.Symbol, e.opts.LookbackBars)
	if err != nil {
		timer.EndWithError(err)
		return nil, fmt.Errorf("history for %s: %w", input.Symbol, err)
	}
	if series.Len() == 0 {
		err := types.NewFetchError(types.FetchNotFound, input.Symbol, fmt.Errorf("empty price history"))
		timer.EndWithError(err)
		return nil, err
	}
	cand.Series = series

	meta, err := e.fetcher.Metadata(ctx, input.Symbol)
	if err != nil {
		if types.IsFatal(err) {
			timer.EndWithError(err)
			return nil, err
		}
		cand.Status = types.StatusPartial
		cand.Warnings = append(cand.Warnings, fmt.Sprintf("metadata unavailable: %v", err))
		logger.Warn(ctx, "metadata fetch failed, evaluating without it", "symbol", input.Symbol, "error", err.Error())
		meta = nil
	}
	meta = e.mergeHints(meta, input, series)
	cand.Metadata = meta

	cand.Indicators = e.engine.Compute(series)
	if cand.Indicators.MACDHistogram == nil || cand.Indicators.ATRExpansion == nil {
		cand.Status = types.StatusPartial
		cand.Warnings = append(cand.Warnings, fmt.Sprintf("indicator bundle incomplete at %d bars", series.Len()))
	}

	cand.RiskFlags = e.classifier.Classify(cand.Indicators, meta)
	if len(cand.RiskFlags) > 0 {
		flagNames := make([]string, len(cand.RiskFlags))
		for i, f := range cand.RiskFlags {
			flagNames[i] = string(f)
		}
		logger.Risk(ctx, input.Symbol, flagNames)
	}

	if e.opts.IncludeCatalyst && e.catalyst != nil {
		assessment, err := e.catalyst.Assess(ctx, input.Symbol, changeHint(meta, input))
		if err != nil {
			cand.Status = types.StatusPartial
			cand.Warnings = append(cand.Warnings, fmt.Sprintf("catalyst assessment unavailable: %v", err))
			logger.Warn(ctx, "catalyst assessment failed", "symbol", input.Symbol, "error", err.Error())
		} else {
			cand.Catalyst = assessment
		}
	}

	breakdown := e.scorer.Score(cand.Indicators, cand.RiskFlags, cand.Catalyst)
	cand.Score = breakdown.Final
	cand.Rating = breakdown.Rating

	expr, warnings := scoring.Select(cand.Score, cand.RiskFlags, cand.Catalyst)
	cand.Expression = expr
	cand.Warnings = append(cand.Warnings, warnings...)

	logger.Candidate(ctx, cand.Symbol, cand.Score, string(cand.Rating), string(cand.Expression),
		"flags", len(cand.RiskFlags), "status", string(cand.Status))
	timer.End("score", cand.Score, "expression", string(cand.Expression))
	return cand, nil
}

// mergeHints fills metadata gaps from the ticker source's hints and derives
// the day change and average volume from the bars when no source supplied
// them.
func (e *Evaluator) mergeHints(meta *types.Metadata, input types.TickerInput, series *types.PriceSeries) *types.Metadata {
	if meta == nil {
		meta = &types.Metadata{Symbol: input.Symbol}
	}
	if meta.ChangePercent == nil && input.ChangePercent != nil {
		meta.ChangePercent = input.ChangePercent
	}
	if meta.LastPrice == nil && input.LastPrice != nil {
		meta.LastPrice = input.LastPrice
	}
	if meta.ChangePercent == nil && series.Len() >= 2 {
		prev := series.Bars[series.Len()-2].Close
		last := series.Bars[series.Len()-1].Close
		if prev > 0 {
			meta.ChangePercent = types.FloatPtr((last - prev) / prev * 100.0)
		}
	}
	if meta.AvgVolume == nil {
		meta.AvgVolume = trailingAvgVolume(series, 10)
	}
	return meta
}

// trailingAvgVolume averages daily volume over up to window bars ending
// before the latest bar. The latest bar is excluded: on the gappers this
// scanner targets its session print runs far above the name's normal tape
// and would swamp the average.
func trailingAvgVolume(series *types.PriceSeries, window int) *int64 {
	end := series.Len() - 1
	if end < 1 {
		return nil
	}
	start := end - window
	if start < 0 {
		start = 0
	}
	var sum int64
	for _, b := range series.Bars[start:end] {
		sum += b.Volume
	}
	return types.IntPtr(sum / int64(end-start))
}

func changeHint(meta *types.Metadata, input types.TickerInput) *float64 {
	if meta != nil && meta.ChangePercent != nil {
		return meta.ChangePercent
	}
	return input.ChangePercent
}
