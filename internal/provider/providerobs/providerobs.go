// Package providerobs wraps a PriceFetcher with logging and tracing.
package providerobs

import (
	"context"

	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/types"
)

type observableFetcher struct {
	fetcher interfaces.PriceFetcher
}

var _ interfaces.PriceFetcher = (*observableFetcher)(nil)

// Wrap wraps a fetcher with observability middleware.
func Wrap(fetcher interfaces.PriceFetcher) interfaces.PriceFetcher {
	return &observableFetcher{fetcher: fetcher}
}

func (of *observableFetcher) History(ctx context.Context, symbol string, lookback int) (*types.PriceSeries, error) {
	ctx, span := logger.StartSpan(ctx, "provider.History")
	defer span.End()

	// Skip(1) reports the actual caller, not this wrapper.
	logger.DebugSkip(ctx, 1, "Fetching price history", "symbol", symbol, "lookback", lookback)

	series, err := of.fetcher.History(ctx, symbol, lookback)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Price history fetch failed", err,
			"symbol", symbol,
			"kind", string(types.FetchKind(err)),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Price history fetched", "symbol", symbol, "bars", series.Len())
	return series, nil
}

func (of *observableFetcher) Metadata(ctx context.Context, symbol string) (*types.Metadata, error) {
	ctx, span := logger.StartSpan(ctx, "provider.Metadata")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching metadata", "symbol", symbol)

	meta, err := of.fetcher.Metadata(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Metadata fetch failed", err,
			"symbol", symbol,
			"kind", string(types.FetchKind(err)),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Metadata fetched",
		"symbol", symbol,
		"exchange", meta.Exchange,
		"has_float", meta.FloatShares != nil,
		"has_ipo_date", meta.IPODate != nil,
	)
	return meta, nil
}
