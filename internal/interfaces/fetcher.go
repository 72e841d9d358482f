package interfaces

import (
	"context"

	"shortscan/internal/types"
)

// PriceFetcher retrieves market data for one symbol. History failures are
// terminal for the ticker; metadata failures degrade to partial evaluation.
type PriceFetcher interface {
	// History returns daily bars, ascending by date, at least lookback bars
	// when available.
	History(ctx context.Context, symbol string, lookback int) (*types.PriceSeries, error)

	// Metadata returns reference data for the symbol. Missing fields stay nil.
	Metadata(ctx context.Context, symbol string) (*types.Metadata, error)
}
