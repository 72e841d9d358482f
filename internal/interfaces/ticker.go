package interfaces

import (
	"context"

	"shortscan/internal/types"
)

// TickerSource enumerates the symbols a run should evaluate.
type TickerSource interface {
	Tickers(ctx context.Context) ([]types.TickerInput, error)
}
