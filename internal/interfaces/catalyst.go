package interfaces

import (
	"context"

	"shortscan/internal/types"
)

// CatalystFetcher explains why a symbol moved. Implementations may scrape
// news, call an LLM, or apply keyword heuristics; a failure never blocks
// evaluation, the candidate just loses its catalyst input.
type CatalystFetcher interface {
	Assess(ctx context.Context, symbol string, changePercent *float64) (*types.CatalystAssessment, error)
}
