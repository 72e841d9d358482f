package interfaces

import (
	"context"

	"shortscan/internal/types"
)

// CandidateEvaluator runs the full pipeline for one ticker: fetch, compute
// indicators, classify risk, assess the catalyst, score, and pick a trade
// expression.
type CandidateEvaluator interface {
	Evaluate(ctx context.Context, input types.TickerInput) (*types.Candidate, error)
}
