package catalyst

import (
	"context"

	"shortscan/internal/interfaces"
	"shortscan/internal/types"
)

// NoopFetcher satisfies the catalyst interface without doing any work.
// Used when catalyst analysis is disabled; candidates score on technicals
// and risk flags alone.
type NoopFetcher struct{}

var _ interfaces.CatalystFetcher = (*NoopFetcher)(nil)

func (NoopFetcher) Assess(ctx context.Context, symbol string, changePercent *float64) (*types.CatalystAssessment, error) {
	return &types.CatalystAssessment{
		Classification: types.CatalystUnknown,
		Summary:        "catalyst analysis disabled",
		Confidence:     types.ConfidenceLow,
	}, nil
}
