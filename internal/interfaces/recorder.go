package interfaces

import (
	"context"

	"shortscan/internal/types"
)

// RunRecorder persists completed scan runs for later review.
type RunRecorder interface {
	RecordRun(ctx context.Context, result *types.BatchResult) error
	Close() error
}
