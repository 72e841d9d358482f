package recorder

import (
	"context"

	"shortscan/internal/interfaces"
	"shortscan/internal/types"
)

// NoopRecorder discards runs. Used when persistence is disabled.
type NoopRecorder struct{}

var _ interfaces.RunRecorder = (*NoopRecorder)(nil)

func (NoopRecorder) RecordRun(ctx context.Context, result *types.BatchResult) error { return nil }

func (NoopRecorder) Close() error { return nil }
