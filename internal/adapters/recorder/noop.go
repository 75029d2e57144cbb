package recorder

import (
	"context"
	"fmt"

	"github.com/okian/fantaledger/internal/domain/model"
)

// NoopRecorder discards every report. Used when no database is configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordReport(context.Context, *model.Report) error { return nil }

// Runs always reports an empty history.
func (NoopRecorder) Runs(context.Context, int) ([]RunSummary, error) { return []RunSummary{}, nil }

// Balances reports every run as unknown.
func (NoopRecorder) Balances(_ context.Context, runID string) ([]model.BalanceRow, error) {
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}

func (NoopRecorder) Close() error { return nil }
