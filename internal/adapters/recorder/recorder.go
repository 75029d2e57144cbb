// Package recorder persists report snapshots for later inspection.
package recorder

import (
	"context"
	"errors"
	"time"

	"github.com/okian/fantaledger/internal/domain/model"
)

// ErrRunNotFound is returned when a run id has no stored snapshot.
var ErrRunNotFound = errors.New("run not found")

// Recorder stores reports.
type Recorder interface {
	RecordReport(ctx context.Context, r *model.Report) error
	Close() error
}

// RunSummary is one stored snapshot.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Cutoff      time.Time `json:"cutoff"`
	Pages       int       `json:"pages"`
	Sales       int       `json:"sales"`
	Rounds      int       `json:"rounds"`
	Members     int       `json:"members"`
}
