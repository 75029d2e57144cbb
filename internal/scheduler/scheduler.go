// Package scheduler takes report snapshots on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

// Snapshotter builds and records one report.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*model.Report, error)
}

// Hook runs after a successful snapshot, e.g. to export it.
type Hook func(ctx context.Context, r *model.Report) error

// Scheduler runs Snapshot on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	target     Snapshotter
	spec       string
	hooks      []Hook
	runTimeout time.Duration
	log        logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
	lastRun  atomic.Int64
}

// New creates a Scheduler for target.
func New(target Snapshotter, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		target:     target,
		runTimeout: defaultRunTimeout,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.spec != ""
}

// Start registers the snapshot job and starts the cron loop. It is a no-op
// when no spec is configured.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.target == nil {
		return ErrNilTarget
	}
	if !s.Enabled() {
		s.log.Info(ctx, "scheduler disabled")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		s.cancel()
		return fmt.Errorf("%w: %q: %w", ErrInvalidSpec, s.spec, err)
	}
	s.cron.Start()
	s.started = true
	s.log.Info(ctx, "scheduler started", logger.String("spec", s.spec))
	return nil
}

// Stop halts the cron loop, cancels a running snapshot and waits for it to
// return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false
	s.log.Info(context.Background(), "scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.runTimeout)
	defer cancel()
	if err := s.RunNow(ctx); err != nil {
		s.log.Error(ctx, "scheduled snapshot failed", logger.Error(err))
	}
}

// RunNow takes a snapshot immediately and runs the hooks. Concurrent calls
// are refused with ErrBusy.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if s.target == nil {
		return ErrNilTarget
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.running.Store(false)

	s.runs.Add(1)
	s.lastRun.Store(time.Now().Unix())

	report, err := s.target.Snapshot(ctx)
	if err != nil {
		s.failures.Add(1)
		return err
	}
	for _, h := range s.hooks {
		if err := h(ctx, report); err != nil {
			s.failures.Add(1)
			return fmt.Errorf("snapshot %s hook: %w", report.RunID, err)
		}
	}
	s.log.Info(ctx, "snapshot taken", logger.String("runID", report.RunID.String()))
	return nil
}

// GetStats returns scheduler statistics for monitoring.
func (s *Scheduler) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"enabled":  s.Enabled(),
		"spec":     s.spec,
		"running":  s.running.Load(),
		"runs":     s.runs.Load(),
		"failures": s.failures.Load(),
	}
	if last := s.lastRun.Load(); last > 0 {
		stats["lastRunAt"] = time.Unix(last, 0).UTC().Format(time.RFC3339)
	}
	return stats
}
