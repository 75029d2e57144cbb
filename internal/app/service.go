// Package service runs the ledger pipeline: it logs into the platform, walks
// the league board, fetches the roster and derives the report tables served
// by the HTTP API, the scheduler and the export CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/fantaledger/internal/adapters/biwenger"
	"github.com/okian/fantaledger/internal/adapters/recorder"
	"github.com/okian/fantaledger/internal/domain/balance"
	"github.com/okian/fantaledger/internal/domain/feed"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/roster"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
)

// Source is the fantasy platform as seen by the pipeline.
type Source interface {
	Login(ctx context.Context, email, password string) (biwenger.Session, error)
	FetchFunc(s biwenger.Session) feed.FetchFunc
	Players(ctx context.Context) ([]model.PlayerRecord, error)
	Market(ctx context.Context, s biwenger.Session) ([]model.MarketOffer, error)
}

// Recorder persists reports produced by Snapshot.
type Recorder interface {
	RecordReport(ctx context.Context, r *model.Report) error
}

// Service implements the API dependencies for the ledger. Every call starts
// a fresh run; nothing is cached between requests.
type Service struct {
	mu sync.RWMutex

	source   Source
	recorder Recorder

	// Configuration
	email         string
	password      string
	cutoff        time.Time
	loc           *time.Location
	pageSize      int
	initialBudget float64
	tradingOnly   bool

	// State
	started      bool
	runs         int64
	failures     int64
	snapshots    int64
	lastRunID    uuid.UUID
	lastRunAt    time.Time
	lastDuration time.Duration
	lastError    string

	logger logger.Logger
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{
		recorder:      recorder.NoopRecorder{},
		loc:           time.Local,
		pageSize:      feed.DefaultLimit,
		initialBudget: 20,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}
	s.started = true
	s.logger.Info(ctx, "ledger service started",
		logger.String("cutoff", s.cutoff.In(s.loc).Format(model.DateLayout)),
		logger.Int("pageSize", s.pageSize),
		logger.Float64("initialBudget", s.initialBudget),
		logger.Bool("tradingOnlyMembers", s.tradingOnly),
	)
	return nil
}

// Stop releases the recorder.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if c, ok := s.recorder.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing recorder", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "ledger service stopped")
}

// Report runs the pipeline once: feed pagination and the roster fetch run
// concurrently, then the derived tables are computed.
func (s *Service) Report(ctx context.Context) (*model.Report, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	start := time.Now()
	runID := uuid.New()
	log := s.logger.Named("run")

	session, err := s.source.Login(ctx, s.email, s.password)
	if err != nil {
		return nil, s.finish(ctx, runID, start, fmt.Errorf("%w: %w", ErrUpstream, err))
	}

	var (
		res     *feed.Result
		players []model.PlayerRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = feed.Paginate(gctx, s.source.FetchFunc(session), s.cutoff.Unix(),
			feed.WithLimit(s.pageSize),
			feed.WithLocation(s.loc),
		)
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.source.Players(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.finish(ctx, runID, start, fmt.Errorf("%w: %w", ErrUpstream, err))
	}

	report := &model.Report{
		RunID:       runID,
		GeneratedAt: start.UTC(),
		Cutoff:      s.cutoff,
		Pages:       res.Pages,
		Sales:       res.Sales,
		Rounds:      res.Rounds,
		Balance:     balance.Compute(s.initialBudget, res.Sales, res.Rounds, balance.WithTradingOnlyMembers(s.tradingOnly)),
		Links:       balance.Links(res.Sales),
		Signings:    balance.Signings(res.Sales),
		Players:     players,
	}

	metrics.AddFeedPages(res.Pages)
	for typ, n := range res.Events {
		for range n {
			metrics.RecordFeedEvent(string(typ))
		}
	}
	metrics.AddRecords("sales", len(report.Sales))
	metrics.AddRecords("rounds", len(report.Rounds))
	metrics.AddRecords("players", len(report.Players))
	metrics.UpdateMembers(len(report.Balance))

	log.Info(ctx, "report built",
		logger.String("runID", runID.String()),
		logger.Int("pages", res.Pages),
		logger.Int("sales", len(report.Sales)),
		logger.Int("rounds", len(report.Rounds)),
		logger.Int("members", len(report.Balance)),
	)
	return report, s.finish(ctx, runID, start, nil)
}

// finish records run stats and metrics and returns err unchanged.
func (s *Service) finish(ctx context.Context, runID uuid.UUID, start time.Time, err error) error {
	elapsed := time.Since(start)

	s.mu.Lock()
	s.runs++
	s.lastRunID = runID
	s.lastRunAt = start
	s.lastDuration = elapsed
	s.lastError = ""
	if err != nil {
		s.failures++
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if mErr := metrics.RecordPipelineRun(outcome(err), float64(elapsed.Milliseconds())); mErr != nil {
		s.logger.Warn(ctx, "recording pipeline metrics", logger.Error(mErr))
	}
	if err != nil {
		s.logger.Error(ctx, "pipeline run failed",
			logger.String("runID", runID.String()),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, model.ErrMalformedEvent):
		return metrics.OutcomeMalformed
	case errors.Is(err, feed.ErrFetch),
		errors.Is(err, biwenger.ErrLogin),
		errors.Is(err, biwenger.ErrStatus),
		errors.Is(err, biwenger.ErrDecode):
		return metrics.OutcomeFetch
	default:
		return metrics.OutcomeError
	}
}

// Players returns the current roster.
func (s *Service) Players(ctx context.Context) ([]model.PlayerRecord, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	players, err := s.source.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return players, nil
}

// TopLastSeason ranks players of a position within a price band in millions.
func (s *Service) TopLastSeason(ctx context.Context, position model.Position, minMillions, maxMillions float64, n int) ([]model.PlayerRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidArgument)
	}
	if minMillions > maxMillions {
		return nil, fmt.Errorf("%w: min %.2f above max %.2f", ErrInvalidArgument, minMillions, maxMillions)
	}
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	return roster.RankTopLastSeason(players, position, minMillions, maxMillions, n), nil
}

// Performance returns per-player efficiency for the current season.
func (s *Service) Performance(ctx context.Context) ([]model.PerformanceRow, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	return roster.Performance(players), nil
}

// Market returns the current market listing with player names filled from
// the roster where the listing omits them.
func (s *Service) Market(ctx context.Context) ([]model.MarketOffer, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	session, err := s.source.Login(ctx, s.email, s.password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	var (
		offers  []model.MarketOffer
		players []model.PlayerRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		offers, err = s.source.Market(gctx, session)
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.source.Players(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	names := roster.Names(players)
	for i := range offers {
		if offers[i].Name == "" {
			offers[i].Name = roster.NameOf(names, offers[i].PlayerID)
		}
	}
	return offers, nil
}

// Snapshot builds a report and persists it through the recorder.
func (s *Service) Snapshot(ctx context.Context) (*model.Report, error) {
	report, err := s.Report(ctx)
	if err != nil {
		metrics.RecordSnapshot("error")
		return nil, err
	}
	if err := s.recorder.RecordReport(ctx, report); err != nil {
		metrics.RecordSnapshot("error")
		return nil, fmt.Errorf("recording snapshot %s: %w", report.RunID, err)
	}
	metrics.RecordSnapshot("ok")

	s.mu.Lock()
	s.snapshots++
	s.mu.Unlock()

	s.logger.Info(ctx, "snapshot recorded", logger.String("runID", report.RunID.String()))
	return report, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"runs":               s.runs,
		"failures":           s.failures,
		"snapshots":          s.snapshots,
		"pageSize":           s.pageSize,
		"initialBudget":      s.initialBudget,
		"tradingOnlyMembers": s.tradingOnly,
		"cutoff":             s.cutoff.Unix(),
	}
	if s.runs > 0 {
		stats["lastRunID"] = s.lastRunID.String()
		stats["lastRunAt"] = s.lastRunAt.UTC().Format(time.RFC3339)
		stats["lastDurationMs"] = s.lastDuration.Milliseconds()
		if s.lastError != "" {
			stats["lastError"] = s.lastError
		}
	}
	return stats
}
