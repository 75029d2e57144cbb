package service

import (
	"time"

	"github.com/okian/fantaledger/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the platform the pipeline reads from.
func WithSource(src Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithCredentials sets the login used for each run.
func WithCredentials(email, password string) Option {
	return func(s *Service) {
		s.email = email
		s.password = password
	}
}

// WithCutoff sets the season start; older feed events end pagination.
func WithCutoff(cutoff time.Time) Option {
	return func(s *Service) {
		s.cutoff = cutoff
	}
}

// WithLocation sets the location used to render sale dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPageSize sets the board page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithInitialBudget sets the starting budget of every member, in millions.
func WithInitialBudget(millions float64) Option {
	return func(s *Service) {
		s.initialBudget = millions
	}
}

// WithTradingOnlyMembers includes members without round results in balances.
func WithTradingOnlyMembers(include bool) Option {
	return func(s *Service) {
		s.tradingOnly = include
	}
}

// WithRecorder sets where Snapshot persists reports.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
