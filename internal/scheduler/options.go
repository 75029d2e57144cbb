package scheduler

import (
	"time"

	"github.com/okian/fantaledger/pkg/logger"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSpec sets the cron spec (six fields, seconds first). Empty disables the schedule.
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		s.spec = spec
	}
}

// WithHook adds a callback run after every successful snapshot.
func WithHook(h Hook) Option {
	return func(s *Scheduler) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}

// WithRunTimeout bounds each scheduled run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}
