package scheduler

import "errors"

// Error constants.
var (
	ErrInvalidSpec = errors.New("invalid cron spec")
	ErrBusy        = errors.New("snapshot already running")
	ErrNilTarget   = errors.New("snapshotter is nil")
)
