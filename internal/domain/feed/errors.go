package feed

import "errors"

// Sentinel kinds for pagination errors.
var (
	// ErrFetch wraps a failure reported by the page fetcher.
	ErrFetch = errors.New("fetch failure")
	// ErrInvalidLimit is returned when the page size is not positive.
	ErrInvalidLimit = errors.New("page limit must be positive")
	// ErrNilFetch is returned when no page fetcher is supplied.
	ErrNilFetch = errors.New("nil page fetcher")
)
