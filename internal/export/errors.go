package export

import "errors"

// Error constants.
var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnknownTable  = errors.New("unknown export table")
	ErrEncode        = errors.New("encoding export table")
	ErrNilReport     = errors.New("report is nil")
)
