package model

import "errors"

// Sentinel kinds for model errors.
var (
	// ErrMalformedEvent marks a feed event whose payload lacks a field its type requires.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrUnknownPosition marks a position code or name outside the roster vocabulary.
	ErrUnknownPosition = errors.New("unknown position")
)
