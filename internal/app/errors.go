package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrUpstream wraps every failure of the platform source, including
	// fetch failures and malformed feed events.
	ErrUpstream = errors.New("upstream failure")
	// ErrInvalidArgument is returned for query arguments the service cannot serve.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoSource is returned when the service was built without a source.
	ErrNoSource = errors.New("no platform source configured")
)
