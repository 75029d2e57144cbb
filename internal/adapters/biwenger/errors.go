package biwenger

import "errors"

// Sentinel kinds for upstream failures.
var (
	// ErrLogin is returned when the platform rejects the credentials.
	ErrLogin = errors.New("login failed")
	// ErrStatus is returned for a non-success HTTP or body status.
	ErrStatus = errors.New("unexpected upstream status")
	// ErrDecode is returned when a response body cannot be parsed.
	ErrDecode = errors.New("decode upstream response")
)
