package sportsdata

import "errors"

var (
	// ErrBadRequest indicates the upstream API rejected the request.
	// Not retryable; the request itself is wrong.
	ErrBadRequest = errors.New("sports API rejected request")

	// ErrUnauthorized indicates token authentication failed.
	ErrUnauthorized = errors.New("sports API authentication failed")

	// ErrUnavailable indicates the upstream API could not be reached
	// or kept failing after all retry attempts.
	ErrUnavailable = errors.New("sports API unavailable")
)
