package session

import "errors"

// Sentinel errors for store operations, checked with errors.Is().
var (
	// ErrEmptyID indicates a blank session identifier.
	ErrEmptyID = errors.New("empty session id")

	// ErrNilState indicates Put was called with a nil state.
	ErrNilState = errors.New("nil session state")
)
