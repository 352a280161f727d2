package agent

import "errors"

// Sentinel errors checked with errors.Is by the HTTP layer.
var (
	// ErrEmptyMessage indicates the user message was blank.
	ErrEmptyMessage = errors.New("empty message")

	// ErrTurnTimeout indicates the turn hit its wall-clock deadline.
	ErrTurnTimeout = errors.New("turn deadline exceeded")

	// ErrNotConverged indicates the model kept requesting tools past
	// the dispatch round limit without producing an answer.
	ErrNotConverged = errors.New("turn did not converge")
)
