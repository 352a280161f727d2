package agent

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is the circuit breaker's current mode.
type CircuitState int

const (
	// CircuitClosed is normal operation.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects all requests.
	CircuitOpen
	// CircuitHalfOpen lets test requests through to probe recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the model-call circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes needed to close from half-open
	Timeout          time.Duration // open duration before probing
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker is rejecting requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards the model API against hammering a failing
// upstream.
type CircuitBreaker struct {
	mu sync.Mutex

	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time

	failureThreshold int
	successThreshold int
	timeout          time.Duration
}

// NewCircuitBreaker builds a breaker, filling zero config values with
// defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		timeout:          cfg.Timeout,
	}
}

// Allow reports whether a request may proceed. It owns the open to
// half-open transition, so it takes the exclusive lock.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if time.Since(cb.lastFailure) <= cb.timeout {
			return ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
		cb.successes = 0
	}
	return nil
}

// Success records a successful call.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = CircuitClosed
			cb.failures = 0
			cb.successes = 0
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

// Failure records a failed call.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.failureThreshold {
			cb.state = CircuitOpen
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.successes = 0
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
