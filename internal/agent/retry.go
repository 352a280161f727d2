package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// RetryConfig configures retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryableError reports whether an error is worth another attempt.
// Model SDK errors carry no stable types, so this matches on text.
func retryableError(err error) bool {
	if err == nil {
		return false
	}

	s := err.Error()
	if containsAny(s, "rate limit", "quota exceeded", "429") {
		return true
	}
	if containsAny(s, "500", "502", "503", "504", "unavailable") {
		return true
	}
	if containsAny(s, "connection reset", "timeout", "temporary") {
		return true
	}
	return false
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// generateWithRetry runs one model call with exponential backoff.
// Each attempt waits on the rate limiter first, so retries cannot
// pile onto a throttled upstream.
func (e *GeminiEngine) generateWithRetry(ctx context.Context, opts []ai.GenerateOption) (*ai.ModelResponse, error) {
	var lastErr error
	delay := e.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := e.generate(ctx, opts...)
		if err == nil {
			e.logger.Debug("model call succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp, nil
		}
		lastErr = err

		if !retryableError(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if attempt == e.retry.MaxRetries {
			break
		}

		e.logger.Debug("retrying model call",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, e.retry.MaxInterval)
		}
	}

	return nil, fmt.Errorf("generate after %d retries (elapsed %v): %w",
		e.retry.MaxRetries, time.Since(start), lastErr)
}
