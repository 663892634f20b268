package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrBreakerOpen marks an attempt skipped because the endpoint's breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker open")

// ErrNoStrategies is returned when the chain has nothing to try.
var ErrNoStrategies = errors.New("no upload strategies configured")

// HTTPError represents a non-2xx response from an upload endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// AttemptError is the failure of one strategy.
type AttemptError struct {
	Strategy string
	Err      error
}

func (e *AttemptError) Error() string { return e.Strategy + ": " + e.Err.Error() }

func (e *AttemptError) Unwrap() error { return e.Err }

// ChainError aggregates the failures of every strategy, in attempt order.
type ChainError struct {
	Attempts []*AttemptError
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoStrategies.Error()
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return "all uploads failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual attempt errors to errors.Is / errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// IsTransient reports whether err is worth retrying later and should count
// against the endpoint's breaker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == 429
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "eof")
}

// IsFatal reports whether err means the request itself is unacceptable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != 429
	}
	return false
}
