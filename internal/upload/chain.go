// Package upload publishes a cleaned file to the first remote endpoint that
// accepts it and returns a shareable link.
package upload

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	mpkg "github.com/local/pdfclean/internal/metrics"
)

// Strategy uploads a local file and returns a link to it. It must not modify
// or remove the file.
type Strategy interface {
	Name() string
	Upload(ctx context.Context, path string) (string, error)
}

// Breaker gates attempts per strategy name.
type Breaker interface {
	Allow(ctx context.Context, endpoint string) bool
	Failure(ctx context.Context, endpoint string)
	Success(ctx context.Context, endpoint string)
}

// Result is a successful upload.
type Result struct {
	Link     string
	Strategy string
	// Failed holds the attempts that failed before the successful one.
	Failed []*AttemptError
}

// Chain tries strategies in order until one succeeds.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	breaker    Breaker
}

// NewChain builds a chain. timeout bounds each attempt; breaker may be nil.
func NewChain(timeout time.Duration, breaker Breaker, strategies ...Strategy) *Chain {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Chain{strategies: strategies, timeout: timeout, breaker: breaker}
}

// Len returns the number of configured strategies.
func (c *Chain) Len() int { return len(c.strategies) }

// Upload returns the first successful link, or a *ChainError listing every
// failed attempt.
func (c *Chain) Upload(ctx context.Context, path string) (Result, error) {
	if len(c.strategies) == 0 {
		return Result{}, ErrNoStrategies
	}
	var failed []*AttemptError
	for _, s := range c.strategies {
		name := s.Name()
		if c.breaker != nil && !c.breaker.Allow(ctx, name) {
			failed = append(failed, &AttemptError{Strategy: name, Err: ErrBreakerOpen})
			mpkg.ObserveUpload(name, "skipped", 0)
			continue
		}

		link, err := c.attempt(ctx, s, path)
		if err == nil {
			if c.breaker != nil {
				c.breaker.Success(ctx, name)
			}
			return Result{Link: link, Strategy: name, Failed: failed}, nil
		}

		log.Warn().Err(err).Str("strategy", name).Str("file", path).Msg("upload attempt failed")
		failed = append(failed, &AttemptError{Strategy: name, Err: err})
		if c.breaker != nil && IsTransient(err) {
			c.breaker.Failure(ctx, name)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, &ChainError{Attempts: failed}
}

func (c *Chain) attempt(ctx context.Context, s Strategy, path string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	link, err := s.Upload(cctx, path)
	dur := time.Since(start)

	result := "success"
	switch {
	case err == nil && link == "":
		err = errors.New("empty link returned")
		result = "fatal"
	case err != nil && cctx.Err() == context.DeadlineExceeded:
		err = &timeoutError{after: c.timeout, err: err}
		result = "timeout"
	case IsTransient(err):
		result = "transient"
	case IsFatal(err):
		result = "fatal"
	case err != nil:
		result = "unknown"
	}
	mpkg.ObserveUpload(s.Name(), result, dur)
	return link, err
}

type timeoutError struct {
	after time.Duration
	err   error
}

func (e *timeoutError) Error() string { return "timed out after " + e.after.String() + ": " + e.err.Error() }

func (e *timeoutError) Unwrap() []error { return []error{context.DeadlineExceeded, e.err} }
