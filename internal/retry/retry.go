// Package retry wraps a single upstream call with bounded
// exponential-backoff retries.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the delay before the first retry; retry n waits
	// base * 2^(n-1).
	DefaultBaseDelay = time.Second
)

// UpstreamError reports that an operation failed after exhausting all
// attempts. The last error is wrapped and available via errors.Unwrap.
type UpstreamError struct {
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Option configures an executor run.
type Option func(*config)

type config struct {
	maxRetries int
	baseDelay  time.Duration
}

// WithMaxRetries sets the retry budget (total attempts = retries + 1).
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry.
func WithBaseDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// newBackOff builds the deterministic doubling schedule. No jitter: the
// growth rate base, 2*base, 4*base is part of the executor's contract.
func newBackOff(ctx context.Context, cfg config) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = cfg.baseDelay
	expo.RandomizationFactor = 0
	expo.Multiplier = 2
	expo.MaxInterval = 24 * time.Hour // never cap the doubling in practice
	expo.MaxElapsedTime = 0
	expo.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(cfg.maxRetries)), ctx)
}

// Do runs op, retrying any error up to the configured budget. It makes no
// distinction between retryable and non-retryable failures; a vendor 404 is
// retried the same as a 500. On exhaustion the last error is returned
// wrapped in *UpstreamError.
func Do(ctx context.Context, op func() error, opts ...Option) error {
	cfg := config{maxRetries: DefaultMaxRetries, baseDelay: DefaultBaseDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return op()
	}, newBackOff(ctx, cfg))
	if err != nil {
		return &UpstreamError{Attempts: attempts, Err: err}
	}
	return nil
}

// DoValue runs op and returns its value, retrying like Do.
func DoValue[T any](ctx context.Context, op func() (T, error), opts ...Option) (T, error) {
	var result T
	err := Do(ctx, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		result = v
		return nil
	}, opts...)
	return result, err
}
