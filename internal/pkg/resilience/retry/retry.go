// Package retry provides a configurable retry mechanism for operations that
// may fail transiently. It wraps the retry-go package from Avast behind a
// small interface with functional options.
//
// The default policy makes up to 3 attempts with exponential backoff: the
// delay before attempt k (k >= 2) is base * 2^(k-2), capped at the configured
// maximum.
//
//	r := retry.New(retry.WithMaxAttempts(5), retry.WithBaseDelay(time.Second))
//	err := r.Execute(ctx, func() error { return callRemote() })
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry executes operations with automatic retry on failure.
type Retry interface {
	// Execute runs operation, retrying on error according to the configured
	// policy. The operation must be safe to call multiple times. If the
	// context is canceled, retrying stops and the context error is returned.
	// On exhaustion only the last underlying error is surfaced.
	Execute(ctx context.Context, operation func() error) error
}

// config holds the retry policy settings.
type config struct {
	maxAttempts uint          // total attempts, including the first
	baseDelay   time.Duration // delay before the second attempt; doubles each retry
	maxDelay    time.Duration // ceiling for the backoff delay
}

// Option customizes the retry policy.
type Option func(*config)

// WithMaxAttempts sets the total number of attempts, including the initial
// one. Default: 3.
func WithMaxAttempts(n uint) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithBaseDelay sets the delay before the first retry. Subsequent delays
// double until they hit the ceiling. Default: 1 second.
func WithBaseDelay(d time.Duration) Option {
	return func(c *config) {
		c.baseDelay = d
	}
}

// WithMaxDelay caps the exponential backoff delay. Default: 8 seconds.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// retrier implements Retry on top of retry-go.
type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New returns a Retry configured with the provided options, falling back to
// defaults for anything left unset.
func New(opts ...Option) Retry {
	cfg := config{
		maxAttempts: 3,
		baseDelay:   1 * time.Second,
		maxDelay:    8 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}

// Execute implements Retry.
func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	return retry.Do(operation,
		retry.Attempts(r.cfg.maxAttempts),
		retry.Delay(r.cfg.baseDelay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}
