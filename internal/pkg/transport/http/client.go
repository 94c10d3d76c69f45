// Package http builds HTTP clients with transport-level retry, wrapping
// HashiCorp's retryablehttp.Client behind functional options.
package http

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// config holds the HTTP client settings.
type config struct {
	timeout      time.Duration // per-request deadline
	retryWaitMin time.Duration // minimum delay between transport retries
	retryWaitMax time.Duration // maximum delay between transport retries
	retryMax     int           // transport-level retry count
}

// Option customizes the HTTP client.
type Option func(*config)

// NewClient returns a retryablehttp.Client configured with the provided
// options. Defaults: 10s timeout, 1s..5s retry wait, 2 retries. The internal
// retryablehttp logger is disabled; request logging is the caller's concern.
func NewClient(opts ...Option) *retryablehttp.Client {
	cfg := config{
		timeout:      10 * time.Second,
		retryWaitMin: 1 * time.Second,
		retryWaitMax: 5 * time.Second,
		retryMax:     2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.timeout
	client.RetryWaitMin = cfg.retryWaitMin
	client.RetryWaitMax = cfg.retryWaitMax
	client.RetryMax = cfg.retryMax
	return client
}

// WithTimeout sets the per-request deadline. Default: 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithRetryWaitMin sets the minimum delay between transport retries.
// Default: 1 second.
func WithRetryWaitMin(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMin = d
	}
}

// WithRetryWaitMax sets the maximum delay between transport retries.
// Default: 5 seconds.
func WithRetryWaitMax(d time.Duration) Option {
	return func(c *config) {
		c.retryWaitMax = d
	}
}

// WithRetryMax sets the number of transport-level retries. Default: 2.
func WithRetryMax(n int) Option {
	return func(c *config) {
		c.retryMax = n
	}
}
