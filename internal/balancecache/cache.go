// Package balancecache memoizes chain balance queries behind a short TTL.
// Balance lookups are the most frequent and least latency-tolerant calls this
// system makes, and TronGrid rate limits are tight; a few seconds of staleness
// is an acceptable trade for not re-issuing the same RPC on every request.
package balancecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/pkg/resilience/retry"

	"github.com/shopspring/decimal"
)

// ErrStaleBalance marks a degraded read: every fresh fetch attempt failed and
// the returned amount comes from an expired cache entry. The underlying chain
// error is wrapped alongside it.
var ErrStaleBalance = errors.New("serving stale balance")

// BalanceFetcher is the slice of the chain client this package consumes.
type BalanceFetcher interface {
	// GetBalance returns the pre-scaled balance of address for the given
	// token. Fails with chain.ErrUnavailable on transport errors.
	GetBalance(ctx context.Context, address string, token chain.TokenKind) (decimal.Decimal, error)
}

// Service exposes cached balance reads.
type Service interface {
	// GetBalance returns the balance of address for the given token. A value
	// cached within the TTL is returned without any network call. On a miss
	// the fetch goes through the retry policy; if it still fails, the last
	// known value is returned together with an ErrStaleBalance-wrapped error,
	// or decimal.Zero and the fetch error when nothing was ever cached.
	GetBalance(ctx context.Context, address string, token chain.TokenKind) (decimal.Decimal, error)
}

// cacheKey identifies one cached balance.
type cacheKey struct {
	address string
	token   chain.TokenKind
}

// cacheEntry is a fetched balance plus its fetch time, used for TTL checks.
type cacheEntry struct {
	amount    decimal.Decimal
	fetchedAt time.Time
}

type service struct {
	fetcher BalanceFetcher
	retry   retry.Retry
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

var _ Service = (*service)(nil)

// config holds the cache settings.
type config struct {
	ttl   time.Duration
	retry retry.Retry
}

// Option customizes the cache.
type Option func(*config)

// WithTTL sets how long a fetched balance stays fresh. Default: 30 seconds.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		c.ttl = d
	}
}

// WithRetry sets the retry policy applied to cache-miss fetches.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// New creates a balance cache over the given fetcher.
func New(fetcher BalanceFetcher, opts ...Option) *service {
	cfg := config{
		ttl:   30 * time.Second,
		retry: retry.New(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		fetcher: fetcher,
		retry:   cfg.retry,
		ttl:     cfg.ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// lookup returns the cached entry for key, if any, and whether it is still
// within the TTL.
func (s *service) lookup(key cacheKey) (cacheEntry, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return cacheEntry{}, false, false
	}

	fresh := s.now().Sub(entry.fetchedAt) < s.ttl
	return entry, true, fresh
}

// store replaces the cached entry for key with the given amount, stamped with
// the current time.
func (s *service) store(key cacheKey, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = cacheEntry{amount: amount, fetchedAt: s.now()}
}

// GetBalance implements Service. The network fetch happens outside the cache
// lock so concurrent reads of other addresses are never blocked on I/O.
func (s *service) GetBalance(ctx context.Context, address string, token chain.TokenKind) (decimal.Decimal, error) {
	key := cacheKey{address: address, token: token}

	entry, exists, fresh := s.lookup(key)
	if fresh {
		return entry.amount, nil
	}

	var amount decimal.Decimal
	err := s.retry.Execute(ctx, func() error {
		var fetchErr error
		amount, fetchErr = s.fetcher.GetBalance(ctx, address, token)
		return fetchErr
	})
	if err == nil {
		s.store(key, amount)
		return amount, nil
	}

	if exists {
		logger.Warn(ctx, "balance fetch failed, serving last known value",
			"address", address,
			"token", token,
			"fetched_at", entry.fetchedAt,
			"error", err,
		)
		return entry.amount, fmt.Errorf("%w: %w", ErrStaleBalance, err)
	}

	return decimal.Zero, err
}
