// Package transfermonitor detects new inbound token transfers for a set of
// watched addresses. Each poll fetches the recent transfer history of every
// watched address and filters it through a dedup ledger, so a transaction id
// is surfaced as an Event at most once for the ledger's lifetime.
package transfermonitor

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/tronwatch/internal/pkg/types"

	"github.com/shopspring/decimal"
)

// ErrInvalidAddress is returned when a watch mutation receives a malformed
// Tron address.
var ErrInvalidAddress = errors.New("invalid tron address")

// Event is an observed inbound transfer to a watched address. Events are
// immutable once emitted; the monitor retains only the transaction id (in the
// ledger) afterwards.
type Event struct {
	TxID        string          // chain-assigned transaction id, unique
	From        string          // sender address
	To          string          // recipient; always a watched address
	Token       chain.TokenKind // token transferred
	Amount      decimal.Decimal // amount in canonical decimal units
	BlockHeight int64
	BlockTime   time.Time
}

// PollFailure is a non-fatal, per-address diagnostic raised during a poll.
// Failures never abort the cycle; the affected address is retried next cycle.
type PollFailure struct {
	Address string
	Err     error
}

// PollFailureHandler receives per-address poll diagnostics. It runs
// synchronously inside PollOnce and must not block.
type PollFailureHandler func(ctx context.Context, failure PollFailure)

// TransferHistory is the slice of the chain client this package consumes.
type TransferHistory interface {
	// GetInboundTransfers returns up to limit inbound transfers for address,
	// most recent first. Fails with chain.ErrUnavailable on transport errors.
	GetInboundTransfers(ctx context.Context, address string, token chain.TokenKind, limit int) ([]chain.TransferRecord, error)
}

// Service is the monitoring entrypoint. Scheduling is the caller's concern:
// PollOnce is a single-shot operation invoked by an external timer loop.
type Service interface {
	// PollOnce scans every watched address for new inbound transfers and
	// returns the newly detected events, ordered by address registration
	// order and, within an address, most recent first. Per-address failures
	// are isolated and routed to the poll-failure handler.
	PollOnce(ctx context.Context) []Event

	// AddWatchedAddress registers an address for monitoring starting with the
	// next poll cycle. Returns ErrInvalidAddress on a malformed address.
	// Adding an address twice is a no-op.
	AddWatchedAddress(ctx context.Context, address string) error

	// RemoveWatchedAddress unregisters an address, effective from the next
	// poll cycle. It reports whether the address was being watched.
	RemoveWatchedAddress(ctx context.Context, address string) bool

	// WatchedAddresses returns the current watch list in registration order.
	WatchedAddresses() []string
}

type service struct {
	history       TransferHistory
	ledger        Ledger
	retry         retry.Retry
	token         chain.TokenKind
	lookback      int
	onPollFailure PollFailureHandler

	// mu guards the watch list only. It is never held across history calls,
	// so mutations between poll cycles do not block on network I/O and never
	// take effect mid-cycle.
	mu        sync.Mutex
	addresses []string
	index     types.Set[string]
}

var _ Service = (*service)(nil)

// config holds the monitor settings.
type config struct {
	ledger        Ledger
	retry         retry.Retry
	token         chain.TokenKind
	lookback      int
	onPollFailure PollFailureHandler
}

// Option customizes the monitor.
type Option func(*config)

// WithLedger swaps the dedup ledger backend, e.g. for a Redis-backed ledger
// that survives restarts. Default: a bounded in-memory ledger.
func WithLedger(l Ledger) Option {
	return func(c *config) {
		c.ledger = l
	}
}

// WithRetry sets the retry policy applied to history calls.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithToken sets the token kind being monitored. Default: USDT.
func WithToken(t chain.TokenKind) Option {
	return func(c *config) {
		c.token = t
	}
}

// WithLookback sets how many recent history records are examined per address
// per poll. Default: 20.
func WithLookback(n int) Option {
	return func(c *config) {
		c.lookback = n
	}
}

// WithPollFailureHandler sets the sink for per-address poll diagnostics.
// Default: log at error level.
func WithPollFailureHandler(h PollFailureHandler) Option {
	return func(c *config) {
		c.onPollFailure = h
	}
}

// defaultOnPollFailure logs a per-address failure.
func defaultOnPollFailure(ctx context.Context, failure PollFailure) {
	logger.Error(ctx, "address poll failed",
		"address", failure.Address,
		"error", failure.Err,
	)
}

// New creates a transfer monitor over the given history source, optionally
// seeded with an initial watch list. Malformed seed addresses are skipped with
// a warning rather than failing construction.
func New(history TransferHistory, seed []string, opts ...Option) *service {
	cfg := config{
		ledger:        NewMemoryLedger(defaultLedgerCapacity),
		retry:         retry.New(),
		token:         chain.TokenUSDT,
		lookback:      20,
		onPollFailure: defaultOnPollFailure,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &service{
		history:       history,
		ledger:        cfg.ledger,
		retry:         cfg.retry,
		token:         cfg.token,
		lookback:      cfg.lookback,
		onPollFailure: cfg.onPollFailure,
		index:         types.NewSet[string](),
	}

	for _, address := range seed {
		if err := s.AddWatchedAddress(context.Background(), address); err != nil {
			logger.Warn(context.Background(), "skipping invalid watch address", "address", address)
		}
	}

	return s
}

// AddWatchedAddress implements Service.
func (s *service) AddWatchedAddress(ctx context.Context, address string) error {
	if !chain.ValidAddress(address) {
		return ErrInvalidAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index.Has(address) {
		return nil
	}

	s.index.Add(address)
	s.addresses = append(s.addresses, address)

	logger.Info(ctx, "watching address", "address", address, "token", s.token)
	return nil
}

// RemoveWatchedAddress implements Service.
func (s *service) RemoveWatchedAddress(ctx context.Context, address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.index.Has(address) {
		return false
	}

	s.index.Delete(address)
	s.addresses = slices.DeleteFunc(s.addresses, func(a string) bool { return a == address })

	logger.Info(ctx, "stopped watching address", "address", address)
	return true
}

// WatchedAddresses implements Service.
func (s *service) WatchedAddresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.addresses)
}

// pollAddress fetches the recent history of one address and returns the
// records not yet present in the ledger, preserving the client's
// most-recent-first order.
func (s *service) pollAddress(ctx context.Context, address string) ([]Event, error) {
	var records []chain.TransferRecord
	err := s.retry.Execute(ctx, func() error {
		var fetchErr error
		records, fetchErr = s.history.GetInboundTransfers(ctx, address, s.token, s.lookback)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, record := range records {
		if record.To != address {
			continue
		}

		first, err := s.ledger.MarkSeen(ctx, record.TxID)
		if err != nil {
			// Leaving the id unrecorded means it is re-examined next cycle,
			// preserving at-most-once emission.
			return events, err
		}
		if !first {
			continue
		}

		events = append(events, Event{
			TxID:        record.TxID,
			From:        record.From,
			To:          record.To,
			Token:       record.Token,
			Amount:      record.Amount,
			BlockHeight: record.BlockHeight,
			BlockTime:   record.BlockTime,
		})
	}

	return events, nil
}

// PollOnce implements Service. The watch list is snapshotted up front, so
// concurrent Add/Remove calls take effect on the next cycle, never mid-cycle.
func (s *service) PollOnce(ctx context.Context) []Event {
	addresses := s.WatchedAddresses()

	var events []Event
	for _, address := range addresses {
		if ctx.Err() != nil {
			break
		}

		detected, err := s.pollAddress(ctx, address)
		events = append(events, detected...)

		if err != nil {
			s.onPollFailure(ctx, PollFailure{Address: address, Err: err})
			continue
		}

		if len(detected) > 0 {
			logger.Info(ctx, "new inbound transfers detected",
				"address", address,
				"count", len(detected),
			)
		}
	}

	return events
}
