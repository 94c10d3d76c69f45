package transfermonitor

import (
	"context"
	"sync"

	"github.com/gabapcia/tronwatch/internal/pkg/types"
)

// Ledger records which transaction ids have already been reported. History
// APIs return "the most recent N records" rather than a change feed, so the
// same transaction shows up across consecutive polls; at-most-once emission is
// achieved purely through this seen-set, never through cursor semantics.
type Ledger interface {
	// MarkSeen records txID and reports whether it was seen for the first
	// time. A false return means the transaction was already recorded and
	// must not be emitted again.
	MarkSeen(ctx context.Context, txID string) (bool, error)
}

// memoryLedger is a capacity-bounded in-process Ledger. Once full, the oldest
// recorded id is evicted for each new one. The capacity only needs to exceed
// the realistic re-poll window (lookback records x watched addresses), so a
// few thousand entries is plenty.
type memoryLedger struct {
	mu   sync.Mutex
	seen types.Set[string]
	ring []string
	next int
}

var _ Ledger = (*memoryLedger)(nil)

// defaultLedgerCapacity bounds the in-memory ledger when no capacity is given.
const defaultLedgerCapacity = 10_000

// NewMemoryLedger creates a bounded in-memory ledger holding at most capacity
// transaction ids. A non-positive capacity falls back to the default.
func NewMemoryLedger(capacity int) *memoryLedger {
	if capacity <= 0 {
		capacity = defaultLedgerCapacity
	}

	return &memoryLedger{
		seen: types.NewSet[string](),
		ring: make([]string, 0, capacity),
	}
}

// MarkSeen implements Ledger.
func (l *memoryLedger) MarkSeen(_ context.Context, txID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen.Has(txID) {
		return false, nil
	}

	if len(l.ring) < cap(l.ring) {
		l.ring = append(l.ring, txID)
	} else {
		l.seen.Delete(l.ring[l.next])
		l.ring[l.next] = txID
		l.next = (l.next + 1) % cap(l.ring)
	}

	l.seen.Add(txID)
	return true, nil
}
