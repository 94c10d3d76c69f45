package redis

import (
	"context"
	"time"

	"github.com/gabapcia/tronwatch/internal/transfermonitor"
)

const (
	// ledgerKeyPrefix namespaces the dedup ledger entries.
	ledgerKeyPrefix = "transfermonitor:seen:"

	// defaultLedgerTTL bounds ledger entries by age. It only needs to exceed
	// the longest realistic window in which a transaction can reappear in a
	// history query.
	defaultLedgerTTL = 24 * time.Hour
)

// ledger is a transfermonitor.Ledger whose entries expire after a TTL,
// bounding the seen-set by age and surviving process restarts.
type ledger struct {
	client *client
	ttl    time.Duration
}

var _ transfermonitor.Ledger = (*ledger)(nil)

// NewLedger creates a Redis-backed dedup ledger. A non-positive ttl falls
// back to 24 hours.
func NewLedger(c *client, ttl time.Duration) *ledger {
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}

	return &ledger{client: c, ttl: ttl}
}

// MarkSeen implements transfermonitor.Ledger. SETNX gives the first-writer
// answer atomically, so concurrent polls cannot both claim the same id.
func (l *ledger) MarkSeen(ctx context.Context, txID string) (bool, error) {
	return l.client.conn.SetNX(ctx, ledgerKeyPrefix+txID, "1", l.ttl).Result()
}
