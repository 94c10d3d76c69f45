package redis

import (
	"context"
)

// watchlistKey is the set holding dynamically watched addresses, on top of
// the static whitelist from configuration.
const watchlistKey = "transfermonitor:watchlist"

// Watchlist persists the dynamic watch list so watch/unwatch survive
// restarts.
type Watchlist struct {
	client *client
}

// NewWatchlist creates the watchlist store.
func NewWatchlist(c *client) *Watchlist {
	return &Watchlist{client: c}
}

// Add registers an address. Idempotent.
func (w *Watchlist) Add(ctx context.Context, address string) error {
	return w.client.conn.SAdd(ctx, watchlistKey, address).Err()
}

// Remove unregisters an address and reports whether it was present.
func (w *Watchlist) Remove(ctx context.Context, address string) (bool, error) {
	removed, err := w.client.conn.SRem(ctx, watchlistKey, address).Result()
	return removed > 0, err
}

// List returns all dynamically watched addresses.
func (w *Watchlist) List(ctx context.Context) ([]string, error) {
	return w.client.conn.SMembers(ctx, watchlistKey).Result()
}
