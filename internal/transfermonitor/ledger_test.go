package transfermonitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_MarkSeen(t *testing.T) {
	t.Run("reports a transaction as new exactly once", func(t *testing.T) {
		ledger := NewMemoryLedger(10)

		first, err := ledger.MarkSeen(t.Context(), "tx-1")
		require.NoError(t, err)
		assert.True(t, first)

		again, err := ledger.MarkSeen(t.Context(), "tx-1")
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("evicts the oldest id once the capacity is reached", func(t *testing.T) {
		ledger := NewMemoryLedger(3)

		for i := 1; i <= 3; i++ {
			first, err := ledger.MarkSeen(t.Context(), fmt.Sprintf("tx-%d", i))
			require.NoError(t, err)
			require.True(t, first)
		}

		// tx-4 pushes out tx-1, the oldest entry.
		first, err := ledger.MarkSeen(t.Context(), "tx-4")
		require.NoError(t, err)
		assert.True(t, first)

		evicted, err := ledger.MarkSeen(t.Context(), "tx-1")
		require.NoError(t, err)
		assert.True(t, evicted, "evicted id should read as new again")

		kept, err := ledger.MarkSeen(t.Context(), "tx-3")
		require.NoError(t, err)
		assert.False(t, kept)
	})

	t.Run("non-positive capacity falls back to the default", func(t *testing.T) {
		ledger := NewMemoryLedger(0)

		assert.Equal(t, defaultLedgerCapacity, cap(ledger.ring))
	})
}
