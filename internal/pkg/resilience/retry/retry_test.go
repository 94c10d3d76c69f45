package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrier_Execute(t *testing.T) {
	t.Run("returns immediately on success", func(t *testing.T) {
		r := New(WithBaseDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		var calls int
		err := r.Execute(t.Context(), func() error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until the operation succeeds", func(t *testing.T) {
		r := New(WithMaxAttempts(5), WithBaseDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		var calls int
		err := r.Execute(t.Context(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops after the attempt budget surfacing the last error", func(t *testing.T) {
		r := New(WithMaxAttempts(3), WithBaseDelay(time.Millisecond), WithMaxDelay(time.Millisecond))

		sentinel := errors.New("still broken")
		var calls int
		err := r.Execute(t.Context(), func() error {
			calls++
			return sentinel
		})

		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		r := New(WithMaxAttempts(10), WithBaseDelay(time.Hour), WithMaxDelay(time.Hour))

		ctx, cancel := context.WithCancel(t.Context())

		var calls int
		err := r.Execute(ctx, func() error {
			calls++
			cancel()
			return errors.New("transient")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
