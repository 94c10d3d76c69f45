package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/transfermonitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error")) // Use error level to reduce test output
}

type monitorFake struct {
	pollOnceFunc func(ctx context.Context) []transfermonitor.Event
}

func (f *monitorFake) PollOnce(ctx context.Context) []transfermonitor.Event {
	return f.pollOnceFunc(ctx)
}

func (f *monitorFake) AddWatchedAddress(context.Context, string) error { return nil }

func (f *monitorFake) RemoveWatchedAddress(context.Context, string) bool { return false }

func (f *monitorFake) WatchedAddresses() []string { return nil }

type notifierFake struct {
	mu     sync.Mutex
	events []transfermonitor.Event
	err    error
}

func (f *notifierFake) NotifyTransfer(_ context.Context, event transfermonitor.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *notifierFake) seen() []transfermonitor.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transfermonitor.Event(nil), f.events...)
}

func TestService_Start(t *testing.T) {
	t.Run("runs an immediate poll and notifies every event", func(t *testing.T) {
		polled := make(chan struct{})
		monitor := &monitorFake{
			pollOnceFunc: func(ctx context.Context) []transfermonitor.Event {
				defer close(polled)
				return []transfermonitor.Event{{TxID: "tx-1"}, {TxID: "tx-2"}}
			},
		}
		notifier := &notifierFake{}

		svc := New(monitor, notifier, WithInterval(time.Hour))
		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		select {
		case <-polled:
		case <-time.After(time.Second):
			t.Fatal("immediate poll never ran")
		}

		// Give the notification fan-out a moment to finish.
		assert.Eventually(t, func() bool {
			return len(notifier.seen()) == 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("second start fails", func(t *testing.T) {
		monitor := &monitorFake{
			pollOnceFunc: func(ctx context.Context) []transfermonitor.Event { return nil },
		}
		svc := New(monitor, &notifierFake{}, WithInterval(time.Hour))

		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		assert.ErrorIs(t, svc.Start(t.Context()), ErrServiceAlreadyStarted)
	})

	t.Run("notification failures do not abort the cycle", func(t *testing.T) {
		polled := make(chan struct{})
		monitor := &monitorFake{
			pollOnceFunc: func(ctx context.Context) []transfermonitor.Event {
				defer close(polled)
				return []transfermonitor.Event{{TxID: "tx-1"}, {TxID: "tx-2"}}
			},
		}
		notifier := &notifierFake{err: errors.New("sink down")}

		svc := New(monitor, notifier, WithInterval(time.Hour))
		require.NoError(t, svc.Start(t.Context()))
		defer svc.Close()

		<-polled
		assert.Eventually(t, func() bool {
			return len(notifier.seen()) == 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("can be restarted after close", func(t *testing.T) {
		var (
			mu    sync.Mutex
			polls int
		)
		monitor := &monitorFake{
			pollOnceFunc: func(ctx context.Context) []transfermonitor.Event {
				mu.Lock()
				polls++
				mu.Unlock()
				return nil
			},
		}
		svc := New(monitor, &notifierFake{}, WithInterval(time.Hour))

		count := func() int {
			mu.Lock()
			defer mu.Unlock()
			return polls
		}

		require.NoError(t, svc.Start(t.Context()))
		assert.Eventually(t, func() bool { return count() >= 1 }, time.Second, 5*time.Millisecond)
		svc.Close()

		require.NoError(t, svc.Start(t.Context()))
		assert.Eventually(t, func() bool { return count() >= 2 }, time.Second, 5*time.Millisecond)
		svc.Close()
	})
}

func TestService_Close(t *testing.T) {
	t.Run("close without start is a no-op", func(t *testing.T) {
		monitor := &monitorFake{
			pollOnceFunc: func(ctx context.Context) []transfermonitor.Event { return nil },
		}
		svc := New(monitor, &notifierFake{})

		assert.NotPanics(t, svc.Close)
	})

	t.Run("cancels the poll context", func(t *testing.T) {
		started := make(chan struct{})
		canceled := make(chan struct{})
		monitor := &monitorFake{
			pollOnceFunc: func(ctx context.Context) []transfermonitor.Event {
				close(started)
				<-ctx.Done()
				close(canceled)
				return nil
			},
		}
		svc := New(monitor, &notifierFake{}, WithInterval(time.Hour))

		require.NoError(t, svc.Start(t.Context()))
		<-started
		svc.Close()

		select {
		case <-canceled:
		case <-time.After(time.Second):
			t.Fatal("poll context was not canceled on close")
		}
	})
}
