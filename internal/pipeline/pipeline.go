// Package pipeline owns the recurring monitor poll loop. The transfer monitor
// itself is stateless with respect to scheduling; this service drives
// PollOnce on a fixed interval and fans every detected event out to the
// notification sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/transfermonitor"

	"github.com/robfig/cron/v3"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// TransferNotifier delivers detected inbound transfers to the outside world
// (chat front-end, alerting, audit log). The pipeline only produces events;
// rendering and delivery are the sink's concern.
type TransferNotifier interface {
	NotifyTransfer(ctx context.Context, event transfermonitor.Event) error
}

// Service is the poll-loop lifecycle.
type Service interface {
	// Start launches the recurring poll loop. An immediate first poll runs on
	// startup; subsequent polls follow the configured interval. Returns
	// ErrServiceAlreadyStarted when called twice.
	Start(ctx context.Context) error

	// Close stops the poll loop. Safe to call even if Start never ran.
	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	monitor  transfermonitor.Service
	notifier TransferNotifier
	interval time.Duration

	// pollMu makes poll runs mutually exclusive so a slow cycle is skipped
	// over rather than piled onto.
	pollMu sync.Mutex
}

var _ Service = (*service)(nil)

// config holds the pipeline settings.
type config struct {
	interval time.Duration
}

// Option customizes the pipeline.
type Option func(*config)

// WithInterval sets the poll interval. Default: 30 seconds.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		c.interval = d
	}
}

// New creates a poll pipeline over the given monitor and notification sink.
func New(monitor transfermonitor.Service, notifier TransferNotifier, opts ...Option) *service {
	cfg := config{
		interval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		monitor:  monitor,
		notifier: notifier,
		interval: cfg.interval,
	}
}

// poll runs a single monitor cycle and pushes every new event to the sink.
// Notification failures are logged and never abort the cycle; the event was
// already recorded in the dedup ledger and will not be re-emitted.
func (s *service) poll(ctx context.Context) {
	if !s.pollMu.TryLock() {
		logger.Warn(ctx, "previous poll cycle still running, skipping tick")
		return
	}
	defer s.pollMu.Unlock()

	events := s.monitor.PollOnce(ctx)
	for _, event := range events {
		if err := s.notifier.NotifyTransfer(ctx, event); err != nil {
			logger.Error(ctx, "transfer notification failed",
				"tx_id", event.TxID,
				"address", event.To,
				"error", err,
			)
		}
	}
}

// Start implements Service.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.poll(ctx) }); err != nil {
		cancel()
		return err
	}

	go s.poll(ctx)
	scheduler.Start()
	logger.Info(ctx, "poll pipeline started", "interval", s.interval)

	s.closeFunc = func() {
		cancel()
		<-scheduler.Stop().Done()
	}
	s.isStarted = true
	return nil
}

// Close implements Service.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.closeFunc = nil
	s.isStarted = false
}
