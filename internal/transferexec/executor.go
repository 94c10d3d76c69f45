// Package transferexec validates outbound transfer requests against a safety
// policy, submits them to the chain, and drives each submitted transaction
// through a confirmation state machine to exactly one terminal result:
//
//	Validating -> Submitting -> AwaitingConfirmation -> Confirmed | Failed | TimedOut
//
// Validation failures resolve locally without any chain interaction. Once a
// transaction has been accepted for broadcast it is never resubmitted; a lost
// receipt resolves to TimedOut with the transaction id preserved, never to
// silence.
package transferexec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/pkg/resilience/retry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChainGateway is the slice of the chain client this package consumes.
type ChainGateway interface {
	// SubmitTransfer builds, signs, and broadcasts a transfer, returning the
	// chain-assigned transaction id. Fails with chain.ErrRejected when the
	// node refuses it, chain.ErrUnavailable on transport errors.
	SubmitTransfer(ctx context.Context, target string, amount decimal.Decimal, token chain.TokenKind, signer chain.Signer) (string, error)

	// GetReceipt returns the confirmation state of a submitted transaction.
	GetReceipt(ctx context.Context, txID string) (chain.Receipt, error)
}

// BalanceSource supplies the sender's spendable balance, typically the
// balancecache service.
type BalanceSource interface {
	GetBalance(ctx context.Context, address string, token chain.TokenKind) (decimal.Decimal, error)
}

// Stats is a snapshot of execution counters since process start.
type Stats struct {
	Executed  uint64
	Confirmed uint64
	Failed    uint64
	TimedOut  uint64
}

// Service executes outbound transfers.
type Service interface {
	// Execute runs a single transfer request to a terminal Result. Runs for
	// different signing identities proceed concurrently; runs sharing a
	// signing identity are serialized so two requests cannot both pass the
	// balance check before either submits.
	Execute(ctx context.Context, req Request, pol Policy, signer chain.Signer) Result

	// Stats returns a snapshot of the execution counters.
	Stats() Stats
}

type service struct {
	gateway  ChainGateway
	balances BalanceSource
	retry    retry.Retry

	confirmInterval    time.Duration
	confirmMaxAttempts int

	// inflightMu guards inflight; each entry serializes Execute runs for one
	// signing identity.
	inflightMu sync.Mutex
	inflight   map[string]*sync.Mutex

	statsMu sync.Mutex
	stats   Stats
}

var _ Service = (*service)(nil)

// config holds the executor settings.
type config struct {
	retry              retry.Retry
	confirmInterval    time.Duration
	confirmMaxAttempts int
}

// Option customizes the executor.
type Option func(*config)

// WithRetry sets the retry policy for chain calls made before broadcast
// acceptance and for receipt polls.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithConfirmInterval sets the delay between receipt polls. Default: 1 second.
func WithConfirmInterval(d time.Duration) Option {
	return func(c *config) {
		c.confirmInterval = d
	}
}

// WithConfirmMaxAttempts sets how many receipt polls happen before the run
// resolves to TimedOut. Default: 20.
func WithConfirmMaxAttempts(n int) Option {
	return func(c *config) {
		c.confirmMaxAttempts = n
	}
}

// New creates a transfer executor over the given gateway and balance source.
func New(gateway ChainGateway, balances BalanceSource, opts ...Option) *service {
	cfg := config{
		retry:              retry.New(),
		confirmInterval:    1 * time.Second,
		confirmMaxAttempts: 20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		gateway:            gateway,
		balances:           balances,
		retry:              cfg.retry,
		confirmInterval:    cfg.confirmInterval,
		confirmMaxAttempts: cfg.confirmMaxAttempts,
		inflight:           make(map[string]*sync.Mutex),
	}
}

// identityLock returns the mutex serializing runs for the given signing
// identity, creating it on first use. Identities are few (typically one), so
// entries are never reclaimed.
func (s *service) identityLock(identity string) *sync.Mutex {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	lock, ok := s.inflight[identity]
	if !ok {
		lock = new(sync.Mutex)
		s.inflight[identity] = lock
	}
	return lock
}

// validate applies the local policy checks in order. It returns a finalized
// failure result and true when the request must be rejected without any chain
// interaction.
func validate(req Request, pol Policy) (Result, bool) {
	result := newResult(req)

	if !req.Amount.IsPositive() {
		return result.failed(FailureInvalidAmount,
			fmt.Sprintf("transfer amount must be positive, got %s", req.Amount)), true
	}

	if !req.Token.Valid() {
		return result.failed(FailureUnsupportedToken,
			fmt.Sprintf("unsupported token kind %q", req.Token)), true
	}

	if !chain.ValidAddress(req.Target) {
		return result.failed(FailureInvalidAddress,
			fmt.Sprintf("malformed address %q", req.Target)), true
	}

	if limit, ok := pol.ceiling(req.Token); ok && req.Amount.GreaterThan(limit) {
		return result.failed(FailureAmountExceedsLimit,
			fmt.Sprintf("amount %s exceeds the %s per-transfer limit of %s", req.Amount, req.Token, limit)), true
	}

	if !pol.allows(req.Target) {
		return result.failed(FailureAddressNotAllowed,
			fmt.Sprintf("address %s is not on the transfer allow-list", req.Target)), true
	}

	return result, false
}

// checkBalance verifies the signer holds enough balance for the request.
func (s *service) checkBalance(ctx context.Context, req Request, signer chain.Signer) (Result, bool) {
	result := newResult(req)

	available, err := s.balances.GetBalance(ctx, signer.Address(), req.Token)
	if err != nil {
		return result.failed(FailureChainUnavailable,
			fmt.Sprintf("balance check failed: %v", err)), true
	}

	if available.LessThan(req.Amount) {
		result = result.failed(FailureInsufficientBalance,
			fmt.Sprintf("requested %s %s, available %s", req.Amount, req.Token, available))
		result.Available = available
		return result, true
	}

	return result, false
}

// submit broadcasts the transfer. Transport errors are retried per policy;
// a node rejection aborts immediately and is never retried. Once a broadcast
// has been accepted no resubmission ever happens.
func (s *service) submit(ctx context.Context, req Request, signer chain.Signer) (string, Result, bool) {
	result := newResult(req)

	var (
		txID     string
		rejected error
	)
	err := s.retry.Execute(ctx, func() error {
		id, err := s.gateway.SubmitTransfer(ctx, req.Target, req.Amount, req.Token, signer)
		if err != nil {
			if errors.Is(err, chain.ErrRejected) {
				rejected = err
				return nil
			}
			return err
		}

		txID = id
		return nil
	})

	if rejected != nil {
		return "", result.failed(FailureChainRejected, rejected.Error()), true
	}
	if err != nil {
		return "", result.failed(FailureSubmissionFailed,
			fmt.Sprintf("submission retries exhausted: %v", err)), true
	}

	return txID, result, false
}

// awaitConfirmation polls the receipt of txID until it turns terminal or the
// attempt budget runs out. A canceled context resolves to TimedOut so the
// transaction id is never dropped.
func (s *service) awaitConfirmation(ctx context.Context, req Request, txID string) Result {
	result := newResult(req)
	result.TxID = txID

	for attempt := 0; attempt < s.confirmMaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(s.confirmInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result.timedOut()
			case <-timer.C:
			}
		}

		var receipt chain.Receipt
		err := s.retry.Execute(ctx, func() error {
			var pollErr error
			receipt, pollErr = s.gateway.GetReceipt(ctx, txID)
			return pollErr
		})
		if err != nil {
			// Transport failure after broadcast: the attempt is spent, the
			// transaction id is kept, and polling continues.
			logger.Warn(ctx, "receipt poll failed",
				"tx_id", txID,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		switch receipt.Status {
		case chain.ReceiptSuccess:
			return result.confirmed()
		case chain.ReceiptFailure:
			return result.failed(FailureExecutionFailed, receipt.FailureReason)
		}
	}

	return result.timedOut()
}

// record updates the execution counters for a terminal result.
func (s *service) record(result Result) Result {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.Executed++
	switch result.Status {
	case StatusConfirmed:
		s.stats.Confirmed++
	case StatusFailed:
		s.stats.Failed++
	case StatusTimedOut:
		s.stats.TimedOut++
	}

	return result
}

// Stats implements Service.
func (s *service) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	return s.stats
}

// Execute implements Service.
func (s *service) Execute(ctx context.Context, req Request, pol Policy, signer chain.Signer) Result {
	if req.ID == "" {
		req.ID = uuid.Must(uuid.NewV7()).String()
	}

	if result, rejected := validate(req, pol); rejected {
		logger.Info(ctx, "transfer rejected by validation",
			"request_id", req.ID,
			"code", result.Code,
			"detail", result.Detail,
		)
		return s.record(result)
	}

	// The balance check and submission are not atomic with respect to the
	// chain, so two runs for the same signing identity must not interleave
	// between them.
	lock := s.identityLock(signer.Address())
	lock.Lock()
	defer lock.Unlock()

	if result, failed := s.checkBalance(ctx, req, signer); failed {
		return s.record(result)
	}

	txID, result, failed := s.submit(ctx, req, signer)
	if failed {
		return s.record(result)
	}

	logger.Info(ctx, "transfer broadcast accepted",
		"request_id", req.ID,
		"tx_id", txID,
		"target", req.Target,
		"token", req.Token,
		"amount", req.Amount,
	)

	result = s.awaitConfirmation(ctx, req, txID)
	return s.record(result)
}
