package transferexec

import (
	"github.com/gabapcia/tronwatch/internal/chain"
	"github.com/gabapcia/tronwatch/internal/pkg/types"

	"github.com/shopspring/decimal"
)

// Request is a single outbound transfer order. It is consumed exactly once by
// Execute and never mutated.
type Request struct {
	ID     string          // request reference; assigned (UUIDv7) when empty
	Target string          // recipient address
	Amount decimal.Decimal // amount in the token's decimal units, must be > 0
	Token  chain.TokenKind // token to transfer
	Remark string          // optional free-form note, carried into the result
}

// Policy is the safety policy an outbound transfer is validated against.
type Policy struct {
	// MaxPerTransfer caps the amount of a single transfer per token kind.
	// A token absent from the map is unrestricted.
	MaxPerTransfer map[chain.TokenKind]decimal.Decimal

	// AllowList restricts transfer targets. An empty set means unrestricted.
	AllowList types.Set[string]
}

// ceiling returns the per-transfer cap for token, if one is configured.
func (p Policy) ceiling(token chain.TokenKind) (decimal.Decimal, bool) {
	limit, ok := p.MaxPerTransfer[token]
	return limit, ok
}

// allows reports whether target passes the allow-list. An empty list allows
// everything.
func (p Policy) allows(target string) bool {
	return p.AllowList.Len() == 0 || p.AllowList.Has(target)
}

// Status is a terminal execution state. Transient states (validating,
// submitting, awaiting confirmation) are internal to Execute and never appear
// in a Result.
type Status string

const (
	// StatusConfirmed means the transfer executed successfully on-chain.
	StatusConfirmed Status = "CONFIRMED"

	// StatusFailed means the transfer was rejected locally, refused by the
	// node, or failed during on-chain execution.
	StatusFailed Status = "FAILED"

	// StatusTimedOut means the transaction was broadcast but no terminal
	// receipt appeared within the confirmation window. Not a failure of the
	// transfer itself: the transaction id is preserved so its outcome can be
	// checked out-of-band.
	StatusTimedOut Status = "TIMED_OUT"
)

// FailureCode classifies why a transfer failed.
type FailureCode string

const (
	FailureInvalidAmount       FailureCode = "INVALID_AMOUNT"       // amount <= 0
	FailureUnsupportedToken    FailureCode = "UNSUPPORTED_TOKEN"    // token outside the supported enumeration
	FailureInvalidAddress      FailureCode = "INVALID_ADDRESS"      // malformed target address
	FailureAmountExceedsLimit  FailureCode = "AMOUNT_EXCEEDS_LIMIT" // above the per-token ceiling
	FailureAddressNotAllowed   FailureCode = "ADDRESS_NOT_ALLOWED"  // target absent from a non-empty allow-list
	FailureInsufficientBalance FailureCode = "INSUFFICIENT_BALANCE" // sender balance below the requested amount
	FailureChainUnavailable    FailureCode = "CHAIN_UNAVAILABLE"    // balance check could not reach the chain
	FailureChainRejected       FailureCode = "CHAIN_REJECTED"       // node refused the submission outright
	FailureSubmissionFailed    FailureCode = "SUBMISSION_FAILED"    // submission retries exhausted before broadcast
	FailureExecutionFailed     FailureCode = "EXECUTION_FAILED"     // receipt reported an on-chain failure
)

// Result is the sole authoritative outcome record of a Request. Exactly one
// terminal Result is produced per Execute call.
type Result struct {
	RequestID string
	Target    string
	Token     chain.TokenKind
	Amount    decimal.Decimal
	Remark    string

	Status Status
	TxID   string // set once submission succeeded, kept even on timeout

	// Failure details; zero values unless Status is StatusFailed.
	Code      FailureCode
	Detail    string
	Available decimal.Decimal // sender balance, set on FailureInsufficientBalance
}

// newResult seeds a Result with the request's identity fields.
func newResult(req Request) Result {
	return Result{
		RequestID: req.ID,
		Target:    req.Target,
		Token:     req.Token,
		Amount:    req.Amount,
		Remark:    req.Remark,
	}
}

// failed finalizes the result as StatusFailed with the given code and detail.
func (r Result) failed(code FailureCode, detail string) Result {
	r.Status = StatusFailed
	r.Code = code
	r.Detail = detail
	return r
}

// confirmed finalizes the result as StatusConfirmed.
func (r Result) confirmed() Result {
	r.Status = StatusConfirmed
	return r
}

// timedOut finalizes the result as StatusTimedOut, keeping the transaction id.
func (r Result) timedOut() Result {
	r.Status = StatusTimedOut
	return r
}
