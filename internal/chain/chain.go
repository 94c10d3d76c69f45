// Package chain defines the contract the core depends on to talk to the Tron
// network: balance queries, inbound transfer history, signed transfer
// submission, and receipt lookup. Concrete adapters live under
// internal/infra/blockchain; the core never touches the wire protocol.
//
// All amounts crossing this boundary are pre-scaled to the token's canonical
// decimal representation (both TRX and TRC20 USDT carry 6 decimals). Adapters
// own the conversion from raw on-chain integers; nothing above this interface
// divides by fractional units.
package chain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable indicates a transport-level failure reaching the chain
	// (timeout, connection refused, malformed response). Transient and safe
	// to retry.
	ErrUnavailable = errors.New("chain unavailable")

	// ErrRejected indicates the node refused a submitted transaction outright
	// (malformed, insufficient resources). Not retryable.
	ErrRejected = errors.New("transaction rejected by node")
)

// TokenKind identifies a transferable token supported by this system.
type TokenKind string

const (
	// TokenTRX is the native Tron coin.
	TokenTRX TokenKind = "TRX"

	// TokenUSDT is the TRC20 USDT stablecoin.
	TokenUSDT TokenKind = "USDT"
)

// Valid reports whether the token kind is part of the supported enumeration.
func (t TokenKind) Valid() bool {
	return t == TokenTRX || t == TokenUSDT
}

// TransferRecord is a raw inbound transfer as reported by the chain,
// most-recent-first within a history query. Amount is pre-scaled.
type TransferRecord struct {
	TxID        string          // chain-assigned transaction identifier
	From        string          // sender address
	To          string          // recipient address
	Token       TokenKind       // token transferred
	Amount      decimal.Decimal // amount in canonical decimal units
	BlockHeight int64           // height of the containing block
	BlockTime   time.Time       // timestamp of the containing block
}

// ReceiptStatus is the closed set of confirmation outcomes. The raw
// chain-specific status vocabulary never leaves the adapter; only a failure
// reason string is carried through for reporting.
type ReceiptStatus int

const (
	// ReceiptPending means the chain has not produced a receipt yet.
	ReceiptPending ReceiptStatus = iota

	// ReceiptSuccess means the transaction executed successfully.
	ReceiptSuccess

	// ReceiptFailure means the transaction executed and failed on-chain.
	ReceiptFailure
)

// Receipt is the confirmation state of a submitted transaction.
type Receipt struct {
	Status        ReceiptStatus
	FailureReason string // populated only when Status is ReceiptFailure
}

// Signer is the opaque signing capability handed to the core. Given an
// unsigned transaction produced by the node, it yields the submittable signed
// form. Implementations own all key material; the core never reads it.
type Signer interface {
	// Address returns the base58 address the signing key controls.
	Address() string

	// Sign takes the raw unsigned transaction (adapter-specific encoding)
	// and returns the signed form ready for broadcast.
	Sign(ctx context.Context, rawTx []byte) ([]byte, error)
}

// Client is the abstract chain capability the core consumes.
type Client interface {
	// GetBalance returns the pre-scaled balance of address for the given
	// token. Fails with ErrUnavailable on transport errors.
	GetBalance(ctx context.Context, address string, token TokenKind) (decimal.Decimal, error)

	// GetInboundTransfers returns up to limit inbound transfer records for
	// address, most recent first. Fails with ErrUnavailable on transport
	// errors.
	GetInboundTransfers(ctx context.Context, address string, token TokenKind, limit int) ([]TransferRecord, error)

	// SubmitTransfer builds, signs (through signer), and broadcasts a
	// transfer of amount to target. It returns the chain-assigned
	// transaction id. Fails with ErrRejected if the node refuses the
	// transaction, ErrUnavailable on transport errors.
	SubmitTransfer(ctx context.Context, target string, amount decimal.Decimal, token TokenKind, signer Signer) (string, error)

	// GetReceipt returns the confirmation state of a submitted transaction.
	// A missing receipt is reported as ReceiptPending, not an error. Fails
	// with ErrUnavailable on transport errors.
	GetReceipt(ctx context.Context, txID string) (Receipt, error)
}

// base58Alphabet is the character set of Tron's base58check address encoding
// (Bitcoin alphabet: no 0, O, I, or l).
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidAddress reports whether s looks like a well-formed Tron base58check
// address: 'T' prefix, 34 characters, base58 alphabet. It does not verify the
// checksum; the node remains the final authority.
func ValidAddress(s string) bool {
	if len(s) != 34 || s[0] != 'T' {
		return false
	}

	for _, r := range s[1:] {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}

	return true
}
