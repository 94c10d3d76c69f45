// Package signing provides the default chain.Signer: a local secp256k1 key
// loaded from configuration. It is an infra adapter; the core only ever sees
// the opaque chain.Signer capability and never touches key material.
package signing

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/address"

	"github.com/gabapcia/tronwatch/internal/chain"
)

// ErrNoRawData is returned when the unsigned transaction carries no
// raw_data_hex field to sign over.
var ErrNoRawData = errors.New("unsigned transaction has no raw_data_hex")

type localSigner struct {
	key     *ecdsa.PrivateKey
	address string
}

var _ chain.Signer = (*localSigner)(nil)

// NewLocalSigner builds a signer from a hex-encoded secp256k1 private key.
func NewLocalSigner(hexKey string) (*localSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return &localSigner{
		key:     key,
		address: address.PubkeyToAddress(key.PublicKey).String(),
	}, nil
}

// Address implements chain.Signer.
func (s *localSigner) Address() string {
	return s.address
}

// Sign implements chain.Signer. Tron transactions are signed over the SHA-256
// of the serialized raw_data; the signature is appended to the transaction
// JSON for broadcast.
func (s *localSigner) Sign(_ context.Context, rawTx []byte) ([]byte, error) {
	var tx map[string]any
	if err := json.Unmarshal(rawTx, &tx); err != nil {
		return nil, fmt.Errorf("decoding unsigned transaction: %w", err)
	}

	rawDataHex, _ := tx["raw_data_hex"].(string)
	if rawDataHex == "" {
		return nil, ErrNoRawData
	}

	rawData, err := hex.DecodeString(rawDataHex)
	if err != nil {
		return nil, fmt.Errorf("decoding raw_data_hex: %w", err)
	}

	hash := sha256.Sum256(rawData)
	signature, err := crypto.Sign(hash[:], s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	tx["signature"] = []string{hex.EncodeToString(signature)}
	return json.Marshal(tx)
}
