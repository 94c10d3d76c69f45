package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/gabapcia/tronwatch/internal/chain"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func TestNewLocalSigner(t *testing.T) {
	t.Run("derives a well-formed tron address", func(t *testing.T) {
		signer, err := NewLocalSigner(testKeyHex)
		require.NoError(t, err)

		assert.True(t, chain.ValidAddress(signer.Address()))
	})

	t.Run("derivation is deterministic", func(t *testing.T) {
		first, err := NewLocalSigner(testKeyHex)
		require.NoError(t, err)
		second, err := NewLocalSigner(testKeyHex)
		require.NoError(t, err)

		assert.Equal(t, first.Address(), second.Address())
	})

	t.Run("rejects a malformed key", func(t *testing.T) {
		_, err := NewLocalSigner("not-hex")
		assert.Error(t, err)

		_, err = NewLocalSigner("abcd")
		assert.Error(t, err)
	})
}

func TestLocalSigner_Sign(t *testing.T) {
	signer, err := NewLocalSigner(testKeyHex)
	require.NoError(t, err)

	t.Run("appends a recoverable signature over the raw data hash", func(t *testing.T) {
		rawData := []byte{0x0a, 0x02, 0x49, 0x27}
		unsigned, err := json.Marshal(map[string]any{
			"txID":         "deadbeef",
			"raw_data_hex": hex.EncodeToString(rawData),
		})
		require.NoError(t, err)

		signed, err := signer.Sign(t.Context(), unsigned)
		require.NoError(t, err)

		var tx struct {
			TxID       string   `json:"txID"`
			RawDataHex string   `json:"raw_data_hex"`
			Signature  []string `json:"signature"`
		}
		require.NoError(t, json.Unmarshal(signed, &tx))

		assert.Equal(t, "deadbeef", tx.TxID)
		assert.Equal(t, hex.EncodeToString(rawData), tx.RawDataHex)
		require.Len(t, tx.Signature, 1)

		signature, err := hex.DecodeString(tx.Signature[0])
		require.NoError(t, err)
		require.Len(t, signature, 65)

		// The signature must recover to the signing key's public key.
		hash := sha256.Sum256(rawData)
		recovered, err := crypto.SigToPub(hash[:], signature)
		require.NoError(t, err)

		key, err := crypto.HexToECDSA(testKeyHex)
		require.NoError(t, err)
		assert.Equal(t, key.PublicKey, *recovered)
	})

	t.Run("rejects a transaction without raw data", func(t *testing.T) {
		_, err := signer.Sign(t.Context(), []byte(`{"txID":"deadbeef"}`))
		assert.ErrorIs(t, err, ErrNoRawData)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := signer.Sign(t.Context(), []byte("not json"))
		assert.Error(t, err)

		_, err = signer.Sign(t.Context(), []byte(`{"raw_data_hex":"zz"}`))
		assert.Error(t, err)
	})
}
