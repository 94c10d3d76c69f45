package chain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAddress(t *testing.T) {
	t.Run("accepts well-formed mainnet addresses", func(t *testing.T) {
		for _, address := range []string{
			"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
			"T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb",
		} {
			assert.True(t, ValidAddress(address), address)
		}
	})

	t.Run("rejects malformed inputs", func(t *testing.T) {
		for _, address := range []string{
			"",
			"AR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",  // wrong prefix
			"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6",   // too short
			"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6tt", // too long
			"TR0NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",  // 0 is not base58
			"TRONHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",  // O is not base58
			"TRINHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",  // I is not base58
			"TRlNHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",  // l is not base58
			"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6!",  // punctuation
		} {
			assert.False(t, ValidAddress(address), address)
		}
	})
}

func TestTokenKind_Valid(t *testing.T) {
	assert.True(t, TokenTRX.Valid())
	assert.True(t, TokenUSDT.Valid())
	assert.False(t, TokenKind("DOGE").Valid())
	assert.False(t, TokenKind(strings.ToLower(string(TokenTRX))).Valid())
	assert.False(t, TokenKind("").Valid())
}
