package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// SessionTokenLength is the number of characters in a session token.
const SessionTokenLength = 32

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewSessionToken returns a random alphanumeric token. Each character is
// drawn uniformly from crypto/rand.
func NewSessionToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, SessionTokenLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}
