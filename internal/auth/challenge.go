package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const challengePrefix = "Sign this message to authenticate: "

// ChallengeMessage is the text a wallet signs to prove key ownership.
func ChallengeMessage(nonce string) string {
	return challengePrefix + nonce
}

// NewNonce returns a random decimal nonce in [0, 1000000).
func NewNonce() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return n.String(), nil
}
