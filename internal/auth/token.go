package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// TokenBytes is the entropy of newsletter confirm and unsubscribe tokens.
const TokenBytes = 32

var tokenPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// GenerateToken returns TokenBytes random bytes, hex encoded.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsWellFormedToken reports whether s could have come from GenerateToken.
// Malformed tokens are rejected before touching the database.
func IsWellFormedToken(s string) bool {
	return tokenPattern.MatchString(s)
}
