package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionTokenBytes gives 256 bits of entropy, well past the point where
// collisions under concurrent creation are a practical concern.
const sessionTokenBytes = 32

// NewSessionToken returns a cryptographically random opaque session token.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
