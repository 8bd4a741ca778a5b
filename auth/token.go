package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateTokenKey produces a cryptographically random hex string from
// byteLength random bytes. With the default 20 bytes the issued key is 40
// characters, matching the auth_tokens.key column width.
func generateTokenKey(byteLength int) (string, error) {
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
