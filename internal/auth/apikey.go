package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const apiKeyPrefix = "wak_"

// GenerateAPIKey returns a fresh random tenant key.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}
