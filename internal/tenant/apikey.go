package tenant

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// apiKeyBytes is the entropy of a generated key.
const apiKeyBytes = 24

// GenerateAPIKey returns a new raw key plus its stored hash and display
// prefix. Only the hash ever touches the database.
func GenerateAPIKey() (raw, hash, prefix string, err error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("generate api key: %w", err)
	}

	raw = "ck_" + hex.EncodeToString(buf)
	return raw, HashAPIKey(raw), raw[:10], nil
}

// HashAPIKey is the stored form of a raw key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
