package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestOf returns the hex SHA-256 of the exact bytes of text.
func DigestOf(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
