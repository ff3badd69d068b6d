package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// QueryFingerprint normalizes a user question and hashes it so that
// semantically identical repeats hit the answer cache regardless of
// casing or surrounding whitespace.
func QueryFingerprint(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
