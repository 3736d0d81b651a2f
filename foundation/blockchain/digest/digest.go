// Package digest provides the content hash used across the ledger for block
// hashes, block ids and the combined transaction hash.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex encoded SHA-256 of the data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// String returns the hash of the specified string.
func String(s string) string {
	return Hash([]byte(s))
}

// Concat hashes the concatenation of the specified parts.
func Concat(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}

	return hex.EncodeToString(h.Sum(nil))
}
