package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives a stable cache-key component from query text.
// Case and whitespace runs are normalized so trivially different
// spellings of the same query share cache entries.
func Fingerprint(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
