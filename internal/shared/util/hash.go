package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText returns a short stable fingerprint so free-form input can be
// correlated in logs without being written out.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
