package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// UserKey derives a filesystem- and cache-safe key from a raw user identity
// (typically an email address). Identities never appear raw in filenames or
// Redis keys.
func UserKey(userID string) string {
	return SHA256Hex(userID)
}

// LogID returns a short, irreversible prefix of the hashed identity for log
// correlation without writing PII.
func LogID(id string) string {
	return SHA256Hex(id)[:12]
}
