package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a hex-encoded fingerprint.
const Size = sha256.Size * 2

// Fingerprint returns the lower-case hex SHA-256 of b.
// The result is used both as the dedup key and as the on-disk filename stem.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
