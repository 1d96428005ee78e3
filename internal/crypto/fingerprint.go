package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the full lowercase-hex SHA-256 digest of a public
// key: the stable, durable identifier blocks and favorites are recorded
// against so they survive ephemeral-address rotation.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}
