// Package crypto exposes the minimal primitives used by bitchat.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Stable public-key fingerprints for block/favorite lookups (Fingerprint)
//
// # Notes
//
// Key generation and DH return fixed-size array types defined in
// internal/domain; SignEd25519 returns a byte slice, and Fingerprint and
// B64 return strings. Callers should treat returned secrets as
// sensitive and rely on Wipe when practical to reduce lifetime in memory.
package crypto
