// Package handshake is a concrete implementation of the out-of-scope
// Noise-protocol session engine named in spec.md §1. bitchat's core talks
// to it only through domain.HandshakeEngine (HasSession, InitiateHandshake,
// Encrypt, Decrypt); everything in this package — X3DH root derivation,
// Double Ratchet message keys, and the pre-key/session/ratchet stores that
// back them — is private to that boundary.
package handshake
