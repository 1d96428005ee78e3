// Package types defines the plain data model shared across bitchat's core.
package types

// PeerAddress is the ephemeral transport-level identifier for a peer: a BLE
// fingerprint, a WiFi MAC-style address, or a Nostr-temp key. It is never
// guaranteed stable across reconnects.
type PeerAddress string

// String returns the string form of the address.
func (a PeerAddress) String() string { return string(a) }

// HashID is the 8-character human-shareable identifier derived from the
// first 40 bits of SHA-256(public key).
type HashID string

// String returns the string form of the hash id.
func (h HashID) String() string { return string(h) }

// Fingerprint is the lowercase-hex SHA-256 digest of a public key; the
// stable, durable identifier used for block and favorite lookups.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SignedPreKeyID identifies a signed pre-key used by the handshake engine.
type SignedPreKeyID string

func (id SignedPreKeyID) String() string { return string(id) }

// OneTimePreKeyID identifies a one-time pre-key used by the handshake engine.
type OneTimePreKeyID string

func (id OneTimePreKeyID) String() string { return string(id) }

// RelayUsername identifies an account on the relay overlay.
type RelayUsername string

func (u RelayUsername) String() string { return string(u) }
