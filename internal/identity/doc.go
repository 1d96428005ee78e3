// Package identity manages creation, passphrase policy, and encrypted
// persistence of the local long-lived Identity — the X25519/Ed25519 key
// pairs that IdentityCodec, the handshake engine, and the contact model
// all derive from.
package identity
