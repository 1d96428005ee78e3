package interfaces

import (
	"context"

	domaintypes "bitchat/internal/domain/types"
)

// HandshakeEngine is the out-of-scope Noise-protocol session engine
// collaborator named in spec.md §1: bitchat's core only ever consumes
// HasSession/InitiateHandshake/Encrypt/Decrypt. internal/handshake
// provides a concrete X3DH + Double Ratchet implementation of this
// interface; nothing above this boundary knows or cares that it isn't a
// literal Noise handshake.
type HandshakeEngine interface {
	HasSession(peer domaintypes.PeerAddress) bool
	InitiateHandshake(ctx context.Context, peer domaintypes.PeerAddress) error
	Encrypt(ctx context.Context, peer domaintypes.PeerAddress, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, peer domaintypes.PeerAddress, packet []byte) ([]byte, error)
}

// PreKeyStore manages signed and one-time pre-keys on disk, for use by a
// HandshakeEngine implementation only — bitchat's core never touches it.
type PreKeyStore interface {
	SaveSignedPreKey(id domaintypes.SignedPreKeyID, priv domaintypes.X25519Private, pub domaintypes.X25519Public, sig []byte) error
	LoadSignedPreKey(id domaintypes.SignedPreKeyID) (priv domaintypes.X25519Private, pub domaintypes.X25519Public, sig []byte, ok bool, err error)

	SaveOneTimePreKeys(pairs []domaintypes.OneTimePreKeyPair) error
	ConsumeOneTimePreKey(id domaintypes.OneTimePreKeyID) (priv domaintypes.X25519Private, pub domaintypes.X25519Public, ok bool, err error)
	ListOneTimePreKeyPublics() ([]domaintypes.OneTimePreKeyPublic, error)

	SetCurrentSignedPreKeyID(id domaintypes.SignedPreKeyID) error
	CurrentSignedPreKeyID() (domaintypes.SignedPreKeyID, bool, error)
}

// PreKeyBundleStore caches pre-key bundles fetched for peers.
type PreKeyBundleStore interface {
	SavePreKeyBundle(bundle domaintypes.PreKeyBundle) error
	LoadPreKeyBundle(peer domaintypes.PeerAddress) (domaintypes.PreKeyBundle, bool, error)
}

// HandshakeSessionStore persists established X3DH sessions.
type HandshakeSessionStore interface {
	SaveSession(peer domaintypes.PeerAddress, session domaintypes.HandshakeSession) error
	LoadSession(peer domaintypes.PeerAddress) (domaintypes.HandshakeSession, bool, error)
}

// RatchetStore keeps per-peer Double Ratchet state.
type RatchetStore interface {
	SaveConversation(peer domaintypes.PeerAddress, conv domaintypes.RatchetConversation) error
	LoadConversation(peer domaintypes.PeerAddress) (domaintypes.RatchetConversation, bool, error)
}
