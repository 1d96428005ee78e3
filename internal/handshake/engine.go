package handshake

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "bitchat/internal/domain"
)

// ErrNoBundleCached is returned by InitiateHandshake when no pre-key
// bundle has been cached for peer yet. This mirrors spec.md's
// SessionUnavailable edge case: the caller is expected to queue the send
// and retry once a bundle arrives via the out-of-scope relay/mesh layer.
var ErrNoBundleCached = errors.New("handshake: no pre-key bundle cached for peer")

// Engine is a concrete X3DH + Double Ratchet implementation of
// domain.HandshakeEngine, standing in for the Noise-protocol session
// engine spec.md names as an out-of-scope collaborator.
type Engine struct {
	identity domain.Identity

	bundles  domain.PreKeyBundleStore
	preKeys  domain.PreKeyStore
	sessions domain.HandshakeSessionStore
	ratchets domain.RatchetStore

	mu sync.Mutex
	// live holds in-memory ratchet state for peers with an active session,
	// flushed to ratchets after every Encrypt/Decrypt.
	live map[domain.PeerAddress]*domain.RatchetState
}

// NewEngine wires an Engine over its four supporting stores.
func NewEngine(identity domain.Identity, bundles domain.PreKeyBundleStore, preKeys domain.PreKeyStore, sessions domain.HandshakeSessionStore, ratchets domain.RatchetStore) *Engine {
	return &Engine{
		identity: identity,
		bundles:  bundles,
		preKeys:  preKeys,
		sessions: sessions,
		ratchets: ratchets,
		live:     make(map[domain.PeerAddress]*domain.RatchetState),
	}
}

// HasSession reports whether a Double Ratchet conversation has already
// been established with peer, checking the in-memory cache before
// falling back to disk.
func (e *Engine) HasSession(peer domain.PeerAddress) bool {
	e.mu.Lock()
	_, ok := e.live[peer]
	e.mu.Unlock()
	if ok {
		return true
	}
	_, ok, err := e.ratchets.LoadConversation(peer)
	return err == nil && ok
}

// InitiateHandshake runs the X3DH key agreement against peer's cached
// pre-key bundle and seeds the sending half of the Double Ratchet.
// bitchat is always the initiator here: spec.md §4.5.7's tie-break
// decides which side calls this, not this engine.
func (e *Engine) InitiateHandshake(ctx context.Context, peer domain.PeerAddress) error {
	if e.HasSession(peer) {
		return nil
	}

	bundle, ok, err := e.bundles.LoadPreKeyBundle(peer)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoBundleCached
	}
	if !verifySignedPreKey(bundle.SigningKey, bundle.SignedPreKey, bundle.SignedPreKeySignature) {
		return errors.New("handshake: signed pre-key signature verification failed")
	}

	ephPriv, ephPub, err := newRatchetKeyPair()
	if err != nil {
		return err
	}

	var opkPub *domain.X25519Public
	var usedOPKID domain.OneTimePreKeyID
	if len(bundle.OneTimePreKeys) > 0 {
		first := bundle.OneTimePreKeys[0]
		opkPub = &first.Pub
		usedOPKID = first.ID
	}

	root, err := initiatorRootKey(e.identity.XPriv, ephPriv, bundle.IdentityKey, bundle.SignedPreKey, opkPub)
	if err != nil {
		return err
	}

	st, err := ratchetInitAsInitiator(root, bundle.IdentityKey)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.live[peer] = &st
	e.mu.Unlock()

	if err := e.ratchets.SaveConversation(peer, domain.RatchetConversation{Peer: peer, State: st}); err != nil {
		return err
	}

	return e.sessions.SaveSession(peer, domain.HandshakeSession{
		PeerAddress:           peer,
		RootKey:               root,
		PeerSignedPreKey:      bundle.SignedPreKey,
		PeerIdentityKey:       bundle.IdentityKey,
		CreatedUTC:            time.Now().Unix(),
		SignedPreKeyID:        bundle.SignedPreKeyID,
		OneTimePreKeyID:       usedOPKID,
		InitiatorEphemeralKey: ephPub,
	})
}

// EstablishResponderSession seeds the receiving side of the ratchet when
// the first PreKeyMessage arrives from peer: this is the responder-side
// counterpart to InitiateHandshake, invoked by the caller once it has
// decoded msg from the first packet on the wire.
func (e *Engine) EstablishResponderSession(peer domain.PeerAddress, msg domain.PreKeyMessage) error {
	signedPriv, _, _, ok, err := e.preKeys.LoadSignedPreKey(msg.SignedPreKeyID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("handshake: unknown signed pre-key id in handshake message")
	}

	var opkPriv *domain.X25519Private
	if msg.OneTimePreKeyID != "" {
		priv, _, ok, err := e.preKeys.ConsumeOneTimePreKey(msg.OneTimePreKeyID)
		if err != nil {
			return err
		}
		if ok {
			opkPriv = &priv
		}
	}

	root, err := responderRootKey(signedPriv, e.identity.XPriv, opkPriv, msg.InitiatorIdentityKey, msg.EphemeralKey)
	if err != nil {
		return err
	}

	st, err := ratchetInitAsResponder(root, e.identity.XPriv, msg.EphemeralKey)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.live[peer] = &st
	e.mu.Unlock()

	return e.ratchets.SaveConversation(peer, domain.RatchetConversation{Peer: peer, State: st})
}

// Encrypt seals plaintext for peer, stepping the Double Ratchet send chain.
func (e *Engine) Encrypt(ctx context.Context, peer domain.PeerAddress, plaintext []byte) ([]byte, error) {
	st, err := e.state(peer)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	header, ct, err := ratchetEncrypt(st, []byte(peer), plaintext)
	if err != nil {
		return nil, err
	}
	if err := e.ratchets.SaveConversation(peer, domain.RatchetConversation{Peer: peer, State: *st}); err != nil {
		return nil, err
	}
	return encodePacket(header, ct), nil
}

// Decrypt opens a packet received from peer, stepping the Double Ratchet
// receive chain (and the DH ratchet, if the packet carries a new peer
// ratchet public key).
func (e *Engine) Decrypt(ctx context.Context, peer domain.PeerAddress, packet []byte) ([]byte, error) {
	header, ct, err := decodePacket(packet)
	if err != nil {
		return nil, err
	}

	st, err := e.state(peer)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pt, err := ratchetDecrypt(st, []byte(peer), header, ct)
	if err != nil {
		return nil, err
	}
	if err := e.ratchets.SaveConversation(peer, domain.RatchetConversation{Peer: peer, State: *st}); err != nil {
		return nil, err
	}
	return pt, nil
}

// state returns the live ratchet state for peer, loading it from disk on
// first use in a process lifetime.
func (e *Engine) state(peer domain.PeerAddress) (*domain.RatchetState, error) {
	e.mu.Lock()
	st, ok := e.live[peer]
	e.mu.Unlock()
	if ok {
		return st, nil
	}

	conv, ok, err := e.ratchets.LoadConversation(peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("handshake: no session established with peer")
	}

	e.mu.Lock()
	e.live[peer] = &conv.State
	e.mu.Unlock()
	return &conv.State, nil
}

var _ domain.HandshakeEngine = (*Engine)(nil)
