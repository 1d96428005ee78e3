package mesh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	domain "bitchat/internal/domain"
)

// Listener wires a RelayOverlay's inbound callback to a domain.InboundSink,
// unsealing each ciphertext through the handshake engine and mapping the
// relay's hex-public-key addressing back to a PeerAddress via the contact
// store. Decryption/parse errors and unknown senders are silently
// dropped, per spec.md §7's inbound-message error policy (no oracle
// leaks back to the sender).
type Listener struct {
	handshake domain.HandshakeEngine
	contacts  domain.ContactStore
	sink      domain.InboundSink
	log       zerolog.Logger
}

// NewListener wires a Listener over its collaborators.
func NewListener(handshake domain.HandshakeEngine, contacts domain.ContactStore, sink domain.InboundSink) *Listener {
	return &Listener{handshake: handshake, contacts: contacts, sink: sink}
}

// WithLogger returns l with log set, for diagnosing dropped envelopes.
func (l *Listener) WithLogger(log zerolog.Logger) *Listener {
	l.log = log
	return l
}

// Attach registers l.onEnvelope as relay's inbound callback.
func (l *Listener) Attach(relay domain.RelayOverlay) {
	relay.RegisterInbound(l.onEnvelope)
}

func (l *Listener) onEnvelope(fromPubKeyHex string, ciphertext []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pubBytes, err := hex.DecodeString(fromPubKeyHex)
	if err != nil || len(pubBytes) != 32 {
		l.log.Debug().Str("from", fromPubKeyHex).Msg("dropped inbound envelope: malformed sender key")
		return
	}
	var pub domain.X25519Public
	copy(pub[:], pubBytes)

	contact, ok, err := l.contacts.GetByPublicKey(ctx, pub)
	if err != nil {
		l.log.Error().Err(err).Msg("dropped inbound envelope: contact lookup failed")
		return
	}
	if !ok || contact.Blocked {
		l.log.Debug().Str("from", fromPubKeyHex).Bool("known", ok).Msg("dropped inbound envelope: unknown or blocked sender")
		return
	}
	// peer is empty for a contact reachable only via the relay overlay
	// (no live BLE/WiFi address yet observed); Decrypt and the message
	// built below both carry that through rather than dropping the
	// envelope, so HandleIncoming's relay-origin path (spec.md §4.5.4)
	// attaches it to whatever conversation is currently selected.
	peer := contact.CurrentPeerAddress

	plaintext, err := l.handshake.Decrypt(ctx, peer, ciphertext)
	if err != nil {
		l.log.Warn().Err(err).Str("peer", string(peer)).Msg("dropped inbound envelope: decrypt failed")
		return
	}

	var msg wireMessage
	if err := json.Unmarshal(plaintext, &msg); err != nil {
		l.log.Warn().Err(err).Str("peer", string(peer)).Msg("dropped inbound envelope: malformed payload")
		return
	}

	switch msg.Type {
	case kindPrivate:
		l.sink.OnPrivateMessage(domain.Message{
			ID:                msg.ID,
			SenderDisplay:     msg.SenderNickname,
			Content:           msg.Content,
			Timestamp:         time.Now(),
			IsPrivate:         true,
			RecipientNickname: msg.RecipientNickname,
			SenderPeerAddress: peer,
			Status:            domain.Sent(),
		})
	case kindReadReceipt:
		l.sink.OnRead(peer, msg.ID, time.Now().UnixMilli())
	case kindAnnounce:
		// Identity announcements carry no payload the sink needs; the
		// handshake has already been advanced by Decrypt/the caller's
		// responder-session setup.
	}
}
