// Package mesh bridges the ConversationEngine's Sender/InboundSink
// capabilities to the out-of-scope handshake and relay collaborators
// (spec.md §1): it seals outbound payloads through the HandshakeEngine
// and hands them to the RelayOverlay, and unseals inbound ciphertext
// back into domain.Message values for the InboundSink.
package mesh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	domain "bitchat/internal/domain"
)

// wireMessage is the plaintext payload sealed by the handshake engine
// before it reaches the relay. Its shape is internal to this package;
// neither the handshake engine nor the relay ever see it unsealed.
type wireMessage struct {
	Type              string `json:"type"`
	Content           string `json:"content,omitempty"`
	RecipientNickname string `json:"recipient_nickname,omitempty"`
	SenderNickname    string `json:"sender_nickname,omitempty"`
	ID                string `json:"id,omitempty"`
}

const (
	kindPrivate      = "private"
	kindReadReceipt  = "read_receipt"
	kindAnnounce     = "announce"
)

// Sender is a concrete domain.Sender: the ConversationEngine's capability
// toward the mesh/handshake layer.
type Sender struct {
	handshake     domain.HandshakeEngine
	relay         domain.RelayOverlay
	contacts      domain.ContactStore
	selfNickname  string
	selfPubKeyHex string
}

// New wires a Sender over the handshake engine, relay overlay, and
// contact store it needs to resolve a PeerAddress to the relay's
// hex-public-key addressing scheme.
func New(handshake domain.HandshakeEngine, relay domain.RelayOverlay, contacts domain.ContactStore, selfNickname, selfPubKeyHex string) *Sender {
	return &Sender{
		handshake:     handshake,
		relay:         relay,
		contacts:      contacts,
		selfNickname:  selfNickname,
		selfPubKeyHex: selfPubKeyHex,
	}
}

func (s *Sender) SendPrivate(content string, peer domain.PeerAddress, recipientNickname, id string) error {
	return s.seal(peer, wireMessage{
		Type:              kindPrivate,
		Content:           content,
		RecipientNickname: recipientNickname,
		SenderNickname:    s.selfNickname,
		ID:                id,
	})
}

func (s *Sender) SendReadReceipt(peer domain.PeerAddress, msgID string) error {
	return s.seal(peer, wireMessage{Type: kindReadReceipt, ID: msgID})
}

func (s *Sender) SendAnnounce(peer domain.PeerAddress) error {
	return s.seal(peer, wireMessage{Type: kindAnnounce, SenderNickname: s.selfNickname})
}

func (s *Sender) seal(peer domain.PeerAddress, msg wireMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	contact, ok, err := s.contacts.GetByAddress(ctx, peer)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("mesh: no contact known for peer address")
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ciphertext, err := s.handshake.Encrypt(ctx, peer, raw)
	if err != nil {
		return err
	}

	toHex := hex.EncodeToString(contact.PublicKey.Slice())
	return s.relay.SendDirect(ctx, toHex, ciphertext)
}

var _ domain.Sender = (*Sender)(nil)
