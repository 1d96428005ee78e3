package types

import "time"

// VerificationMethod records how a contact's identity was confirmed.
type VerificationMethod string

const (
	VerificationInPerson    VerificationMethod = "in-person"
	VerificationQR          VerificationMethod = "qr"
	VerificationIntroduction VerificationMethod = "introduction"
	VerificationManual      VerificationMethod = "manual"
)

// Contact is a known identity bound to trust/relation flags and live
// transport metadata. It is keyed by HashID (unique) with a secondary
// unique key on the hex-encoded public key.
//
// Invariants: PublicKey is immutable after creation; HashID is a pure
// function of PublicKey; Blocked implies inbound messages from this
// identity are dropped before reaching the conversation engine;
// UnreadCount is monotone non-decreasing between reads.
type Contact struct {
	PublicKey          X25519Public        `json:"public_key"`
	SigningKey         *Ed25519Public      `json:"signing_key,omitempty"`
	HashID             HashID              `json:"hash_id"`
	DisplayName        string              `json:"display_name"`
	CustomName         string              `json:"custom_name,omitempty"`
	Trusted            bool                `json:"trusted"`
	Blocked            bool                `json:"blocked"`
	Favorite           bool                `json:"favorite"`
	Groups             []string            `json:"groups,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	VerificationMethod VerificationMethod  `json:"verification_method,omitempty"`
	CurrentPeerAddress PeerAddress         `json:"current_peer_address,omitempty"`
	Connected          bool                `json:"connected"`
	LastSeenAt         *time.Time          `json:"last_seen_at,omitempty"`
	UnreadCount        int                 `json:"unread_count"`
	LastMessageAt      *time.Time          `json:"last_message_at,omitempty"`
	AddedAt            time.Time           `json:"added_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Name returns CustomName when set, otherwise DisplayName.
func (c Contact) Name() string {
	if c.CustomName != "" {
		return c.CustomName
	}
	return c.DisplayName
}

// HasPublicKey reports whether the contact's identity has been observed
// yet (false for a placeholder created by AddByHashID before first sync).
func (c Contact) HasPublicKey() bool {
	var zero X25519Public
	return c.PublicKey != zero
}
