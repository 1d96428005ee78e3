package types

// The types in this file describe the internal bootstrap material used by
// the out-of-scope Noise-style session engine (see internal/handshake).
// bitchat's core never inspects these directly; they cross the
// HandshakeEngine interface boundary only.

// OneTimePreKeyPair is the full (private+public) one-time pre-key stored
// locally by the handshake engine's own key material store.
type OneTimePreKeyPair struct {
	ID   OneTimePreKeyID `json:"id"`
	Priv X25519Private   `json:"priv"`
	Pub  X25519Public    `json:"pub"`
}

// OneTimePreKeyPublic is only the public half (sent in bundles).
type OneTimePreKeyPublic struct {
	ID  OneTimePreKeyID `json:"id"`
	Pub X25519Public    `json:"pub"`
}

// PreKeyBundle is the set of public keys a peer publishes so others can
// bootstrap a session with them without being online.
type PreKeyBundle struct {
	Peer                  PeerAddress           `json:"peer"`
	IdentityKey           X25519Public          `json:"identity_key"`
	SigningKey            Ed25519Public         `json:"signing_key"`
	SignedPreKeyID        SignedPreKeyID        `json:"signed_pre_key_id"`
	SignedPreKey          X25519Public          `json:"signed_pre_key"`
	SignedPreKeySignature []byte                `json:"signed_pre_key_signature"`
	OneTimePreKeys        []OneTimePreKeyPublic `json:"one_time_pre_keys,omitempty"`
}

// PreKeyMessage carries the X3DH handshake parameters in the first packet
// of a new session.
type PreKeyMessage struct {
	InitiatorIdentityKey X25519Public    `json:"initiator_identity_key"`
	EphemeralKey         X25519Public    `json:"ephemeral_key"`
	SignedPreKeyID       SignedPreKeyID  `json:"signed_pre_key_id"`
	OneTimePreKeyID      OneTimePreKeyID `json:"one_time_pre_key_id,omitempty"`
}

// RatchetHeader is sent alongside every ciphertext.
type RatchetHeader struct {
	DiffieHellmanPublicKey []byte `json:"dh_pub"`
	PreviousChainLength    uint32 `json:"pn"`
	MessageIndex           uint32 `json:"n"`
}

// RatchetState contains all fields the Double Ratchet needs to track for
// one peer.
type RatchetState struct {
	RootKey                 []byte            `json:"root_key"`
	DiffieHellmanPrivate    X25519Private     `json:"dh_priv"`
	DiffieHellmanPublic     X25519Public      `json:"dh_pub"`
	PeerDiffieHellmanPublic X25519Public      `json:"peer_dh_pub"`
	SendChainKey            []byte            `json:"send_ck,omitempty"`
	ReceiveChainKey         []byte            `json:"recv_ck,omitempty"`
	SendMessageIndex        uint32            `json:"ns"`
	ReceiveMessageIndex     uint32            `json:"nr"`
	PreviousChainLength     uint32            `json:"pn"`
	SkippedKeys             map[string][]byte `json:"skipped_keys"`
}

// RatchetConversation persists the ratchet state for a peer.
type RatchetConversation struct {
	Peer  PeerAddress  `json:"peer"`
	State RatchetState `json:"state"`
}

// HandshakeSession holds the X3DH-derived root key and metadata for a peer,
// cached so subsequent messages skip the X3DH step.
type HandshakeSession struct {
	PeerAddress           PeerAddress     `json:"peer_address"`
	RootKey               []byte          `json:"root_key"`
	PeerSignedPreKey      X25519Public    `json:"peer_signed_pre_key"`
	PeerIdentityKey       X25519Public    `json:"peer_identity_key"`
	CreatedUTC            int64           `json:"created_utc"`
	SignedPreKeyID        SignedPreKeyID  `json:"signed_pre_key_id"`
	OneTimePreKeyID       OneTimePreKeyID `json:"one_time_pre_key_id"`
	InitiatorEphemeralKey X25519Public    `json:"initiator_ephemeral_key"`
}
