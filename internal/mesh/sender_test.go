package mesh_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	domain "bitchat/internal/domain"
	"bitchat/internal/mesh"
)

// fakeContacts is a minimal in-memory domain.ContactStore for mesh tests.
type fakeContacts struct {
	byAddr map[domain.PeerAddress]domain.Contact
	byPub  map[domain.X25519Public]domain.Contact
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{byAddr: map[domain.PeerAddress]domain.Contact{}, byPub: map[domain.X25519Public]domain.Contact{}}
}

func (f *fakeContacts) put(c domain.Contact) {
	f.byAddr[c.CurrentPeerAddress] = c
	f.byPub[c.PublicKey] = c
}

func (f *fakeContacts) AddByHashID(ctx context.Context, hash domain.HashID, customName string, method domain.VerificationMethod) (domain.Contact, error) {
	return domain.Contact{}, nil
}
func (f *fakeContacts) AddFromPeer(ctx context.Context, pub domain.X25519Public, signing *domain.Ed25519Public, displayName string, addr domain.PeerAddress, trusted bool, method domain.VerificationMethod) (domain.Contact, error) {
	return domain.Contact{}, nil
}
func (f *fakeContacts) SyncWithPeer(ctx context.Context, addr domain.PeerAddress, pub domain.X25519Public, signing *domain.Ed25519Public, displayName string) error {
	return nil
}
func (f *fakeContacts) IsContact(ctx context.Context, pub domain.X25519Public) (bool, error) { return false, nil }
func (f *fakeContacts) IsBlocked(ctx context.Context, hash domain.HashID) (bool, error)       { return false, nil }
func (f *fakeContacts) IsBlockedFingerprint(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	return false, nil
}
func (f *fakeContacts) GetByHash(ctx context.Context, hash domain.HashID) (domain.Contact, bool, error) {
	return domain.Contact{}, false, nil
}
func (f *fakeContacts) GetByPublicKey(ctx context.Context, pub domain.X25519Public) (domain.Contact, bool, error) {
	c, ok := f.byPub[pub]
	return c, ok, nil
}
func (f *fakeContacts) GetByAddress(ctx context.Context, addr domain.PeerAddress) (domain.Contact, bool, error) {
	c, ok := f.byAddr[addr]
	return c, ok, nil
}
func (f *fakeContacts) SetFavorite(ctx context.Context, hash domain.HashID, fav bool) error { return nil }
func (f *fakeContacts) SetBlocked(ctx context.Context, fp domain.Fingerprint, blocked bool) error {
	return nil
}
func (f *fakeContacts) SetTrusted(ctx context.Context, hash domain.HashID, trusted bool) error  { return nil }
func (f *fakeContacts) SetGroups(ctx context.Context, hash domain.HashID, groups []string) error { return nil }
func (f *fakeContacts) SetVerificationMethod(ctx context.Context, hash domain.HashID, method domain.VerificationMethod) error {
	return nil
}
func (f *fakeContacts) UpdateDisplayName(ctx context.Context, hash domain.HashID, name string) error { return nil }
func (f *fakeContacts) UpdateCustomName(ctx context.Context, hash domain.HashID, name string) error  { return nil }
func (f *fakeContacts) IncrementUnread(ctx context.Context, hash domain.HashID) error                { return nil }
func (f *fakeContacts) ClearUnread(ctx context.Context, hash domain.HashID) error                    { return nil }
func (f *fakeContacts) MarkDisconnected(ctx context.Context, addr domain.PeerAddress) error          { return nil }
func (f *fakeContacts) UpdateLastMessageAt(ctx context.Context, hash domain.HashID) error             { return nil }
func (f *fakeContacts) ListOrdered(ctx context.Context) ([]domain.Contact, error)                    { return nil, nil }
func (f *fakeContacts) ObserveAll(ctx context.Context) (<-chan []domain.Contact, error)               { return nil, nil }

var _ domain.ContactStore = (*fakeContacts)(nil)

// fakeHandshake passes bytes through unchanged (or returns a preset error)
// instead of running X3DH.
type fakeHandshake struct {
	encryptErr error
	decryptErr error
}

func (h *fakeHandshake) HasSession(peer domain.PeerAddress) bool { return true }
func (h *fakeHandshake) InitiateHandshake(ctx context.Context, peer domain.PeerAddress) error {
	return nil
}
func (h *fakeHandshake) Encrypt(ctx context.Context, peer domain.PeerAddress, plaintext []byte) ([]byte, error) {
	if h.encryptErr != nil {
		return nil, h.encryptErr
	}
	return append([]byte(nil), plaintext...), nil
}
func (h *fakeHandshake) Decrypt(ctx context.Context, peer domain.PeerAddress, packet []byte) ([]byte, error) {
	if h.decryptErr != nil {
		return nil, h.decryptErr
	}
	return append([]byte(nil), packet...), nil
}

var _ domain.HandshakeEngine = (*fakeHandshake)(nil)

// fakeRelay records outbound sends and lets a test drive an inbound
// callback directly without a real network round trip.
type fakeRelay struct {
	sent    []sentEnvelope
	inbound func(fromPubKeyHex string, ciphertext []byte)
}

type sentEnvelope struct {
	toHex      string
	ciphertext []byte
}

func (r *fakeRelay) SendDirect(ctx context.Context, toPubKeyHex string, ciphertext []byte) error {
	r.sent = append(r.sent, sentEnvelope{toHex: toPubKeyHex, ciphertext: ciphertext})
	return nil
}
func (r *fakeRelay) RegisterInbound(handler func(fromPubKeyHex string, ciphertext []byte)) {
	r.inbound = handler
}
func (r *fakeRelay) FetchAccountCanary(ctx context.Context, username domain.RelayUsername) (string, error) {
	return "", nil
}

var _ domain.RelayOverlay = (*fakeRelay)(nil)

func TestSender_SendPrivate_UnknownPeer_Fails(t *testing.T) {
	s := mesh.New(&fakeHandshake{}, &fakeRelay{}, newFakeContacts(), "me", "00")
	if err := s.SendPrivate("hi", domain.PeerAddress("ghost"), "nick", "id-1"); err == nil {
		t.Fatal("expected an error for a peer with no known contact")
	}
}

func TestSender_SendPrivate_SealsAndRelays_OK(t *testing.T) {
	contacts := newFakeContacts()
	peer := domain.PeerAddress("peer-1")
	var pub domain.X25519Public
	pub[0] = 9
	contacts.put(domain.Contact{CurrentPeerAddress: peer, PublicKey: pub})

	relay := &fakeRelay{}
	s := mesh.New(&fakeHandshake{}, relay, contacts, "me", "00")

	if err := s.SendPrivate("hello", peer, "nick", "id-2"); err != nil {
		t.Fatalf("send private: %v", err)
	}
	if len(relay.sent) != 1 {
		t.Fatalf("expected one relayed envelope, got %d", len(relay.sent))
	}
	if relay.sent[0].toHex != hex.EncodeToString(pub.Slice()) {
		t.Fatalf("expected envelope addressed to the contact's pubkey hex, got %s", relay.sent[0].toHex)
	}
}

func TestSender_SendReadReceipt_EncryptFailure_Propagates(t *testing.T) {
	contacts := newFakeContacts()
	peer := domain.PeerAddress("peer-2")
	contacts.put(domain.Contact{CurrentPeerAddress: peer})

	s := mesh.New(&fakeHandshake{encryptErr: errors.New("boom")}, &fakeRelay{}, contacts, "me", "00")
	if err := s.SendReadReceipt(peer, "msg-1"); err == nil {
		t.Fatal("expected the encrypt failure to propagate")
	}
}
