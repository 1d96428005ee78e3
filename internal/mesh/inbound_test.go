package mesh_test

import (
	"encoding/hex"
	"testing"

	domain "bitchat/internal/domain"
	"bitchat/internal/mesh"
)

type fakeSink struct {
	private []domain.Message
	reads   []string
}

func (s *fakeSink) OnPrivateMessage(msg domain.Message)                 { s.private = append(s.private, msg) }
func (s *fakeSink) OnDelivery(peer domain.PeerAddress, msgID string, at int64) {}
func (s *fakeSink) OnRead(peer domain.PeerAddress, msgID string, at int64)     { s.reads = append(s.reads, msgID) }

var _ domain.InboundSink = (*fakeSink)(nil)

func attach(t *testing.T, contacts *fakeContacts, sink *fakeSink) *fakeRelay {
	t.Helper()
	relay := &fakeRelay{}
	mesh.NewListener(&fakeHandshake{}, contacts, sink).Attach(relay)
	return relay
}

func TestListener_OnEnvelope_UnknownSender_Dropped(t *testing.T) {
	sink := &fakeSink{}
	relay := attach(t, newFakeContacts(), sink)

	var pub domain.X25519Public
	pub[0] = 1
	relay.inbound(hex.EncodeToString(pub.Slice()), []byte(`{"type":"private","content":"hi"}`))

	if len(sink.private) != 0 {
		t.Fatalf("expected a message from an unknown sender to be dropped, got %+v", sink.private)
	}
}

func TestListener_OnEnvelope_BlockedSender_Dropped(t *testing.T) {
	contacts := newFakeContacts()
	var pub domain.X25519Public
	pub[0] = 2
	contacts.put(domain.Contact{CurrentPeerAddress: domain.PeerAddress("peer-1"), PublicKey: pub, Blocked: true})

	sink := &fakeSink{}
	relay := attach(t, contacts, sink)
	relay.inbound(hex.EncodeToString(pub.Slice()), []byte(`{"type":"private","content":"hi"}`))

	if len(sink.private) != 0 {
		t.Fatalf("expected a message from a blocked sender to be dropped, got %+v", sink.private)
	}
}

func TestListener_OnEnvelope_MalformedSenderKey_Dropped(t *testing.T) {
	sink := &fakeSink{}
	relay := attach(t, newFakeContacts(), sink)

	relay.inbound("not-hex", []byte(`{"type":"private"}`))

	if len(sink.private) != 0 {
		t.Fatal("expected a malformed sender key to be dropped before any lookup")
	}
}

func TestListener_OnEnvelope_PrivateMessage_DeliveredToSink(t *testing.T) {
	contacts := newFakeContacts()
	var pub domain.X25519Public
	pub[0] = 3
	peer := domain.PeerAddress("peer-2")
	contacts.put(domain.Contact{CurrentPeerAddress: peer, PublicKey: pub})

	sink := &fakeSink{}
	relay := attach(t, contacts, sink)
	relay.inbound(hex.EncodeToString(pub.Slice()), []byte(`{"type":"private","content":"hello","id":"m1","sender_nickname":"alice"}`))

	if len(sink.private) != 1 {
		t.Fatalf("expected one delivered private message, got %d", len(sink.private))
	}
	got := sink.private[0]
	if got.Content != "hello" || got.ID != "m1" || got.SenderPeerAddress != peer {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestListener_OnEnvelope_RelayOnlyContact_DeliveredWithoutPeerAddress(t *testing.T) {
	contacts := newFakeContacts()
	var pub domain.X25519Public
	pub[0] = 6
	contacts.put(domain.Contact{PublicKey: pub})

	sink := &fakeSink{}
	relay := attach(t, contacts, sink)
	relay.inbound(hex.EncodeToString(pub.Slice()), []byte(`{"type":"private","content":"hello from relay","id":"m3"}`))

	if len(sink.private) != 1 {
		t.Fatalf("expected a relay-only contact's message to still reach the sink, got %d", len(sink.private))
	}
	if got := sink.private[0]; got.Content != "hello from relay" || got.SenderPeerAddress != "" {
		t.Fatalf("expected SenderPeerAddress left unset for the relay-origin path, got %+v", got)
	}
}

func TestListener_OnEnvelope_ReadReceipt_RoutedToOnRead(t *testing.T) {
	contacts := newFakeContacts()
	var pub domain.X25519Public
	pub[0] = 4
	peer := domain.PeerAddress("peer-3")
	contacts.put(domain.Contact{CurrentPeerAddress: peer, PublicKey: pub})

	sink := &fakeSink{}
	relay := attach(t, contacts, sink)
	relay.inbound(hex.EncodeToString(pub.Slice()), []byte(`{"type":"read_receipt","id":"m2"}`))

	if len(sink.reads) != 1 || sink.reads[0] != "m2" {
		t.Fatalf("expected read receipt for m2, got %+v", sink.reads)
	}
}

func TestListener_OnEnvelope_MalformedPayload_Dropped(t *testing.T) {
	contacts := newFakeContacts()
	var pub domain.X25519Public
	pub[0] = 5
	peer := domain.PeerAddress("peer-4")
	contacts.put(domain.Contact{CurrentPeerAddress: peer, PublicKey: pub})

	sink := &fakeSink{}
	relay := attach(t, contacts, sink)
	relay.inbound(hex.EncodeToString(pub.Slice()), []byte(`not json`))

	if len(sink.private) != 0 || len(sink.reads) != 0 {
		t.Fatal("expected a malformed payload to be dropped")
	}
}
