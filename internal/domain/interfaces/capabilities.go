package interfaces

import domaintypes "bitchat/internal/domain/types"

// Sender is the capability the ConversationEngine holds toward the mesh
// and handshake layers. Expressing it as an interface rather than letting
// the engine own the transport cuts the cyclic engine<->mesh<->transport
// object graph described in SPEC_FULL.md's design notes: neither side
// owns the other, both are wired together at construction time.
type Sender interface {
	SendPrivate(content string, peer domaintypes.PeerAddress, recipientNickname, id string) error
	SendReadReceipt(peer domaintypes.PeerAddress, msgID string) error
	SendAnnounce(peer domaintypes.PeerAddress) error
}

// InboundSink is the capability the transport layer holds toward the
// ConversationEngine.
type InboundSink interface {
	OnPrivateMessage(msg domaintypes.Message)
	OnDelivery(peer domaintypes.PeerAddress, msgID string, at int64)
	OnRead(peer domaintypes.PeerAddress, msgID string, at int64)
}
