package interfaces

import (
	"context"

	domaintypes "bitchat/internal/domain/types"
)

// RelayOverlay is the out-of-scope Nostr-style relay collaborator named in
// spec.md §1: bitchat's core only ever consumes SendDirect and registers
// an inbound callback. internal/relay provides a concrete HTTP
// store-and-forward implementation.
type RelayOverlay interface {
	SendDirect(ctx context.Context, toPubKeyHex string, ciphertext []byte) error
	FetchAccountCanary(ctx context.Context, username domaintypes.RelayUsername) (string, error)
	RegisterInbound(handler func(fromPubKeyHex string, ciphertext []byte))
}

// Radio is the out-of-scope BLE/WiFi-Direct stack collaborator named in
// spec.md §1: bitchat's core only ever consumes a sendPacket primitive and
// supplies a packet-received callback.
type Radio interface {
	SendPacket(ctx context.Context, addr domaintypes.PeerAddress, b []byte) error
	RegisterInbound(handler func(addr domaintypes.PeerAddress, b []byte))
}
