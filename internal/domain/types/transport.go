package types

import "time"

// Transport identifies which radio a packet should travel over.
type Transport int

const (
	TransportBLE Transport = iota
	TransportWiFiDirect
)

func (t Transport) String() string {
	switch t {
	case TransportBLE:
		return "ble"
	case TransportWiFiDirect:
		return "wifi-direct"
	default:
		return "unknown"
	}
}

// BLEPeer is everything the router knows about a peer reachable over BLE.
type BLEPeer struct {
	Addr     PeerAddress
	RSSI     int
	LastSeen time.Time
}

// WiFiPeer is everything the router knows about a peer reachable over
// WiFi-Direct.
type WiFiPeer struct {
	Addr     PeerAddress
	LastSeen time.Time
}

// RouteDecision is the router's verdict for one outbound packet, kept for
// observability (usage counters) and tests.
type RouteDecision struct {
	Peer      PeerAddress
	Transport Transport
	Reason    string
}
