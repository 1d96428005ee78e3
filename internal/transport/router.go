package transport

import (
	"sync"

	domain "bitchat/internal/domain"
)

const largePacketBytes = 10_000

// Router implements the decision table of spec.md §4.6 and owns the two
// peer identity maps (WiFi's bidirectional PeerAddress<->Identity map,
// BLE's fingerprint manager) plus usage counters.
type Router struct {
	mu       sync.Mutex
	wifiByID map[domain.PeerAddress]domain.HashID
	idByWiFi map[domain.HashID]domain.PeerAddress
	bleFPs   map[domain.PeerAddress]domain.Fingerprint

	bleCount  int
	wifiCount int
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{
		wifiByID: make(map[domain.PeerAddress]domain.HashID),
		idByWiFi: make(map[domain.HashID]domain.PeerAddress),
		bleFPs:   make(map[domain.PeerAddress]domain.Fingerprint),
	}
}

// MapWiFiIdentity records the bidirectional association between a WiFi
// peer address and the contact's HashID, overwriting any stale mapping on
// either side.
func (r *Router) MapWiFiIdentity(addr domain.PeerAddress, id domain.HashID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.wifiByID[addr]; ok {
		delete(r.idByWiFi, old)
	}
	r.wifiByID[addr] = id
	r.idByWiFi[id] = addr
}

// WiFiAddressFor looks up the WiFi peer address currently mapped to id.
func (r *Router) WiFiAddressFor(id domain.HashID) (domain.PeerAddress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr, ok := r.idByWiFi[id]
	return addr, ok
}

// SetBLEFingerprint records addr's observed BLE fingerprint; the BLE
// fingerprint manager is the single source of truth for BLE addresses.
func (r *Router) SetBLEFingerprint(addr domain.PeerAddress, fp domain.Fingerprint) {
	r.mu.Lock()
	r.bleFPs[addr] = fp
	r.mu.Unlock()
}

// BLEFingerprintFor returns the fingerprint last observed for addr over BLE.
func (r *Router) BLEFingerprintFor(addr domain.PeerAddress) (domain.Fingerprint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp, ok := r.bleFPs[addr]
	return fp, ok
}

// Select runs the decision table of spec.md §4.6 and returns the chosen
// transport plus a human-readable reason, updating usage counters.
func (r *Router) Select(peer domain.PeerAddress, packetSize int, batteryPercent int, ble []domain.BLEPeer, wifi []domain.WiFiPeer) domain.RouteDecision {
	blePeer, bleOK := findBLE(ble, peer)
	_, wifiOK := findWiFi(wifi, peer)

	var transport domain.Transport
	var reason string

	switch {
	case batteryPercent < 10:
		transport, reason = domain.TransportBLE, "battery<10%"
	case wifiOK && !bleOK:
		transport, reason = domain.TransportWiFiDirect, "wifi known, ble unknown"
	case bleOK && !wifiOK:
		transport, reason = domain.TransportBLE, "ble known, wifi unknown"
	case bleOK && wifiOK && packetSize > largePacketBytes:
		transport, reason = domain.TransportWiFiDirect, "large packet"
	case bleOK && wifiOK && blePeer.RSSI > -60:
		transport, reason = domain.TransportBLE, "strong ble signal"
	case bleOK && wifiOK && blePeer.RSSI < -80:
		transport, reason = domain.TransportWiFiDirect, "weak ble signal"
	case bleOK && wifiOK && batteryPercent < 20:
		transport, reason = domain.TransportBLE, "low battery, moderate signal"
	case bleOK && wifiOK:
		transport, reason = domain.TransportWiFiDirect, "both known, default"
	default:
		transport, reason = domain.TransportBLE, "neither known, queue"
	}

	r.mu.Lock()
	if transport == domain.TransportBLE {
		r.bleCount++
	} else {
		r.wifiCount++
	}
	r.mu.Unlock()

	return domain.RouteDecision{Peer: peer, Transport: transport, Reason: reason}
}

// Counters returns the cumulative BLE/WiFi selection counts.
func (r *Router) Counters() (ble, wifi int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bleCount, r.wifiCount
}

func findBLE(peers []domain.BLEPeer, addr domain.PeerAddress) (domain.BLEPeer, bool) {
	for _, p := range peers {
		if p.Addr == addr {
			return p, true
		}
	}
	return domain.BLEPeer{}, false
}

func findWiFi(peers []domain.WiFiPeer, addr domain.PeerAddress) (domain.WiFiPeer, bool) {
	for _, p := range peers {
		if p.Addr == addr {
			return p, true
		}
	}
	return domain.WiFiPeer{}, false
}
