package transport_test

import (
	"testing"

	domain "bitchat/internal/domain"
	"bitchat/internal/transport"
)

func TestRouter_Select_LowBattery_ForcesBLE(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p1")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -50}}
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 100, 5, ble, wifi)
	if d.Transport != domain.TransportBLE {
		t.Fatalf("expected BLE under 10%% battery, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_WiFiOnlyKnown(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p2")
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 100, 80, nil, wifi)
	if d.Transport != domain.TransportWiFiDirect {
		t.Fatalf("expected wifi-direct when only wifi known, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_BLEOnlyKnown(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p3")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -70}}

	d := r.Select(peer, 100, 80, ble, nil)
	if d.Transport != domain.TransportBLE {
		t.Fatalf("expected ble when only ble known, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_LargePacket_ForcesWiFi(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p4")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -70}}
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 20_000, 80, ble, wifi)
	if d.Transport != domain.TransportWiFiDirect {
		t.Fatalf("expected wifi-direct for a large packet, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_StrongBLESignal_PrefersBLE(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p5")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -40}}
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 100, 80, ble, wifi)
	if d.Transport != domain.TransportBLE {
		t.Fatalf("expected ble for strong ble signal, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_WeakBLESignal_PrefersWiFi(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p6")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -90}}
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 100, 80, ble, wifi)
	if d.Transport != domain.TransportWiFiDirect {
		t.Fatalf("expected wifi-direct for weak ble signal, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_LowBatteryModerateSignal_PrefersBLE(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p7")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -70}}
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 100, 15, ble, wifi)
	if d.Transport != domain.TransportBLE {
		t.Fatalf("expected ble under moderate signal + low battery, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_BothKnownDefault_PrefersWiFi(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p8")
	ble := []domain.BLEPeer{{Addr: peer, RSSI: -70}}
	wifi := []domain.WiFiPeer{{Addr: peer}}

	d := r.Select(peer, 100, 80, ble, wifi)
	if d.Transport != domain.TransportWiFiDirect {
		t.Fatalf("expected wifi-direct as the default when both known, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_NeitherKnown_QueuesOnBLE(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p9")

	d := r.Select(peer, 100, 80, nil, nil)
	if d.Transport != domain.TransportBLE {
		t.Fatalf("expected ble fallback when neither known, got %v (%s)", d.Transport, d.Reason)
	}
}

func TestRouter_Select_UpdatesCounters(t *testing.T) {
	r := transport.NewRouter()
	peer := domain.PeerAddress("p10")
	wifi := []domain.WiFiPeer{{Addr: peer}}

	r.Select(peer, 100, 80, nil, wifi)
	r.Select(peer, 100, 5, nil, wifi)

	ble, w := r.Counters()
	if ble != 1 || w != 1 {
		t.Fatalf("expected one ble and one wifi selection, got ble=%d wifi=%d", ble, w)
	}
}

func TestRouter_WiFiIdentityMapping_RoundTrips(t *testing.T) {
	r := transport.NewRouter()
	addr := domain.PeerAddress("addr-1")
	id := domain.HashID("hash-1")

	r.MapWiFiIdentity(addr, id)
	got, ok := r.WiFiAddressFor(id)
	if !ok || got != addr {
		t.Fatalf("expected %s mapped to %s, got %s (ok=%v)", id, addr, got, ok)
	}
}

func TestRouter_BLEFingerprint_RoundTrips(t *testing.T) {
	r := transport.NewRouter()
	addr := domain.PeerAddress("addr-2")
	fp := domain.Fingerprint("fp-1")

	r.SetBLEFingerprint(addr, fp)
	got, ok := r.BLEFingerprintFor(addr)
	if !ok || got != fp {
		t.Fatalf("expected fingerprint %s for %s, got %s (ok=%v)", fp, addr, got, ok)
	}
}
