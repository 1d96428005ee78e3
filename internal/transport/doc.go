// Package transport implements the TransportRouter (spec.md §4.6): the
// BLE-vs-WiFi-Direct routing decision table, the bidirectional
// PeerAddress<->Identity map for WiFi, a BLE fingerprint manager, and
// usage counters.
package transport
