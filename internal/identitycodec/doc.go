// Package identitycodec derives human-shareable HashIDs from public keys
// and encodes/decodes the bitchat://add/<hash>/<checksum> QR URI. Every
// function here is pure — no I/O, no side effects — so two independent
// implementations of this package MUST produce byte-identical output for
// the same input (spec.md §4.1).
package identitycodec
