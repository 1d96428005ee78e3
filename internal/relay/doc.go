// Package relay provides an HTTP implementation of domain.RelayOverlay,
// the out-of-scope Nostr-style relay collaborator named in spec.md §1.
//
// The relay is a store-and-forward service for already-sealed ciphertext
// envelopes addressed by hex-encoded public key. This package offers a
// concrete HTTP client plus a background poll loop for it.
//
// Supported operations include:
//   - Sending a sealed envelope directly to a peer's public key.
//   - Fetching a relay account's current canary value.
//   - Polling for and dispatching inbound envelopes.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors with the HTTP method,
// request path, and status text to aid diagnostics.
package relay
