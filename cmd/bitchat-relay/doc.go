// Package main runs the in-memory HTTP relay used by bitchat as the
// out-of-scope Nostr-style overlay named in spec.md §1. It queues
// ciphertext envelopes for recipients until they poll for them, and
// tracks a per-username canary so a contact's relay identity changing
// underneath an established conversation can be detected.
//
// HTTP API
//
//	POST /msg/{toPubKeyHex}
//	    Enqueue a RelayEnvelope destined to {toPubKeyHex}. If Timestamp is
//	    zero, the server fills it with the current Unix millisecond time.
//
//	GET /msg/{toPubKeyHex}
//	    Return every queued RelayEnvelope for {toPubKeyHex}, oldest first.
//	    The poller dedups by timestamp, so envelopes are never acked or
//	    dropped server-side.
//
//	GET /account/{username}/canary
//	    Return {"canary": "..."}, a stable per-username token generated on
//	    first fetch.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - Every request is access-logged via zerolog: handler, method, path,
//     remote, duration.
//   - The default listen address is :8080.
//
// This relay never sees plaintext or private keys; it only stores
// ciphertext and the account canary.
package main
