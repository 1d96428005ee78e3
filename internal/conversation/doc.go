// Package conversation implements the ConversationEngine (spec.md §4.5):
// the in-memory conversations map keyed by PeerAddress, the unread set,
// and the pending read-receipt queue, plus deduplication, cross-identity
// consolidation, and the single-writer SendPipeline.
//
// The engine holds capability interfaces toward the mesh/handshake layer
// (domain.Sender, domain.HandshakeEngine) rather than owning transport
// directly, so the engine, the mesh, and the transport router can be
// wired together at construction time without a cyclic object graph.
package conversation
