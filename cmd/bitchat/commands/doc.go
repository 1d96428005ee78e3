// Package commands defines the bitchat CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init            Create or rotate the local identity
//   - fingerprint     Print the identity fingerprint
//   - contacts        List known contacts (favorite/recency order)
//   - block/unblock    Flip a contact's fingerprint-keyed block flag
//   - chat            Start (or resume) a private chat with a peer
//   - send            Queue a message to a peer via the send pipeline
//   - listen          Poll the relay and drive incoming messages
//   - wipe            Irreversibly erase all local state
//
// # Implementation
//
// The root command builds an app.Wire holding the identity-independent
// dependencies (the stores) before any subcommand runs. The handshake
// engine, relay overlay, conversation engine, transport router and panic
// wipe are added once a subcommand unlocks or generates the identity
// (Wire.Unlock / Wire.Generate), so handlers share one dependency graph.
package commands
