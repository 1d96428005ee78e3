// Package app wires bitchat's dependency graph for the CLI: stores,
// the handshake engine, the relay overlay, the conversation engine and
// send pipeline, the transport router, and PanicWipe, built from Config
// and exposed via the Wire struct for commands to use.
package app
