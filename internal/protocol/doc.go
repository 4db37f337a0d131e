// Package protocol is the codec facade for the Quassel client/core
// datastream protocol.
//
// Ownership boundary:
// - protocol constants shared with handshake and RPC collaborators
// - the user type registry seeded with the application records
// - variant list/map encoding and single variant decoding
// - packet framing
//
// Transport, reassembly, negotiation and request semantics live outside
// this package.
package protocol
