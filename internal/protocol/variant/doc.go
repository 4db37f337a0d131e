// Package variant implements the Qt datastream variant codec used by the
// Quassel client/core protocol.
//
// A variant on the wire is a uint32 type id, a uint8 null flag and a
// type-specific payload. Lists and maps nest full variants. User types carry
// their name in the stream and are decoded through a Registry supplied by
// the caller.
package variant
