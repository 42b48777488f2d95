// Package device holds the session layer: one Session per connected MW-4,
// owning the transport connection, the SysEx reassembler, and the event
// router. The session's read loop is the only reader of the connection;
// sends are serialized so frames never interleave on the wire.
//
// Inbound protocol errors (bad checksum, wrong manufacturer, truncated
// frames) are counted and logged but never stop the loop, since a noisy
// MIDI cable produces them routinely.
package device
