// Package protocol implements the MW-4 SysEx wire protocol: framing,
// classification, checksums, parameter encoding, and transport-chunk
// reassembly.
//
// # Wire Format
//
// Every dump travels as a System Exclusive frame:
//
//	0xF0 0x3E 0x04 <deviceID> <command> <payload...> <checksum> 0xF7
//
// 0x3E is the manufacturer ID and 0x04 the machine ID; both are fixed.
// Requests use command bytes 0x40, 0x41 and 0x48; the matching responses
// use 0x00, 0x01 and 0x08 (ProgramDump, ProgramBulkDump, AllDump).
//
// The checksum is the additive sum over the type's checksum window, kept to
// the low 7 bits so it stays a legal MIDI data byte. Program-sized dumps
// checksum frame bytes [4,34) with the checksum at index 35; the all dump
// checksums [5,590) with the checksum at index 591.
//
// # Pipeline
//
// Raw transport chunks enter through a Reassembler, which rebuilds complete
// SysEx frames regardless of how the transport split them and parses
// interleaved channel-voice messages (note on/off, control change) from the
// status nibble. Completed frames are classified (Classify), validated
// against the closed error set, and decoded into ParameterSets (Decode /
// DecodeAll). Encode and the Build*Request constructors produce frames for
// the outbound path and are pure functions, usable for file-based patch
// import/export without a device attached.
//
// # Error Handling
//
// Classification and codec failures are *ProtocolError values wrapping one
// of the package sentinels and carrying the offending buffer. Reassembly
// anomalies (an unexpected 0xF0 mid-frame, noise between messages) recover
// locally and are never surfaced; only a fully framed but invalid message
// produces an error.
package protocol
