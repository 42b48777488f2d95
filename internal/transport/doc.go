// Package transport provides byte-level connections to an MW-4 sound
// module over the three paths the tooling supports:
//
//   - MIDIPort: a system MIDI input/output pair via the gomidi driver
//   - SerialPort: a raw UART bridge wired to the module's MIDI header
//   - WSConn: a network bridge speaking raw MIDI bytes over WebSocket
//
// All three satisfy the Connection interface, so the session layer does
// not care which one it is reading from. Reads return whatever chunking
// the underlying transport produces; reassembly of SysEx frames happens
// upstream in the protocol package.
package transport
