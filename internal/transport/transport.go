package transport

import "io"

// Connection is the byte-level boundary between the protocol core and a
// physical or virtual MIDI transport. The core only ever reads chunks and
// writes complete frames; framing and validation happen above this
// interface, and transport failures surface as plain Read/Write errors.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}
