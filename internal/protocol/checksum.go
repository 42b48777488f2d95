package protocol

// Checksum computes the additive checksum over buf[start:end).
// The sum is reduced to the low 7 bits so the result is always a legal
// MIDI data byte (0..127). Bounds are the caller's responsibility; the
// function panics on an invalid range exactly like a slice expression would.
func Checksum(buf []byte, start, end int) byte {
	var sum byte
	for _, b := range buf[start:end] {
		sum = (sum + b) & 0x7F
	}
	return sum
}

// ValidateChecksum recomputes the checksum over the message type's window
// and compares it against the byte stored at the type's checksum index.
// The caller must have established that the checksum index is in bounds.
func ValidateChecksum(buf []byte, typ MessageType) bool {
	return Checksum(buf, typ.ChecksumStart, typ.ChecksumEnd) == buf[typ.ChecksumIndex]
}
