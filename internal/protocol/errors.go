package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Sentinel errors for the closed classification/codec failure set.
// Match with errors.Is; the offending buffer travels on the wrapping
// *ProtocolError and is recovered with errors.As.
var (
	ErrMalformedMessage     = errors.New("malformed message")
	ErrIncompleteMessage    = errors.New("incomplete message")
	ErrUnknownCommandByte   = errors.New("unknown command byte")
	ErrWrongManufacturerID  = errors.New("wrong manufacturer ID")
	ErrWrongMachineID       = errors.New("wrong machine ID")
	ErrInvalidChecksum      = errors.New("invalid checksum")
	ErrInvalidProgramNumber = errors.New("invalid program number")
	ErrValueOutOfRange      = errors.New("parameter value out of range")
)

// ProtocolError wraps one of the sentinel errors together with the buffer
// that failed validation, for diagnostics. None of these are fatal; callers
// decide whether to log, count, or drop.
type ProtocolError struct {
	Err    error  // one of the sentinels above
	Buffer []byte // the offending bytes, unmodified
	Detail string // optional context (offsets, expected vs got)
}

func (e *ProtocolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s (buffer %d bytes: %s)", e.Err, e.Detail, len(e.Buffer), dumpPrefix(e.Buffer))
	}
	return fmt.Sprintf("%v (buffer %d bytes: %s)", e.Err, len(e.Buffer), dumpPrefix(e.Buffer))
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protoErr(sentinel error, buf []byte, format string, args ...interface{}) error {
	return &ProtocolError{
		Err:    sentinel,
		Buffer: buf,
		Detail: fmt.Sprintf(format, args...),
	}
}

// dumpPrefix renders at most 16 bytes of a buffer for error messages.
func dumpPrefix(buf []byte) string {
	if len(buf) == 0 {
		return "<empty>"
	}
	if len(buf) > 16 {
		return hex.EncodeToString(buf[:16]) + "..."
	}
	return hex.EncodeToString(buf)
}
