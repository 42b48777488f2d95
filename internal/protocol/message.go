package protocol

import "fmt"

// SysEx framing and MW-4 header constants.
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7

	ManufacturerID = 0x3E // Waldorf manufacturer ID
	MachineID      = 0x04 // MW-4 model ID

	// Fixed header layout: F0 <manufacturer> <machine> <deviceID> <command>.
	manufacturerIndex = 1
	machineIndex      = 2
	DeviceIDIndex     = 3
	CommandIndex      = 4

	// PayloadStart is the first frame index past the fixed header.
	PayloadStart = 5

	// MinFrameSize is the shortest structurally valid frame:
	// F0 mfr machine dev cmd F7.
	MinFrameSize = 6
)

// Dump commands. Requests carry the response command ORed with 0x40; the
// three pairs below are the complete assigned set. The device manual derives
// polarity as "command is a multiple of 0x40", which would also match 0x00,
// so the explicit pair table is authoritative here.
const (
	CmdProgramDump        = 0x00
	CmdProgramBulkDump    = 0x01
	CmdAllDump            = 0x08
	CmdProgramDumpRequest = 0x40
	CmdProgramBulkRequest = 0x41
	CmdAllDumpRequest     = 0x48
)

// Kind is the closed tag set of recognized dump message kinds.
type Kind int

const (
	ProgramDump Kind = iota
	ProgramBulkDump
	AllDump
)

func (k Kind) String() string {
	switch k {
	case ProgramDump:
		return "ProgramDump"
	case ProgramBulkDump:
		return "ProgramBulkDump"
	case AllDump:
		return "AllDump"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MessageType carries the addressing metadata for one classified frame:
// the checksum window, the checksum byte position, and whether the command
// byte was the request or the response variant.
type MessageType struct {
	Kind          Kind
	Command       byte
	IsRequest     bool
	ChecksumStart int // first byte covered by the checksum
	ChecksumEnd   int // one past the last byte covered
	ChecksumIndex int // where the checksum byte itself lives
}

// FrameSize returns the expected total length of a full response frame of
// this type: everything up to the checksum byte, plus the terminator.
func (t MessageType) FrameSize() int { return t.ChecksumIndex + 2 }

func (t MessageType) String() string {
	dir := "response"
	if t.IsRequest {
		dir = "request"
	}
	return fmt.Sprintf("%s %s (cmd=0x%02X, window=[%d,%d), checksum@%d)",
		t.Kind, dir, t.Command, t.ChecksumStart, t.ChecksumEnd, t.ChecksumIndex)
}

// Checksum windows per kind, byte offsets from frame start. Program-sized
// dumps checksum the command byte plus the payload; the all dump starts one
// later and spans the whole memory image. Requests are short frames whose
// only payload is the program number (none for the all dump request); their
// windows run from the command byte to the checksum.
var messageTypes = map[byte]MessageType{
	CmdProgramDump:        {Kind: ProgramDump, Command: CmdProgramDump, ChecksumStart: 4, ChecksumEnd: 34, ChecksumIndex: 35},
	CmdProgramDumpRequest: {Kind: ProgramDump, Command: CmdProgramDumpRequest, IsRequest: true, ChecksumStart: 4, ChecksumEnd: 6, ChecksumIndex: 6},
	CmdProgramBulkDump:    {Kind: ProgramBulkDump, Command: CmdProgramBulkDump, ChecksumStart: 4, ChecksumEnd: 34, ChecksumIndex: 35},
	CmdProgramBulkRequest: {Kind: ProgramBulkDump, Command: CmdProgramBulkRequest, IsRequest: true, ChecksumStart: 4, ChecksumEnd: 6, ChecksumIndex: 6},
	CmdAllDump:            {Kind: AllDump, Command: CmdAllDump, ChecksumStart: 5, ChecksumEnd: 590, ChecksumIndex: 591},
	CmdAllDumpRequest:     {Kind: AllDump, Command: CmdAllDumpRequest, IsRequest: true, ChecksumStart: 4, ChecksumEnd: 5, ChecksumIndex: 5},
}

// TypeOf resolves the message type for a bare command byte.
func TypeOf(command byte) (MessageType, bool) {
	typ, ok := messageTypes[command]
	return typ, ok
}

// Classify validates a complete SysEx frame and resolves its message type.
// The checks run in a fixed order and the first failure wins:
//
//  1. framing (length, start/end markers)  -> ErrMalformedMessage
//  2. manufacturer ID                      -> ErrWrongManufacturerID
//  3. machine ID                           -> ErrWrongMachineID
//  4. command byte known                   -> ErrUnknownCommandByte
//  5. checksum byte inside the buffer      -> ErrIncompleteMessage
//  6. checksum matches                     -> ErrInvalidChecksum
//
// Every failure is a *ProtocolError carrying the offending buffer.
func Classify(buf []byte) (MessageType, error) {
	if len(buf) < MinFrameSize {
		return MessageType{}, protoErr(ErrMalformedMessage, buf, "frame too short: %d bytes (minimum %d)", len(buf), MinFrameSize)
	}
	if buf[0] != SysExStart {
		return MessageType{}, protoErr(ErrMalformedMessage, buf, "first byte 0x%02X, want 0x%02X", buf[0], SysExStart)
	}
	if buf[len(buf)-1] != SysExEnd {
		return MessageType{}, protoErr(ErrMalformedMessage, buf, "last byte 0x%02X, want 0x%02X", buf[len(buf)-1], SysExEnd)
	}
	if buf[manufacturerIndex] != ManufacturerID {
		return MessageType{}, protoErr(ErrWrongManufacturerID, buf, "got 0x%02X, want 0x%02X", buf[manufacturerIndex], ManufacturerID)
	}
	if buf[machineIndex] != MachineID {
		return MessageType{}, protoErr(ErrWrongMachineID, buf, "got 0x%02X, want 0x%02X", buf[machineIndex], MachineID)
	}
	typ, ok := messageTypes[buf[CommandIndex]]
	if !ok {
		return MessageType{}, protoErr(ErrUnknownCommandByte, buf, "command 0x%02X not assigned", buf[CommandIndex])
	}
	if typ.ChecksumIndex >= len(buf) {
		return MessageType{}, protoErr(ErrIncompleteMessage, buf, "checksum expected at index %d, frame is %d bytes", typ.ChecksumIndex, len(buf))
	}
	if !ValidateChecksum(buf, typ) {
		want := Checksum(buf, typ.ChecksumStart, typ.ChecksumEnd)
		return MessageType{}, protoErr(ErrInvalidChecksum, buf, "computed 0x%02X, frame carries 0x%02X", want, buf[typ.ChecksumIndex])
	}
	return typ, nil
}

// DeviceID extracts the device ID byte from a frame that has already passed
// Classify.
func DeviceID(buf []byte) byte { return buf[DeviceIDIndex] }
