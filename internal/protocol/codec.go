package protocol

import "fmt"

// All dump memory layout. The payload region (frame offsets 5..590) holds
// the full program bank followed by the device's global configuration.
const (
	// ProgramCount is the number of program slots in device memory.
	ProgramCount = 16

	// programBlockSize is the stride of one program inside an all dump:
	// thirty parameter bytes plus six reserved bytes.
	programBlockSize = ParamCount + programReserved
	programReserved  = 6

	// GlobalsSize is the length of the global configuration block that
	// trails the program bank inside an all dump.
	GlobalsSize = 10

	// ProgramDumpSize and AllDumpSize are the full frame lengths of the
	// response variants, terminator included.
	ProgramDumpSize = 37
	AllDumpSize     = 593
)

// Decode extracts the parameter set from a classified program-sized dump.
// Each parameter is read from its fixed offset and clamped to its declared
// legal range; a stored out-of-range byte never fails the decode. The frame
// must already have passed Classify for the given type.
func Decode(buf []byte, typ MessageType) (ParameterSet, error) {
	if typ.Kind == AllDump {
		return nil, fmt.Errorf("all dump carries a full memory image, use DecodeAll")
	}
	if len(buf) < typ.FrameSize() {
		return nil, protoErr(ErrIncompleteMessage, buf, "frame is %d bytes, type needs %d", len(buf), typ.FrameSize())
	}
	set := make(ParameterSet, ParamCount)
	for p := Param(0); p < ParamCount; p++ {
		set[p] = p.Clamp(buf[p.Offset()])
	}
	return set, nil
}

// Encode builds a complete program dump frame for the given parameter set:
// header, device ID, payload in parameter order, checksum, terminator.
// Ranges are validated before any bytes are emitted, so a failed encode
// produces no output. Encoding a set obtained from Decode reproduces the
// original frame byte for byte.
func Encode(set ParameterSet, typ MessageType, deviceID byte) ([]byte, error) {
	if typ.Kind == AllDump {
		return nil, fmt.Errorf("all dump carries a full memory image, use MemoryImage.Encode")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, ProgramDumpSize)
	buf[0] = SysExStart
	buf[manufacturerIndex] = ManufacturerID
	buf[machineIndex] = MachineID
	buf[DeviceIDIndex] = deviceID
	buf[CommandIndex] = typ.Command
	for p := Param(0); p < ParamCount; p++ {
		buf[p.Offset()] = set[p]
	}
	buf[typ.ChecksumIndex] = Checksum(buf, typ.ChecksumStart, typ.ChecksumEnd)
	buf[len(buf)-1] = SysExEnd
	return buf, nil
}

// MemoryImage is the decoded content of an all dump: every program slot in
// bank order plus the trailing global configuration bytes. Reserved bytes
// inside each program block are preserved so re-encoding a decoded image is
// byte-identical.
type MemoryImage struct {
	Programs [ProgramCount]ParameterSet
	Globals  [GlobalsSize]byte

	reserved [ProgramCount][programReserved]byte
}

// DecodeAll extracts the full memory image from a classified all dump.
func DecodeAll(buf []byte) (*MemoryImage, error) {
	if len(buf) < AllDumpSize {
		return nil, protoErr(ErrIncompleteMessage, buf, "all dump is %d bytes, want %d", len(buf), AllDumpSize)
	}
	img := &MemoryImage{}
	for i := 0; i < ProgramCount; i++ {
		block := buf[PayloadStart+i*programBlockSize:]
		set := make(ParameterSet, ParamCount)
		for p := Param(0); p < ParamCount; p++ {
			set[p] = p.Clamp(block[int(p)])
		}
		img.Programs[i] = set
		copy(img.reserved[i][:], block[ParamCount:programBlockSize])
	}
	copy(img.Globals[:], buf[PayloadStart+ProgramCount*programBlockSize:])
	return img, nil
}

// Encode builds a complete all dump frame from the image. Every program
// slot is range-validated before any bytes are emitted.
func (m *MemoryImage) Encode(deviceID byte) ([]byte, error) {
	for i, set := range m.Programs {
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("program slot %d: %w", i, err)
		}
	}
	typ := messageTypes[CmdAllDump]
	buf := make([]byte, AllDumpSize)
	buf[0] = SysExStart
	buf[manufacturerIndex] = ManufacturerID
	buf[machineIndex] = MachineID
	buf[DeviceIDIndex] = deviceID
	buf[CommandIndex] = CmdAllDump
	for i, set := range m.Programs {
		block := buf[PayloadStart+i*programBlockSize:]
		for p := Param(0); p < ParamCount; p++ {
			block[int(p)] = set[p]
		}
		copy(block[ParamCount:programBlockSize], m.reserved[i][:])
	}
	copy(buf[PayloadStart+ProgramCount*programBlockSize:], m.Globals[:])
	buf[typ.ChecksumIndex] = Checksum(buf, typ.ChecksumStart, typ.ChecksumEnd)
	buf[len(buf)-1] = SysExEnd
	return buf, nil
}
