package protocol

// Outbound request construction. Dump requests are short frames: header,
// optional program number, checksum over everything from the command byte,
// terminator.

func buildRequest(deviceID byte, command byte, args ...byte) []byte {
	buf := make([]byte, 0, PayloadStart+len(args)+2)
	buf = append(buf, SysExStart, ManufacturerID, MachineID, deviceID, command)
	buf = append(buf, args...)
	buf = append(buf, Checksum(buf, CommandIndex, len(buf)), SysExEnd)
	return buf
}

// BuildProgramRequest builds a single-program dump request.
func BuildProgramRequest(deviceID byte, program byte) ([]byte, error) {
	if program >= ProgramCount {
		return nil, protoErr(ErrInvalidProgramNumber, nil, "program %d, bank holds %d", program, ProgramCount)
	}
	return buildRequest(deviceID, CmdProgramDumpRequest, program), nil
}

// BuildBulkRequest builds a bulk dump request for one program slot.
func BuildBulkRequest(deviceID byte, program byte) ([]byte, error) {
	if program >= ProgramCount {
		return nil, protoErr(ErrInvalidProgramNumber, nil, "program %d, bank holds %d", program, ProgramCount)
	}
	return buildRequest(deviceID, CmdProgramBulkRequest, program), nil
}

// BuildAllRequest builds a full-memory dump request.
func BuildAllRequest(deviceID byte) []byte {
	return buildRequest(deviceID, CmdAllDumpRequest)
}
