package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// testParams builds an in-range parameter set with distinguishable values.
func testParams() ParameterSet {
	set := make(ParameterSet, ParamCount)
	for p := Param(0); p < ParamCount; p++ {
		min, max := p.Range()
		set[p] = min + byte(int(p)%int(max-min+1))
	}
	return set
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, command := range []byte{CmdProgramDump, CmdProgramBulkDump} {
		typ, _ := TypeOf(command)
		t.Run(typ.Kind.String(), func(t *testing.T) {
			params := testParams()

			frame, err := Encode(params, typ, 0x02)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got, err := Classify(frame); err != nil || got.Command != command {
				t.Fatalf("Classify() = %v, %v", got, err)
			}

			decoded, err := Decode(frame, typ)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			for p := Param(0); p < ParamCount; p++ {
				if decoded[p] != params[p] {
					t.Errorf("%s = %d after round trip, want %d", p, decoded[p], params[p])
				}
			}

			// Re-encoding a decoded frame must be byte-identical.
			again, err := Encode(decoded, typ, DeviceID(frame))
			if err != nil {
				t.Fatalf("re-Encode() error = %v", err)
			}
			if !bytes.Equal(frame, again) {
				t.Errorf("re-encoded frame differs:\n got %x\nwant %x", again, frame)
			}
		})
	}
}

func TestDecode_ClampsOutOfRangeValues(t *testing.T) {
	typ, _ := TypeOf(CmdProgramDump)
	frame, err := Encode(NewParameterSet(), typ, 0x00)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Stomp a narrowed-range slot with a value past its maximum and fix up
	// the checksum so classification still passes.
	frame[ParamMIDIChannel.Offset()] = 0x55
	frame[typ.ChecksumIndex] = Checksum(frame, typ.ChecksumStart, typ.ChecksumEnd)

	set, err := Decode(frame, typ)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if set[ParamMIDIChannel] != 16 {
		t.Errorf("midi_channel = %d, want clamped to 16", set[ParamMIDIChannel])
	}
}

func TestEncode_RangeValidation(t *testing.T) {
	typ, _ := TypeOf(CmdProgramDump)

	tests := []struct {
		name    string
		mutate  func(set ParameterSet)
		wantErr error
	}{
		{
			name:    "program number past bank size",
			mutate:  func(set ParameterSet) { set[ParamProgramNumber] = ProgramCount },
			wantErr: ErrInvalidProgramNumber,
		},
		{
			name:    "midi channel past omni range",
			mutate:  func(set ParameterSet) { set[ParamMIDIChannel] = 17 },
			wantErr: ErrValueOutOfRange,
		},
		{
			name:    "lfo shape past last waveform",
			mutate:  func(set ParameterSet) { set[ParamLFO1Shape] = 6 },
			wantErr: ErrValueOutOfRange,
		},
		{
			name:    "seven bit overflow",
			mutate:  func(set ParameterSet) { set[ParamFilterCutoff] = 128 },
			wantErr: ErrValueOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewParameterSet()
			tt.mutate(set)

			frame, err := Encode(set, typ, 0x00)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
			if frame != nil {
				t.Error("Encode() emitted bytes despite failing validation")
			}
		})
	}
}

func TestMemoryImage_RoundTrip(t *testing.T) {
	img := &MemoryImage{}
	for i := range img.Programs {
		set := testParams()
		set[ParamProgramNumber] = byte(i)
		img.Programs[i] = set
	}
	for i := range img.Globals {
		img.Globals[i] = byte(i + 1)
	}

	frame, err := img.Encode(0x01)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(frame) != AllDumpSize {
		t.Fatalf("all dump frame is %d bytes, want %d", len(frame), AllDumpSize)
	}
	typ, err := Classify(frame)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if typ.Kind != AllDump {
		t.Fatalf("kind = %v, want AllDump", typ.Kind)
	}

	decoded, err := DecodeAll(frame)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	for i := range decoded.Programs {
		for p := Param(0); p < ParamCount; p++ {
			if decoded.Programs[i][p] != img.Programs[i][p] {
				t.Errorf("program %d %s = %d, want %d", i, p, decoded.Programs[i][p], img.Programs[i][p])
			}
		}
	}
	if decoded.Globals != img.Globals {
		t.Errorf("globals = %v, want %v", decoded.Globals, img.Globals)
	}

	again, err := decoded.Encode(0x01)
	if err != nil {
		t.Fatalf("re-Encode() error = %v", err)
	}
	if !bytes.Equal(frame, again) {
		t.Error("re-encoded all dump differs from original")
	}
}

func TestMemoryImage_EncodeValidatesEverySlot(t *testing.T) {
	img := &MemoryImage{}
	for i := range img.Programs {
		img.Programs[i] = NewParameterSet()
	}
	img.Programs[7][ParamProgramNumber] = 0x7F

	_, err := img.Encode(0x00)
	if !errors.Is(err, ErrInvalidProgramNumber) {
		t.Errorf("Encode() error = %v, want %v", err, ErrInvalidProgramNumber)
	}
}

func TestBuildRequests(t *testing.T) {
	tests := []struct {
		name    string
		build   func() ([]byte, error)
		command byte
		wantLen int
	}{
		{
			name:    "program request",
			build:   func() ([]byte, error) { return BuildProgramRequest(0x00, 3) },
			command: CmdProgramDumpRequest,
			wantLen: 8,
		},
		{
			name:    "bulk request",
			build:   func() ([]byte, error) { return BuildBulkRequest(0x01, 15) },
			command: CmdProgramBulkRequest,
			wantLen: 8,
		},
		{
			name:    "all dump request",
			build:   func() ([]byte, error) { return BuildAllRequest(0x02), nil },
			command: CmdAllDumpRequest,
			wantLen: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := tt.build()
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			if len(frame) != tt.wantLen {
				t.Fatalf("frame is %d bytes, want %d", len(frame), tt.wantLen)
			}
			if frame[0] != SysExStart || frame[len(frame)-1] != SysExEnd {
				t.Error("frame is not SysEx framed")
			}
			if frame[CommandIndex] != tt.command {
				t.Errorf("command = 0x%02X, want 0x%02X", frame[CommandIndex], tt.command)
			}
			wantSum := Checksum(frame, CommandIndex, len(frame)-2)
			if frame[len(frame)-2] != wantSum {
				t.Errorf("checksum = 0x%02X, want 0x%02X", frame[len(frame)-2], wantSum)
			}

			// A built request must classify as a request of its own kind;
			// the loopback-echo path in sessions depends on this.
			typ, err := Classify(frame)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if !typ.IsRequest {
				t.Error("built request classified as response")
			}
			if typ.FrameSize() != len(frame) {
				t.Errorf("FrameSize() = %d, want %d", typ.FrameSize(), len(frame))
			}
			want, _ := TypeOf(frame[CommandIndex] &^ 0x40)
			if typ.Kind != want.Kind {
				t.Errorf("kind = %v, want %v", typ.Kind, want.Kind)
			}
		})
	}
}

func TestBuildProgramRequest_RejectsBadProgram(t *testing.T) {
	if _, err := BuildProgramRequest(0x00, ProgramCount); !errors.Is(err, ErrInvalidProgramNumber) {
		t.Errorf("BuildProgramRequest() error = %v, want %v", err, ErrInvalidProgramNumber)
	}
}
