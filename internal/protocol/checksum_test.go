package protocol

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name       string
		buf        []byte
		start, end int
		want       byte
	}{
		{
			name: "empty range",
			buf:  []byte{0x10, 0x20, 0x30},
			start: 1, end: 1,
			want: 0,
		},
		{
			name: "single byte",
			buf:  []byte{0x10, 0x20, 0x30},
			start: 1, end: 2,
			want: 0x20,
		},
		{
			name: "sum stays below 128",
			buf:  []byte{0x01, 0x02, 0x03, 0x04},
			start: 0, end: 4,
			want: 0x0A,
		},
		{
			name: "sum wraps to 7 bits",
			buf:  []byte{0x7F, 0x7F, 0x02},
			start: 0, end: 3,
			want: 0x00,
		},
		{
			name: "high bits discarded",
			buf:  []byte{0xFF, 0x01},
			start: 0, end: 2,
			want: 0x00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.buf, tt.start, tt.end)
			if got != tt.want {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

// Mutating any single byte inside the checksum window must invalidate the
// frame.
func TestValidateChecksum_SingleByteMutation(t *testing.T) {
	frame, err := Encode(NewParameterSet(), messageTypes[CmdProgramDump], 0x00)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	typ := messageTypes[CmdProgramDump]

	if !ValidateChecksum(frame, typ) {
		t.Fatal("freshly encoded frame failed checksum validation")
	}

	for i := typ.ChecksumStart; i < typ.ChecksumEnd; i++ {
		mutated := make([]byte, len(frame))
		copy(mutated, frame)
		mutated[i] ^= 0x01
		if ValidateChecksum(mutated, typ) {
			t.Errorf("mutation at index %d went undetected", i)
		}
	}
}

func TestValidateChecksum_CorruptChecksumByte(t *testing.T) {
	frame, err := Encode(NewParameterSet(), messageTypes[CmdProgramDump], 0x00)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	typ := messageTypes[CmdProgramDump]

	frame[typ.ChecksumIndex] ^= 0x7F
	if ValidateChecksum(frame, typ) {
		t.Error("corrupted checksum byte went undetected")
	}
}

func BenchmarkChecksum(b *testing.B) {
	buf := make([]byte, AllDumpSize)
	for i := range buf {
		buf[i] = byte(i & 0x7F)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(buf, 5, 590)
	}
}
