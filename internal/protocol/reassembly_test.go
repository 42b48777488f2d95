package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// feedAll pushes a byte stream through a fresh reassembler in chunks of the
// given size and collects everything that comes out.
func feedAll(t *testing.T, stream []byte, chunkSize int) ([]Event, []error) {
	t.Helper()
	r := NewReassembler()
	var events []Event
	var errs []error
	for off := 0; off < len(stream); off += chunkSize {
		end := off + chunkSize
		if end > len(stream) {
			end = len(stream)
		}
		evs, es := r.Feed(stream[off:end])
		events = append(events, evs...)
		errs = append(errs, es...)
	}
	return events, errs
}

// Feeding the same frame in 1, 2 or N arbitrary chunks yields an identical
// decoded result.
func TestReassembler_ChunkingIsIrrelevant(t *testing.T) {
	frame := validProgramDump(t, 0x03)

	for _, chunkSize := range []int{len(frame), 1, 2, 5, 7, 13} {
		events, errs := feedAll(t, frame, chunkSize)
		if len(errs) != 0 {
			t.Fatalf("chunk size %d: unexpected errors %v", chunkSize, errs)
		}
		if len(events) != 1 {
			t.Fatalf("chunk size %d: got %d events, want 1", chunkSize, len(events))
		}
		ev, ok := events[0].(*SysExEvent)
		if !ok {
			t.Fatalf("chunk size %d: event is %T, want *SysExEvent", chunkSize, events[0])
		}
		if !bytes.Equal(ev.Raw, frame) {
			t.Errorf("chunk size %d: reassembled frame differs from input", chunkSize)
		}
		if ev.Type.Kind != ProgramDump || ev.Params == nil {
			t.Errorf("chunk size %d: frame not decoded (%v)", chunkSize, ev.Type)
		}
	}
}

func TestReassembler_RestartsOnUnexpectedStart(t *testing.T) {
	frame := validProgramDump(t, 0x00)

	// A truncated frame followed immediately by a complete one: the partial
	// buffer must be discarded and the second frame decoded normally, with
	// no error surfaced for the garbage.
	stream := append([]byte{}, frame[:12]...)
	stream = append(stream, frame...)

	events, errs := feedAll(t, stream, 4)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !bytes.Equal(events[0].(*SysExEvent).Raw, frame) {
		t.Error("surviving frame differs from input")
	}
}

func TestReassembler_ReportsInvalidFramedMessage(t *testing.T) {
	frame := validProgramDump(t, 0x00)
	frame[10] ^= 0x01 // breaks the checksum but not the framing

	events, errs := feedAll(t, frame, 3)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidChecksum) {
		t.Fatalf("errs = %v, want one ErrInvalidChecksum", errs)
	}
}

func TestReassembler_ChannelVoice(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		want   []Event
	}{
		{
			name:   "note on",
			stream: []byte{0x90, 60, 100},
			want:   []Event{&NoteEvent{On: true, Channel: 0, Key: 60, Velocity: 100}},
		},
		{
			name:   "note off",
			stream: []byte{0x83, 60, 0},
			want:   []Event{&NoteEvent{On: false, Channel: 3, Key: 60, Velocity: 0}},
		},
		{
			name:   "note on with zero velocity is a note off",
			stream: []byte{0x91, 72, 0},
			want:   []Event{&NoteEvent{On: false, Channel: 1, Key: 72, Velocity: 0}},
		},
		{
			name:   "control change",
			stream: []byte{0xB2, 74, 90},
			want:   []Event{&ControlChangeEvent{Channel: 2, Controller: 74, Value: 90}},
		},
		{
			name:   "running status",
			stream: []byte{0x90, 60, 100, 62, 101, 64, 102},
			want: []Event{
				&NoteEvent{On: true, Channel: 0, Key: 60, Velocity: 100},
				&NoteEvent{On: true, Channel: 0, Key: 62, Velocity: 101},
				&NoteEvent{On: true, Channel: 0, Key: 64, Velocity: 102},
			},
		},
		{
			name:   "program change consumed without event",
			stream: []byte{0xC0, 5, 0x90, 60, 100},
			want:   []Event{&NoteEvent{On: true, Channel: 0, Key: 60, Velocity: 100}},
		},
		{
			name:   "song position pointer skipped for alignment",
			stream: []byte{0xF2, 0x10, 0x20, 0xB0, 1, 2},
			want:   []Event{&ControlChangeEvent{Channel: 0, Controller: 1, Value: 2}},
		},
		{
			name:   "orphan data bytes dropped",
			stream: []byte{10, 20, 30, 0x90, 60, 1},
			want:   []Event{&NoteEvent{On: true, Channel: 0, Key: 60, Velocity: 1}},
		},
		{
			name:   "stray end marker ignored",
			stream: []byte{0xF7, 0x90, 60, 1},
			want:   []Event{&NoteEvent{On: true, Channel: 0, Key: 60, Velocity: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, chunkSize := range []int{len(tt.stream), 1} {
				events, errs := feedAll(t, tt.stream, chunkSize)
				if len(errs) != 0 {
					t.Fatalf("chunk size %d: unexpected errors %v", chunkSize, errs)
				}
				if len(events) != len(tt.want) {
					t.Fatalf("chunk size %d: got %d events, want %d", chunkSize, len(events), len(tt.want))
				}
				for i := range events {
					if events[i].String() != tt.want[i].String() {
						t.Errorf("chunk size %d: event %d = %s, want %s",
							chunkSize, i, events[i], tt.want[i])
					}
				}
			}
		})
	}
}

func TestReassembler_RealtimeInterleavedInSysEx(t *testing.T) {
	frame := validProgramDump(t, 0x00)

	// Sprinkle MIDI clock bytes through the frame; they are dropped and the
	// frame still decodes.
	stream := make([]byte, 0, len(frame)*2)
	for i, b := range frame {
		stream = append(stream, b)
		if i%5 == 0 {
			stream = append(stream, 0xF8)
		}
	}

	events, errs := feedAll(t, stream, 6)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !bytes.Equal(events[0].(*SysExEvent).Raw, frame) {
		t.Error("clock bytes leaked into the reassembled frame")
	}
}

func TestReassembler_VoiceEventsBetweenFrames(t *testing.T) {
	frame := validProgramDump(t, 0x00)

	stream := append([]byte{0x90, 60, 100}, frame...)
	stream = append(stream, 0xB0, 74, 10)

	events, errs := feedAll(t, stream, 9)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if _, ok := events[0].(*NoteEvent); !ok {
		t.Errorf("event 0 is %T, want *NoteEvent", events[0])
	}
	if _, ok := events[1].(*SysExEvent); !ok {
		t.Errorf("event 1 is %T, want *SysExEvent", events[1])
	}
	if _, ok := events[2].(*ControlChangeEvent); !ok {
		t.Errorf("event 2 is %T, want *ControlChangeEvent", events[2])
	}
}

func TestReassembler_Reset(t *testing.T) {
	frame := validProgramDump(t, 0x00)

	r := NewReassembler()
	r.Feed(frame[:20])
	r.Reset()

	// The remainder of the old frame is garbage now; it must not complete
	// anything, and a fresh frame afterwards must.
	events, errs := r.Feed(frame[20:])
	if len(events) != 0 || len(errs) != 0 {
		t.Fatalf("stale bytes produced events=%v errs=%v", events, errs)
	}
	events, errs = r.Feed(frame)
	if len(errs) != 0 || len(events) != 1 {
		t.Fatalf("fresh frame after reset: events=%d errs=%v", len(events), errs)
	}
}

// Some interfaces loop outbound frames back to the input. A request built
// by this package must come through as a classified event, not an error.
func TestReassembler_RequestLoopback(t *testing.T) {
	req, err := BuildProgramRequest(0x00, 3)
	if err != nil {
		t.Fatalf("BuildProgramRequest() error = %v", err)
	}

	r := NewReassembler()
	events, errs := r.Feed(req)
	if len(errs) != 0 {
		t.Fatalf("Feed() errors = %v", errs)
	}
	if len(events) != 1 {
		t.Fatalf("Feed() returned %d events, want 1", len(events))
	}

	se, ok := events[0].(*SysExEvent)
	if !ok {
		t.Fatalf("event is %T, want *SysExEvent", events[0])
	}
	if !se.Type.IsRequest || se.Type.Kind != ProgramDump {
		t.Errorf("classified as %s, want ProgramDump request", se.Type)
	}
	if se.Params != nil || se.Image != nil {
		t.Error("request event carries a decoded payload")
	}
}

func BenchmarkReassembler_Feed(b *testing.B) {
	typ, _ := TypeOf(CmdProgramDump)
	frame, err := Encode(NewParameterSet(), typ, 0x00)
	if err != nil {
		b.Fatal(err)
	}
	r := NewReassembler()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Feed(frame)
	}
}
