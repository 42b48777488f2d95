package protocol

// Reassembler rebuilds complete messages from arbitrarily fragmented
// transport chunks. One instance serves one connection and is not safe for
// concurrent use; the owning session must feed it from a single goroutine.
//
// SysEx frames accumulate between the 0xF0 and 0xF7 markers, however the
// transport happens to split them. Channel-voice messages (note on/off,
// control change, and the rest of the MIDI 1.0 subset) are short and fixed
// length; they are parsed positionally from the status nibble, with running
// status honored. Line noise is tolerated: malformed fragments are dropped
// without surfacing an error, and only a fully framed message that fails
// classification is reported.
type Reassembler struct {
	accumulating bool
	frame        []byte

	running byte   // active channel-voice status, 0 when none
	pending []byte // partial channel-voice message, nil between messages
	skip    int    // system-common data bytes left to discard
}

// maxFrameSize caps accumulation so a lost end marker cannot grow the
// buffer without bound. The largest legal frame is the all dump.
const maxFrameSize = 2 * AllDumpSize

// NewReassembler returns a reassembler in the idle state.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Reset discards all partial state. Call it on stream discontinuity, e.g.
// after a transport reconnect.
func (r *Reassembler) Reset() {
	r.accumulating = false
	r.frame = nil
	r.running = 0
	r.pending = nil
	r.skip = 0
}

// Feed consumes one transport chunk and returns the events completed by it
// in arrival order, together with classification errors for frames that
// were fully framed but invalid. Partial messages are carried over to the
// next call.
func (r *Reassembler) Feed(chunk []byte) ([]Event, []error) {
	var events []Event
	var errs []error

	for _, b := range chunk {
		// Real-time bytes may be interleaved anywhere, including inside
		// a SysEx frame. They carry no data and are dropped.
		if b >= 0xF8 {
			continue
		}

		if r.accumulating {
			switch b {
			case SysExStart:
				// New start mid-frame: the partial buffer is garbage.
				// Recoverable, restart accumulation from here.
				r.frame = append(r.frame[:0], SysExStart)
			case SysExEnd:
				r.frame = append(r.frame, SysExEnd)
				if ev, err := classifyFrame(r.frame); err != nil {
					errs = append(errs, err)
				} else {
					events = append(events, ev)
				}
				r.accumulating = false
				r.frame = nil
			default:
				if len(r.frame) >= maxFrameSize {
					// Lost terminator; drop silently and go idle.
					r.accumulating = false
					r.frame = nil
					continue
				}
				r.frame = append(r.frame, b)
			}
			continue
		}

		switch {
		case b == SysExStart:
			r.accumulating = true
			r.frame = append(r.frame, SysExStart)
			r.pending = nil
			r.skip = 0
		case b == SysExEnd:
			// Stray end marker with no open frame.
		case b >= 0xF1:
			// System common: no event of interest, but its data bytes
			// must be consumed to stay aligned. Cancels running status.
			r.running = 0
			r.pending = nil
			r.skip = systemCommonDataLen(b)
		case b >= 0x80:
			r.running = b
			r.pending = append(r.pending[:0], b)
			r.skip = 0
		default:
			if r.skip > 0 {
				r.skip--
				continue
			}
			if r.pending == nil {
				if r.running == 0 {
					// Data byte with no status context: noise.
					continue
				}
				r.pending = append(r.pending, r.running)
			}
			r.pending = append(r.pending, b)
			if len(r.pending) == 1+voiceDataLen(r.pending[0]) {
				if ev := parseVoice(r.pending); ev != nil {
					events = append(events, ev)
				}
				r.pending = nil
			}
		}
	}

	return events, errs
}

// classifyFrame runs a completed frame through the classifier and decodes
// the payload for response dumps.
func classifyFrame(frame []byte) (Event, error) {
	typ, err := Classify(frame)
	if err != nil {
		return nil, err
	}
	ev := &SysExEvent{Raw: frame, Type: typ}
	if !typ.IsRequest {
		if typ.Kind == AllDump {
			img, err := DecodeAll(frame)
			if err != nil {
				return nil, err
			}
			ev.Image = img
		} else {
			set, err := Decode(frame, typ)
			if err != nil {
				return nil, err
			}
			ev.Params = set
		}
	}
	return ev, nil
}

// voiceDataLen returns the number of data bytes that follow a channel-voice
// status byte.
func voiceDataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0: // program change, channel pressure
		return 1
	default: // note off/on, poly pressure, control change, pitch bend
		return 2
	}
}

// systemCommonDataLen returns the data byte count of a system common
// message (0xF1..0xF6).
func systemCommonDataLen(status byte) int {
	switch status {
	case 0xF1, 0xF3: // MTC quarter frame, song select
		return 1
	case 0xF2: // song position pointer
		return 2
	default:
		return 0
	}
}

// parseVoice turns a complete channel-voice message into an event. Message
// kinds outside the delivery categories are parsed for alignment but
// produce no event.
func parseVoice(msg []byte) Event {
	status := msg[0]
	channel := status & 0x0F
	switch status & 0xF0 {
	case 0x90:
		// Velocity zero is a note off by MIDI 1.0 convention.
		return &NoteEvent{On: msg[2] != 0, Channel: channel, Key: msg[1], Velocity: msg[2]}
	case 0x80:
		return &NoteEvent{On: false, Channel: channel, Key: msg[1], Velocity: msg[2]}
	case 0xB0:
		return &ControlChangeEvent{Channel: channel, Controller: msg[1], Value: msg[2]}
	default:
		return nil
	}
}
