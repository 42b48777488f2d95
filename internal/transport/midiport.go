package transport

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the system MIDI driver
)

// sysexBufferSize must hold at least a full all dump; the driver splits
// anything larger.
const sysexBufferSize = 2048

// MIDIPort is a Connection over a pair of system MIDI ports. The driver
// pushes complete messages from its own thread; they are funneled through
// an internal channel so Read presents the usual pull interface.
type MIDIPort struct {
	in   drivers.In
	out  drivers.Out
	stop func()

	inbox chan []byte
	buf   []byte
	off   int
}

// OpenMIDIPort opens the input and output ports at the given indices (as
// reported by Ports) and starts listening.
func OpenMIDIPort(inIndex, outIndex int) (*MIDIPort, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate MIDI inputs: %w", err)
	}
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate MIDI outputs: %w", err)
	}
	if inIndex < 0 || inIndex >= len(ins) {
		return nil, fmt.Errorf("input port index %d out of range (%d ports)", inIndex, len(ins))
	}
	if outIndex < 0 || outIndex >= len(outs) {
		return nil, fmt.Errorf("output port index %d out of range (%d ports)", outIndex, len(outs))
	}

	out := outs[outIndex]
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("failed to open MIDI output %q: %w", out.String(), err)
	}

	p := &MIDIPort{
		in:    ins[inIndex],
		out:   out,
		inbox: make(chan []byte, 64),
	}

	stop, err := midi.ListenTo(p.in, func(msg midi.Message, _ int32) {
		// The callback runs on the driver's thread; copy before handing
		// the bytes over.
		chunk := make([]byte, len(msg))
		copy(chunk, msg)
		select {
		case p.inbox <- chunk:
		default:
			// Inbox full: the consumer stalled. Dropping here mirrors
			// what the hardware UART would do anyway.
		}
	}, midi.UseSysEx(), midi.SysExBufferSize(sysexBufferSize))
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("failed to listen on MIDI input %q: %w", p.in.String(), err)
	}
	p.stop = stop

	return p, nil
}

// Read returns the next chunk of inbound bytes, blocking until the driver
// delivers a message or the port is closed.
func (p *MIDIPort) Read(buf []byte) (int, error) {
	if p.off < len(p.buf) {
		n := copy(buf, p.buf[p.off:])
		p.off += n
		return n, nil
	}
	chunk, ok := <-p.inbox
	if !ok {
		return 0, fmt.Errorf("midi port closed")
	}
	p.buf = chunk
	p.off = copy(buf, chunk)
	return p.off, nil
}

// Write sends one complete MIDI message to the output port.
func (p *MIDIPort) Write(msg []byte) (int, error) {
	if err := p.out.Send(msg); err != nil {
		return 0, fmt.Errorf("midi send failed: %w", err)
	}
	return len(msg), nil
}

// Close stops the listener and closes both ports.
func (p *MIDIPort) Close() error {
	if p.stop != nil {
		p.stop()
		p.stop = nil
		close(p.inbox)
	}
	return p.out.Close()
}

// Ports lists the system's MIDI input and output port names, in index
// order.
func Ports() (ins, outs []string, err error) {
	inPorts, err := drivers.Ins()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate MIDI inputs: %w", err)
	}
	outPorts, err := drivers.Outs()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate MIDI outputs: %w", err)
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// FindPorts locates the first input and output ports whose names contain
// the hint, case-insensitively.
func FindPorts(hint string) (inIndex, outIndex int, err error) {
	ins, outs, err := Ports()
	if err != nil {
		return 0, 0, err
	}
	inIndex, outIndex = -1, -1
	hint = strings.ToLower(hint)
	for i, name := range ins {
		if strings.Contains(strings.ToLower(name), hint) {
			inIndex = i
			break
		}
	}
	for i, name := range outs {
		if strings.Contains(strings.ToLower(name), hint) {
			outIndex = i
			break
		}
	}
	if inIndex < 0 || outIndex < 0 {
		return 0, 0, fmt.Errorf("no MIDI port matching %q", hint)
	}
	return inIndex, outIndex, nil
}
