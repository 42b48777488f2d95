package protocol

import "fmt"

// Category partitions decoded events for stream delivery. Each category
// gets its own bounded queue with its own overflow policy.
type Category int

const (
	CategorySysEx Category = iota
	CategoryControlChange
	CategoryNote
)

func (c Category) String() string {
	switch c {
	case CategorySysEx:
		return "sysex"
	case CategoryControlChange:
		return "control_change"
	case CategoryNote:
		return "note"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Event is one decoded item ready for delivery.
type Event interface {
	Category() Category
	String() string
}

// SysExEvent is a complete, classified and decoded dump frame.
type SysExEvent struct {
	Raw  []byte
	Type MessageType

	// Params is set for program-sized dump responses, Image for all dump
	// responses. Requests carry neither.
	Params ParameterSet
	Image  *MemoryImage
}

func (e *SysExEvent) Category() Category { return CategorySysEx }

func (e *SysExEvent) String() string {
	return fmt.Sprintf("SysEx{%s, device=0x%02X, %d bytes}", e.Type, DeviceID(e.Raw), len(e.Raw))
}

// NoteEvent is a note on or note off. A note on with velocity zero arrives
// as a note off, per MIDI 1.0 convention.
type NoteEvent struct {
	On       bool
	Channel  byte // 0..15
	Key      byte
	Velocity byte
}

func (e *NoteEvent) Category() Category { return CategoryNote }

func (e *NoteEvent) String() string {
	kind := "NoteOff"
	if e.On {
		kind = "NoteOn"
	}
	return fmt.Sprintf("%s{ch=%d, key=%d, vel=%d}", kind, e.Channel, e.Key, e.Velocity)
}

// ControlChangeEvent is a controller movement.
type ControlChangeEvent struct {
	Channel    byte // 0..15
	Controller byte
	Value      byte
}

func (e *ControlChangeEvent) Category() Category { return CategoryControlChange }

func (e *ControlChangeEvent) String() string {
	return fmt.Sprintf("ControlChange{ch=%d, cc=%d, val=%d}", e.Channel, e.Controller, e.Value)
}
