package protocol

import "fmt"

// Param identifies one of the MW-4's thirty program parameter slots. The
// order matches the wire layout: parameter i lives at frame offset
// PayloadStart+i in a program dump.
type Param int

const (
	ParamProgramNumber Param = iota
	ParamMIDIChannel
	ParamOsc1Octave
	ParamOsc1Waveform
	ParamOsc1PulseWidth
	ParamOsc2Octave
	ParamOsc2Waveform
	ParamOsc2Detune
	ParamOscMixBalance
	ParamNoiseLevel
	ParamFilterCutoff
	ParamFilterResonance
	ParamFilterEnvAmount
	ParamFilterKeytrack
	ParamFilterAttack
	ParamFilterDecay
	ParamFilterSustain
	ParamFilterRelease
	ParamAmpAttack
	ParamAmpDecay
	ParamAmpSustain
	ParamAmpRelease
	ParamLFO1Speed
	ParamLFO1Shape
	ParamLFO1Depth
	ParamLFO2Speed
	ParamLFO2Shape
	ParamGlideRate
	ParamVolume
	ParamArpTempo

	// ParamCount is the number of parameter slots in a program.
	ParamCount = iota
)

// paramInfo describes one slot: a stable name for file formats and
// diagnostics, and the legal value range. Most slots span the full MIDI
// data-byte range; a few are narrower.
type paramInfo struct {
	name string
	min  byte
	max  byte
}

var paramTable = [ParamCount]paramInfo{
	ParamProgramNumber:   {"program_number", 0, ProgramCount - 1},
	ParamMIDIChannel:     {"midi_channel", 0, 16}, // 0 = omni
	ParamOsc1Octave:      {"osc1_octave", 0, 6},
	ParamOsc1Waveform:    {"osc1_waveform", 0, 63},
	ParamOsc1PulseWidth:  {"osc1_pulse_width", 0, 127},
	ParamOsc2Octave:      {"osc2_octave", 0, 6},
	ParamOsc2Waveform:    {"osc2_waveform", 0, 63},
	ParamOsc2Detune:      {"osc2_detune", 0, 127},
	ParamOscMixBalance:   {"osc_mix_balance", 0, 127},
	ParamNoiseLevel:      {"noise_level", 0, 127},
	ParamFilterCutoff:    {"filter_cutoff", 0, 127},
	ParamFilterResonance: {"filter_resonance", 0, 127},
	ParamFilterEnvAmount: {"filter_env_amount", 0, 127},
	ParamFilterKeytrack:  {"filter_keytrack", 0, 127},
	ParamFilterAttack:    {"filter_attack", 0, 127},
	ParamFilterDecay:     {"filter_decay", 0, 127},
	ParamFilterSustain:   {"filter_sustain", 0, 127},
	ParamFilterRelease:   {"filter_release", 0, 127},
	ParamAmpAttack:       {"amp_attack", 0, 127},
	ParamAmpDecay:        {"amp_decay", 0, 127},
	ParamAmpSustain:      {"amp_sustain", 0, 127},
	ParamAmpRelease:      {"amp_release", 0, 127},
	ParamLFO1Speed:       {"lfo1_speed", 0, 127},
	ParamLFO1Shape:       {"lfo1_shape", 0, 5},
	ParamLFO1Depth:       {"lfo1_depth", 0, 127},
	ParamLFO2Speed:       {"lfo2_speed", 0, 127},
	ParamLFO2Shape:       {"lfo2_shape", 0, 5},
	ParamGlideRate:       {"glide_rate", 0, 127},
	ParamVolume:          {"volume", 0, 127},
	ParamArpTempo:        {"arp_tempo", 0, 127},
}

func (p Param) String() string {
	if p < 0 || p >= ParamCount {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return paramTable[p].name
}

// Offset returns the frame index of this parameter within a program dump.
func (p Param) Offset() int { return PayloadStart + int(p) }

// Range returns the legal value range for this parameter.
func (p Param) Range() (min, max byte) {
	info := paramTable[p]
	return info.min, info.max
}

// Clamp forces v into the parameter's legal range.
func (p Param) Clamp(v byte) byte {
	info := paramTable[p]
	if v < info.min {
		return info.min
	}
	if v > info.max {
		return info.max
	}
	return v
}

// ParamByName resolves a parameter tag from its stable name. Used by the
// patch file format.
func ParamByName(name string) (Param, bool) {
	for p, info := range paramTable {
		if info.name == name {
			return Param(p), true
		}
	}
	return 0, false
}

// ParameterSet is a decoded program: one 8-bit value per parameter tag.
type ParameterSet map[Param]byte

// NewParameterSet returns a set with every parameter at its minimum.
func NewParameterSet() ParameterSet {
	set := make(ParameterSet, ParamCount)
	for p := Param(0); p < ParamCount; p++ {
		set[p] = paramTable[p].min
	}
	return set
}

// Validate checks every value against its declared range. The program
// number slot gets its own error so callers can distinguish a bad program
// index from a generic range violation.
func (s ParameterSet) Validate() error {
	for p := Param(0); p < ParamCount; p++ {
		v, ok := s[p]
		if !ok {
			return fmt.Errorf("%w: %s missing", ErrValueOutOfRange, p)
		}
		min, max := p.Range()
		if v < min || v > max {
			if p == ParamProgramNumber {
				return fmt.Errorf("%w: %d (bank holds %d programs)", ErrInvalidProgramNumber, v, ProgramCount)
			}
			return fmt.Errorf("%w: %s=%d, legal range %d..%d", ErrValueOutOfRange, p, v, min, max)
		}
	}
	return nil
}
