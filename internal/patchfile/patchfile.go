package patchfile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/soundwerk/mw4ctl/internal/protocol"
)

// Patch is the on-disk YAML representation of one program. Parameters are
// keyed by their stable names so files survive reordering of the wire
// layout.
type Patch struct {
	Name       string         `yaml:"name,omitempty"`
	Tags       string         `yaml:"tags,omitempty"`
	Parameters map[string]int `yaml:"parameters"`
}

// FromParameterSet converts a decoded program into its file form.
func FromParameterSet(set protocol.ParameterSet) *Patch {
	params := make(map[string]int, len(set))
	for p, v := range set {
		params[p.String()] = int(v)
	}
	return &Patch{Parameters: params}
}

// ParameterSet converts the file form back into a program. Parameters
// absent from the file keep their minimum values; unknown names and
// out-of-range values are errors.
func (p *Patch) ParameterSet() (protocol.ParameterSet, error) {
	set := protocol.NewParameterSet()
	for name, value := range p.Parameters {
		param, ok := protocol.ParamByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		if value < 0 || value > 127 {
			return nil, fmt.Errorf("parameter %q value %d outside MIDI data range", name, value)
		}
		set[param] = byte(value)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Load reads a YAML patch file.
func Load(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch file: %w", err)
	}

	var patch Patch
	if err := yaml.Unmarshal(data, &patch); err != nil {
		return nil, fmt.Errorf("failed to parse patch file: %w", err)
	}
	if patch.Parameters == nil {
		return nil, fmt.Errorf("patch file %s has no parameters section", path)
	}
	return &patch, nil
}

// Save writes the patch as YAML. The write is atomic so an interrupted
// save never leaves a truncated file behind.
func (p *Patch) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write patch file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save patch file: %w", err)
	}
	return nil
}

// ParameterNames returns the sorted parameter names present in the patch.
// Used for deterministic listing output.
func (p *Patch) ParameterNames() []string {
	names := make([]string, 0, len(p.Parameters))
	for name := range p.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
