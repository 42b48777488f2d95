package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by port or bridge name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single MW-4 unit.
// This is keyed by the MIDI port or bridge name it was last seen on.
type Device struct {
	Nickname string               `yaml:"nickname,omitempty"`  // User-friendly name
	DeviceID byte                 `yaml:"device_id"`           // SysEx device ID (0-127)
	LastAddr string               `yaml:"last_addr,omitempty"` // Last bridge URL or port name
	LastSeen time.Time            `yaml:"last_seen,omitempty"` // Last discovery/connection time
	Programs map[int]*ProgramMeta `yaml:"programs,omitempty"`  // Program slot metadata (keyed by slot 0-15)
}

// ProgramMeta represents user-defined metadata for a single program slot.
// This is purely client-side information - the device itself doesn't store names.
type ProgramMeta struct {
	Label string `yaml:"label"`          // User-defined label (e.g., "Fat Bass")
	Tags  string `yaml:"tags,omitempty"` // Free-form tags for search
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	PortHint        string `yaml:"port_hint,omitempty"`   // Substring to match MIDI port names
	SerialPort      string `yaml:"serial_port,omitempty"` // Serial bridge device path
	BaudRate        int    `yaml:"baud_rate,omitempty"`   // Serial baud rate (0 = standard MIDI rate)
	BridgeURL       string `yaml:"bridge_url,omitempty"`  // WebSocket bridge URL
	DeviceID        byte   `yaml:"device_id"`             // Default SysEx device ID
	PatchDir        string `yaml:"patch_dir,omitempty"`   // Default directory for patch files
	AutoDiscover    bool   `yaml:"auto_discover"`         // Enable automatic mDNS discovery on startup
	DiscoverTimeout int    `yaml:"discover_timeout"`      // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetDevice retrieves device metadata by port or bridge name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice ensures a device entry exists in the registry.
// If the device doesn't exist, creates a new entry with default values.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	// Create new device entry
	device := &Device{
		Programs: make(map[int]*ProgramMeta),
	}
	r.Devices[name] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp and address for a device.
func (r *Registry) UpdateDeviceLastSeen(name, addr string) {
	device := r.EnsureDevice(name)
	device.LastSeen = time.Now()
	device.LastAddr = addr
}

// SetProgramLabel sets or updates the program slot metadata for a device.
func (r *Registry) SetProgramLabel(name string, slot int, label, tags string) {
	device := r.EnsureDevice(name)

	if device.Programs == nil {
		device.Programs = make(map[int]*ProgramMeta)
	}

	device.Programs[slot] = &ProgramMeta{
		Label: label,
		Tags:  tags,
	}
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(name, nickname string) {
	device := r.EnsureDevice(name)
	device.Nickname = nickname
}
