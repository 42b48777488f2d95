// Package config provides user configuration management for mw4ctl.
//
// This package manages a YAML-based configuration file that stores user-defined
// metadata for MW-4 sound modules, including nicknames, program slot labels, and
// default connection preferences. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/mw4ctl/config.yaml or $HOME/.config/mw4ctl/config.yaml
//   - macOS: $HOME/.config/mw4ctl/config.yaml
//   - Windows: %LOCALAPPDATA%\mw4ctl\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Add or update device metadata
//	device := &config.Device{
//	    Nickname: "Studio MW-4",
//	    DeviceID: 0x00,
//	    Programs: map[int]*config.ProgramMeta{
//	        0: {Label: "Init Patch"},
//	        1: {Label: "Fat Bass", Tags: "bass, analog"},
//	    },
//	}
//	registry.Devices["MW-4 MIDI 1"] = device
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
