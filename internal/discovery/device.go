package discovery

import (
	"fmt"
	"time"
)

// Bridge represents a discovered mw4-bridge daemon on the network
type Bridge struct {
	// Name is the mDNS instance name (e.g., "studio-pi")
	Name string

	// Hostname is the mDNS hostname (e.g., "studio-pi.local.")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.4.16")
	IP string

	// Port is the WebSocket port (typically 8338)
	Port int

	// Metadata contains additional mDNS TXT record data
	// Common fields: "path=/midi", "port_name=MW-4 MIDI 1"
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("MW-4 bridge %s (%s) at %s:%d", b.Name, b.Hostname, b.IP, b.Port)
}

// URL returns the WebSocket URL for the bridge
func (b *Bridge) URL() string {
	path := b.GetMetadata("path")
	if path == "" {
		path = "/midi"
	}
	return fmt.Sprintf("ws://%s:%d%s", b.IP, b.Port, path)
}

// PortName returns the MIDI port name the bridge advertises, if any
func (b *Bridge) PortName() string {
	return b.GetMetadata("port_name")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
