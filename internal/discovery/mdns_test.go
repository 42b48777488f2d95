package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "valid bridge with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "studio-pi"},
				HostName:      "studio-pi.local.",
				Port:          8338,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/midi", "port_name=MW-4 MIDI 1"},
			},
			wantNil:  false,
			wantName: "studio-pi",
			wantIP:   "192.168.4.16",
			wantPort: 8338,
		},
		{
			name: "valid bridge with custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "rack"},
				HostName:      "rack.local",
				Port:          9000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:  false,
			wantName: "rack",
			wantIP:   "10.0.0.5",
			wantPort: 9000,
		},
		{
			name: "bridge with no port specified (should use default)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "attic"},
				HostName:      "attic.local",
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantNil:  false,
			wantName: "attic",
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "empty instance name",
			entry: &zeroconf.ServiceEntry{
				HostName: "anon.local",
				Port:     8338,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				HostName:      "ghost.local",
				Port:          8338,
				AddrIPv4:      []net.IP{},
				AddrIPv6:      []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only bridge",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6only"},
				HostName:      "v6only.local",
				Port:          8338,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantName: "v6only",
			wantIP:   "fe80::1",
			wantPort: 8338,
		},
		{
			name: "bridge with both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "dual"},
				HostName:      "dual.local",
				Port:          8338,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantName: "dual",
			wantIP:   "192.168.1.50",
			wantPort: 8338,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if bridge != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", bridge)
				}
				return
			}

			if bridge == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil bridge")
			}

			if bridge.Name != tt.wantName {
				t.Errorf("bridge.Name = %v, want %v", bridge.Name, tt.wantName)
			}

			if bridge.IP != tt.wantIP {
				t.Errorf("bridge.IP = %v, want %v", bridge.IP, tt.wantIP)
			}

			if bridge.Port != tt.wantPort {
				t.Errorf("bridge.Port = %v, want %v", bridge.Port, tt.wantPort)
			}

			if bridge.Hostname != tt.entry.HostName {
				t.Errorf("bridge.Hostname = %v, want %v", bridge.Hostname, tt.entry.HostName)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(bridge.DiscoveredAt) > time.Second {
				t.Errorf("bridge.DiscoveredAt is not recent: %v", bridge.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "studio-pi"},
		HostName:      "studio-pi.local",
		Port:          8338,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
		Text:          []string{"path=/midi", "port_name=MW-4 MIDI 1", "flag", "version=1.0"},
	}

	bridge := scanner.parseServiceEntry(entry)
	if bridge == nil {
		t.Fatal("parseServiceEntry() = nil, want bridge")
	}

	// Check metadata parsing
	expectedMetadata := map[string]string{
		"path":      "/midi",
		"port_name": "MW-4 MIDI 1",
		"flag":      "", // Key without value
		"version":   "1.0",
	}

	if len(bridge.Metadata) != len(expectedMetadata) {
		t.Errorf("bridge.Metadata has %d entries, want %d", len(bridge.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := bridge.Metadata[key]; !ok {
			t.Errorf("bridge.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("bridge.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Note: Integration tests with live mDNS discovery require network access
// and should be run manually with:
// go test -tags=integration ./internal/discovery/
