// Package discovery provides mDNS-based discovery of mw4-bridge daemons.
//
// A bridge is a small daemon (typically on a Raspberry Pi next to the rack)
// that exposes an MW-4's MIDI port as raw bytes over WebSocket. Bridges
// advertise themselves using the "_mw4-bridge._tcp" service type.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries on the local network
//  2. Listens for service advertisements from bridge daemons
//  3. Collects bridge information (instance name, IP, port, TXT metadata)
//  4. Returns a list of discovered bridges after the timeout period
//
// # Usage Example
//
//	// Discover bridges with 10-second timeout
//	bridges, err := discovery.ScanForBridges(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Print discovered bridges
//	for _, bridge := range bridges {
//	    fmt.Printf("Found: %s at %s\n", bridge.Name, bridge.URL())
//	}
//
// # Bridge Information
//
// Each discovered bridge includes:
//   - Name: mDNS instance name (e.g., "studio-pi")
//   - IP: IPv4 address (IPv6 as a fallback)
//   - Port: WebSocket port (typically 8338)
//   - Metadata: TXT record data such as "path" and "port_name"
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
