package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/soundwerk/mw4ctl/internal/config"
	"github.com/soundwerk/mw4ctl/internal/device"
	"github.com/soundwerk/mw4ctl/internal/discovery"
	"github.com/soundwerk/mw4ctl/internal/logging"
	"github.com/soundwerk/mw4ctl/internal/protocol"
	"github.com/soundwerk/mw4ctl/internal/stream"
	"github.com/soundwerk/mw4ctl/internal/transport"
)

// Connection flags, shared by every command that talks to a device.
var (
	portHint   string
	serialPort string
	baudRate   int
	bridgeURL  string
	deviceID   uint8
)

func init() {
	rootCmd.PersistentFlags().StringVar(&portHint, "port", "", "Substring to match MIDI port names")
	rootCmd.PersistentFlags().StringVar(&serialPort, "serial", "", "Serial bridge device path (e.g. /dev/ttyUSB0)")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", 0, "Serial baud rate (0 = standard MIDI rate)")
	rootCmd.PersistentFlags().StringVar(&bridgeURL, "url", "", "WebSocket bridge URL (e.g. ws://studio-pi.local:8338/midi)")
	rootCmd.PersistentFlags().Uint8Var(&deviceID, "device-id", 0, "SysEx device ID (0-127)")
}

// loadPrefs returns saved preferences, falling back to defaults when the
// config file is missing or unreadable.
func loadPrefs() *config.Preferences {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Failed to load config registry", zap.Error(err))
		return &config.Preferences{}
	}
	if reg.Preferences == nil {
		return &config.Preferences{}
	}
	return reg.Preferences
}

// resolveDeviceID returns the SysEx device ID to address: the flag when
// given, the configured default otherwise.
func resolveDeviceID() byte {
	if rootCmd.PersistentFlags().Changed("device-id") {
		return deviceID
	}
	return loadPrefs().DeviceID
}

// openConnection opens a transport using flag values, falling back to
// configured preferences. Precedence: WebSocket bridge, then serial, then
// system MIDI ports.
func openConnection() (transport.Connection, string, error) {
	prefs := loadPrefs()

	url := bridgeURL
	if url == "" {
		url = prefs.BridgeURL
	}
	if url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		conn, err := transport.DialWS(ctx, url)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", url), nil
	}

	port := serialPort
	if port == "" {
		port = prefs.SerialPort
	}
	if port != "" {
		baud := baudRate
		if baud == 0 {
			baud = prefs.BaudRate
		}
		conn, err := transport.OpenSerial(port, baud)
		if err != nil {
			return nil, "", err
		}
		if baud == 0 {
			baud = transport.MIDIBaudRate
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", port, baud), nil
	}

	hint := portHint
	if hint == "" {
		hint = prefs.PortHint
	}
	if hint == "" {
		hint = "MW-4"
	}
	inIdx, outIdx, err := transport.FindPorts(hint)
	if err != nil {
		if prefs.AutoDiscover {
			return dialDiscoveredBridge(prefs)
		}
		return nil, "", fmt.Errorf("%w (use --port, --serial or --url, or 'mw4ctl ports' to list)", err)
	}
	conn, err := transport.OpenMIDIPort(inIdx, outIdx)
	if err != nil {
		return nil, "", err
	}
	ins, _, _ := transport.Ports()
	name := hint
	if inIdx < len(ins) {
		name = ins[inIdx]
	}
	return conn, fmt.Sprintf("MIDI: %s", name), nil
}

// dialDiscoveredBridge is the last resort when nothing is configured and no
// MIDI port matched: scan for a bridge and connect to the first one found.
func dialDiscoveredBridge(prefs *config.Preferences) (transport.Connection, string, error) {
	timeout := time.Duration(prefs.DiscoverTimeout) * time.Second
	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}
	logging.Info("No MIDI port matched, scanning for bridges", zap.Duration("timeout", timeout))

	bridges, err := discovery.ScanForBridges(timeout)
	if err != nil || len(bridges) == 0 {
		return nil, "", fmt.Errorf("no MIDI port matched and no bridge discovered (use --port, --serial or --url, or 'mw4ctl ports' to list)")
	}

	bridge := bridges[0]
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, err := transport.DialWS(ctx, bridge.URL())
	if err != nil {
		return nil, "", err
	}
	return conn, fmt.Sprintf("WebSocket: %s (%s)", bridge.URL(), bridge.Name), nil
}

// openSession opens a connection, wraps it in a running session, and
// returns a cleanup function that tears both down.
func openSession() (*device.Session, string, func(), error) {
	conn, target, err := openConnection()
	if err != nil {
		return nil, "", nil, err
	}

	s := device.NewSession(conn)
	go func() {
		if err := s.Run(context.Background()); err != nil {
			logging.Error("Session terminated", zap.Error(err))
		}
	}()

	logging.LogConnection(target, "opened")
	cleanup := func() {
		_ = s.Close()
		logging.LogConnection(target, "closed")
	}
	return s, target, cleanup, nil
}

// awaitDump reads the SysEx subscription until a response of the wanted
// kind arrives or the timeout expires. Request echoes (our own frames
// looped back by some interfaces) are skipped.
func awaitDump(sub *stream.Subscription, want protocol.Kind, timeout time.Duration) (*protocol.SysExEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("no %s response within %s (is the device connected and powered on?)", want, timeout)
			}
			return nil, err
		}
		se, ok := ev.(*protocol.SysExEvent)
		if !ok {
			continue
		}
		if se.Type.IsRequest || se.Type.Kind != want {
			continue
		}
		return se, nil
	}
}
