package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soundwerk/mw4ctl/internal/config"
	"github.com/soundwerk/mw4ctl/internal/discovery"
	"github.com/soundwerk/mw4ctl/internal/logging"
	"github.com/soundwerk/mw4ctl/internal/patchfile"
	"github.com/soundwerk/mw4ctl/internal/protocol"
	"github.com/soundwerk/mw4ctl/internal/transport"
	"github.com/soundwerk/mw4ctl/internal/ui"
)

// Per-command flags.
var (
	scanTimeout    int
	requestTimeout int
	outputPath     string
)

func init() {
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(configCmd)
}

// effectiveScanTimeout returns the discovery timeout in seconds: the flag
// when given, the configured preference otherwise.
func effectiveScanTimeout(flagValue int, flagChanged bool, prefs *config.Preferences) int {
	if flagChanged || prefs == nil || prefs.DiscoverTimeout <= 0 {
		return flagValue
	}
	return prefs.DiscoverTimeout
}

// resolvePatchPath places bare output file names into the configured patch
// directory. Paths carrying any directory component are taken literally.
func resolvePatchPath(prefs *config.Preferences, path string) string {
	if prefs == nil || prefs.PatchDir == "" || path == "" {
		return path
	}
	if filepath.Base(path) != path {
		return path
	}
	return filepath.Join(prefs.PatchDir, path)
}

// portsCmd lists everything a connection could be opened on.
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available MIDI and serial ports",
	Long: `List the MIDI input/output ports and serial devices visible to this machine.

Port indices and names shown here can be matched with the --port flag; serial
device paths can be passed to --serial.`,
	Example: `  # List everything
  mw4ctl ports`,
	RunE: runPorts,
}

func runPorts(cmd *cobra.Command, args []string) error {
	ins, outs, err := transport.Ports()
	if err != nil {
		return fmt.Errorf("failed to enumerate MIDI ports: %w", err)
	}

	fmt.Println("MIDI inputs:")
	if len(ins) == 0 {
		fmt.Println("  (none)")
	}
	for i, name := range ins {
		fmt.Printf("  %d. %s\n", i, name)
	}

	fmt.Println("\nMIDI outputs:")
	if len(outs) == 0 {
		fmt.Println("  (none)")
	}
	for i, name := range outs {
		fmt.Printf("  %d. %s\n", i, name)
	}

	serials, err := transport.SerialPorts()
	if err != nil {
		// Serial enumeration failing should not hide the MIDI listing.
		logging.Warn("Failed to enumerate serial ports", zap.Error(err))
		return nil
	}
	fmt.Println("\nSerial devices:")
	if len(serials) == 0 {
		fmt.Println("  (none)")
	}
	for _, name := range serials {
		fmt.Printf("  %s\n", name)
	}

	return nil
}

// scanCmd discovers WebSocket MIDI bridges on the network.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for MW-4 bridges on the network",
	Long: `Scan for MW-4 WebSocket bridges using mDNS/DNS-SD discovery.

Bridges announce themselves as ` + discovery.ServiceType + ` services. Each
discovered bridge is recorded in the config registry so later commands can
reconnect without rescanning.`,
	Example: `  # Scan for 10 seconds (default)
  mw4ctl scan

  # Quick 3-second scan
  mw4ctl scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	timeout := effectiveScanTimeout(scanTimeout, cmd.Flags().Changed("timeout"), loadPrefs())
	fmt.Printf("Scanning for MW-4 bridges (timeout: %ds)...\n\n", timeout)

	bridges, err := discovery.ScanForBridges(time.Duration(timeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(bridges) == 0 {
		fmt.Println("No bridges found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the bridge host is powered on and on the same network")
		fmt.Println("  - Check that mDNS traffic is not blocked by your router or firewall")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --url to specify the bridge address manually")
		return nil
	}

	fmt.Printf("Found %d bridge(s):\n\n", len(bridges))

	reg, regErr := config.LoadRegistry()
	for i, bridge := range bridges {
		fmt.Printf("%d. %s\n", i+1, bridge.Name)
		fmt.Printf("   Address: %s:%d\n", bridge.IP, bridge.Port)
		fmt.Printf("   URL:     %s\n", bridge.URL())
		if len(bridge.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", bridge.Metadata)
		}
		fmt.Println()

		if regErr == nil {
			reg.UpdateDeviceLastSeen(bridge.Name, fmt.Sprintf("%s:%d", bridge.IP, bridge.Port))
		}
	}
	if regErr == nil {
		if err := reg.Save(); err != nil {
			logging.Warn("Failed to save registry", zap.Error(err))
		}
	}

	fmt.Println("Use 'mw4ctl monitor --url <url>' to watch traffic through a bridge")

	return nil
}

// decodeCmd parses dump files without touching any hardware.
var decodeCmd = &cobra.Command{
	Use:   "decode <file.syx>",
	Short: "Decode a SysEx dump file",
	Long: `Decode the SysEx frames in a .syx file and print their contents.

Program dumps are printed parameter by parameter; an all dump is summarized
per program slot. With --out, the first program dump in the file is written
as a YAML patch file instead.`,
	Example: `  # Inspect a dump
  mw4ctl decode lead.syx

  # Convert the dump to an editable patch file
  mw4ctl decode lead.syx --out lead.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&outputPath, "out", "", "Write the first program dump as a YAML patch file")
}

func runDecode(cmd *cobra.Command, args []string) error {
	frames, err := patchfile.ReadSyx(args[0])
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(nil)
	outPath := resolvePatchPath(loadPrefs(), outputPath)
	saved := false

	for i, frame := range frames {
		typ, err := protocol.Classify(frame)
		if err != nil {
			printer.Println(fmt.Sprintf("Frame %d: INVALID: %v", i+1, err))
			continue
		}

		printer.Println(fmt.Sprintf("Frame %d: %s, device ID %d, %d bytes",
			i+1, typ, protocol.DeviceID(frame), len(frame)))

		switch {
		case typ.IsRequest:
			// Nothing to decode in a request.

		case typ.Kind == protocol.AllDump:
			img, err := protocol.DecodeAll(frame)
			if err != nil {
				return err
			}
			for slot, set := range img.Programs {
				printer.Println(fmt.Sprintf("  slot %2d: cutoff=%3d resonance=%3d volume=%3d",
					slot, set[protocol.ParamFilterCutoff], set[protocol.ParamFilterResonance], set[protocol.ParamVolume]))
			}

		default:
			set, err := protocol.Decode(frame, typ)
			if err != nil {
				return err
			}
			patch := patchfile.FromParameterSet(set)
			if outPath != "" && !saved {
				patch.Name = strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
				if err := patch.Save(outPath); err != nil {
					return err
				}
				printer.Println(fmt.Sprintf("  written to %s", outPath))
				saved = true
				continue
			}
			printPatch(printer, patch)
		}
	}

	if outPath != "" && !saved {
		return fmt.Errorf("no program dump found in %s", args[0])
	}
	return nil
}

func printPatch(printer *ui.Printer, patch *patchfile.Patch) {
	for _, name := range patch.ParameterNames() {
		printer.Println(fmt.Sprintf("  %-20s %3d", name, patch.Parameters[name]))
	}
}

// encodeCmd builds a dump file from an editable patch.
var encodeCmd = &cobra.Command{
	Use:   "encode <patch.yaml> <out.syx>",
	Short: "Encode a YAML patch file as a SysEx dump",
	Long: `Encode a YAML patch file into a single program dump frame and write it
as a .syx file.

The frame is addressed with the configured device ID (override with
--device-id) and carries a freshly computed checksum, so the output can be
sent to the device as-is.`,
	Example: `  # Build a dump from an edited patch
  mw4ctl encode lead.yaml lead.syx

  # Address a specific device on the chain
  mw4ctl encode lead.yaml lead.syx --device-id 2`,
	Args: cobra.ExactArgs(2),
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	patch, err := patchfile.Load(args[0])
	if err != nil {
		return err
	}
	set, err := patch.ParameterSet()
	if err != nil {
		return err
	}

	typ, _ := protocol.TypeOf(protocol.CmdProgramDump)
	frame, err := protocol.Encode(set, typ, resolveDeviceID())
	if err != nil {
		return err
	}
	outPath := resolvePatchPath(loadPrefs(), args[1])
	if err := patchfile.WriteSyx(outPath, [][]byte{frame}); err != nil {
		return err
	}

	fmt.Printf("Wrote %d-byte program dump to %s\n", len(frame), outPath)
	return nil
}

// requestCmd pulls a dump out of the device.
var requestCmd = &cobra.Command{
	Use:   "request <program|bulk|all> [slot]",
	Short: "Request a dump from the device",
	Long: `Send a dump request and wait for the matching response.

'program' and 'bulk' take a slot number (0-15): program requests the edit
buffer load of that slot, bulk requests the stored version. 'all' pulls the
entire memory image.

By default the response is printed. With --out the response is written to a
file instead: a .yaml extension saves a patch file (program dumps only), any
other extension saves the raw frame as .syx data. Bare file names land in
the configured patch directory.`,
	Example: `  # Print slot 3 parameter by parameter
  mw4ctl request program 3

  # Save the stored version of slot 3 as an editable patch
  mw4ctl request bulk 3 --out lead.yaml

  # Back up the whole device
  mw4ctl request all --out backup.syx`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().IntVar(&requestTimeout, "timeout", 5, "Response timeout in seconds")
	requestCmd.Flags().StringVar(&outputPath, "out", "", "Write the response to a file (.yaml or .syx)")
}

func runRequest(cmd *cobra.Command, args []string) error {
	var want protocol.Kind
	switch args[0] {
	case "program":
		want = protocol.ProgramDump
	case "bulk":
		want = protocol.ProgramBulkDump
	case "all":
		want = protocol.AllDump
	default:
		return fmt.Errorf("unknown dump kind %q (want program, bulk or all)", args[0])
	}

	slot := 0
	if want != protocol.AllDump {
		if len(args) < 2 {
			return fmt.Errorf("%s requests need a slot number (0-%d)", args[0], protocol.ProgramCount-1)
		}
		var err error
		slot, err = strconv.Atoi(args[1])
		if err != nil || slot < 0 || slot >= protocol.ProgramCount {
			return fmt.Errorf("invalid slot %q (want 0-%d)", args[1], protocol.ProgramCount-1)
		}
	}

	session, target, cleanup, err := openSession()
	if err != nil {
		return err
	}
	defer cleanup()

	sub := session.Subscribe(protocol.CategorySysEx)
	defer sub.Close()

	id := resolveDeviceID()
	switch want {
	case protocol.ProgramDump:
		err = session.RequestProgram(id, byte(slot))
	case protocol.ProgramBulkDump:
		err = session.RequestBulk(id, byte(slot))
	case protocol.AllDump:
		err = session.RequestAll(id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Requested %s from %s, waiting for response...\n", args[0], target)

	ev, err := awaitDump(sub, want, time.Duration(requestTimeout)*time.Second)
	if err != nil {
		return err
	}

	return writeDump(ev)
}

// writeDump routes a received dump to --out or to stdout.
func writeDump(ev *protocol.SysExEvent) error {
	outPath := resolvePatchPath(loadPrefs(), outputPath)
	if outPath == "" {
		printer := ui.NewPrinter(nil)
		printer.Println(fmt.Sprintf("Received %s (%d bytes)", ev.Type, len(ev.Raw)))
		if ev.Params != nil {
			printPatch(printer, patchfile.FromParameterSet(ev.Params))
		}
		if ev.Image != nil {
			for slot, set := range ev.Image.Programs {
				printer.Println(fmt.Sprintf("  slot %2d: cutoff=%3d resonance=%3d volume=%3d",
					slot, set[protocol.ParamFilterCutoff], set[protocol.ParamFilterResonance], set[protocol.ParamVolume]))
			}
		}
		return nil
	}

	if strings.EqualFold(filepath.Ext(outPath), ".yaml") {
		if ev.Params == nil {
			return fmt.Errorf("%s responses cannot be saved as a patch file, use a .syx path", ev.Type.Kind)
		}
		patch := patchfile.FromParameterSet(ev.Params)
		patch.Name = strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
		if err := patch.Save(outPath); err != nil {
			return err
		}
	} else {
		if err := patchfile.WriteSyx(outPath, [][]byte{ev.Raw}); err != nil {
			return err
		}
	}

	fmt.Printf("Saved %s to %s\n", ev.Type.Kind, outPath)
	return nil
}

// sendCmd pushes a patch or dump file to the device.
var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Send a patch or dump file to the device",
	Long: `Send the contents of a file to the device.

YAML patch files are encoded as a single program dump. .syx files may carry
several frames; each one is validated (header, command, checksum) before
anything is sent, so a corrupt file never half-transfers.`,
	Example: `  # Send an edited patch to the edit buffer
  mw4ctl send lead.yaml

  # Restore a full backup
  mw4ctl send backup.syx`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	session, target, cleanup, err := openSession()
	if err != nil {
		return err
	}
	defer cleanup()

	path := args[0]
	if strings.EqualFold(filepath.Ext(path), ".yaml") || strings.EqualFold(filepath.Ext(path), ".yml") {
		patch, err := patchfile.Load(path)
		if err != nil {
			return err
		}
		set, err := patch.ParameterSet()
		if err != nil {
			return err
		}
		if err := session.SendProgram(set, resolveDeviceID()); err != nil {
			return err
		}
		fmt.Printf("Sent patch %s to %s\n", path, target)
		return nil
	}

	frames, err := patchfile.ReadSyx(path)
	if err != nil {
		return err
	}
	// Validate everything up front.
	for i, frame := range frames {
		if _, err := protocol.Classify(frame); err != nil {
			return fmt.Errorf("frame %d of %s: %w", i+1, path, err)
		}
	}
	for _, frame := range frames {
		if err := session.Send(frame); err != nil {
			return err
		}
	}

	fmt.Printf("Sent %d frame(s) from %s to %s\n", len(frames), path, target)
	return nil
}

// monitorCmd watches live traffic in a TUI.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch live MIDI traffic from the device",
	Long: `Open a connection and display decoded traffic in a scrolling view.

SysEx dumps, control changes and note events each get their own running
count. Space pauses the display without dropping the counters; q quits.`,
	Example: `  # Monitor the configured connection
  mw4ctl monitor

  # Monitor through a network bridge
  mw4ctl monitor --url ws://studio-pi.local:8338/midi`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	session, target, cleanup, err := openSession()
	if err != nil {
		return err
	}
	defer cleanup()

	return ui.RunMonitor(session, target, []protocol.Category{
		protocol.CategorySysEx,
		protocol.CategoryControlChange,
		protocol.CategoryNote,
	})
}

// configCmd manages the on-disk registry.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the mw4ctl configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Write a default configuration file with an example device entry.

Fails if a configuration file already exists, so an existing registry is
never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(); err != nil {
			return err
		}
		path, _ := config.GetConfigPath()
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var configLabelCmd = &cobra.Command{
	Use:   "label <device> <slot> <label>",
	Short: "Label a program slot",
	Long: `Record a human-readable label for a program slot of a known device.

Labels live in the config registry only; the device itself stores no names.`,
	Example: `  # Name slot 3 of the studio unit
  mw4ctl config label "Studio MW-4" 3 "Fat Lead" --tags lead,analog`,
	Args: cobra.ExactArgs(3),
	RunE: runConfigLabel,
}

var labelTags string

func init() {
	configLabelCmd.Flags().StringVar(&labelTags, "tags", "", "Comma-separated tags for the slot")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configLabelCmd)
}

func runConfigLabel(cmd *cobra.Command, args []string) error {
	slot, err := strconv.Atoi(args[1])
	if err != nil || slot < 0 || slot >= protocol.ProgramCount {
		return fmt.Errorf("invalid slot %q (want 0-%d)", args[1], protocol.ProgramCount-1)
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}
	reg.SetProgramLabel(args[0], slot, args[2], labelTags)
	if err := reg.Save(); err != nil {
		return err
	}

	fmt.Printf("Labeled slot %d of %s as %q\n", slot, args[0], args[2])
	return nil
}
