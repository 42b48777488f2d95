// Package ui provides terminal UI components for the mw4ctl CLI.
//
// This package uses Bubble Tea and Lipgloss for two kinds of output:
//
//   - Printer: styled "run once and exit" boxes (headers, success and
//     error results) used by the non-interactive commands
//   - MonitorModel: the interactive live monitor, a scrolling log of
//     decoded MIDI traffic with category counters and pause/clear keys
//
// # Usage Pattern
//
// Non-interactive commands render through a Printer:
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Request Program", "mw4ctl request", map[string]string{
//	    "Port":    portName,
//	    "Program": "5",
//	})
//	// ... do work ...
//	p.PrintSuccess("Program received", details)
//
// The monitor command hands a running session to RunMonitor, which blocks
// until the user quits:
//
//	err := ui.RunMonitor(session, portName, []protocol.Category{
//	    protocol.CategorySysEx,
//	    protocol.CategoryControlChange,
//	    protocol.CategoryNote,
//	})
//
// # Logging Integration
//
// This package expects logging to be controlled via the MW4_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set MW4_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
package ui
