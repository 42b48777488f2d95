// Package logging provides structured logging for the mw4ctl tooling.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the tool. It provides both general logging functions
// and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame parsing)
//   - Info: Normal operations (connections, dumps, state changes)
//   - Warn: Non-fatal issues (dropped events, malformed frames)
//   - Error: Fatal issues (port open failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device responded",
//	    zap.Uint8("device_id", 0x00),
//	    zap.String("kind", "program_dump"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogConnection("hw:1,0", "port_opened")
//	logging.LogFrame("received", frame)
//	logging.LogRawBytes("serial chunk", data)
//
// # Configuration
//
// Logging is silent by default so CLI output stays clean. Set MW4_LOG_LEVEL
// to enable it, or initialize explicitly:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
