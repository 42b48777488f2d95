// Mw4ctl is a command line utility for MW-4 sound modules.
//
// It speaks the MW-4's SysEx dump protocol over system MIDI ports, serial
// bridges, and networked mw4-bridge daemons: requesting and sending
// programs, converting between .syx dumps and YAML patch files, and
// monitoring live MIDI traffic.
//
// Usage:
//
//	mw4ctl [command] [flags]
//
// See 'mw4ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundwerk/mw4ctl/internal/logging"
	"github.com/soundwerk/mw4ctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mw4ctl",
	Short: "MW-4 Sound Module Utility",
	Long: `A command line utility for MW-4 sound modules.

Talks the MW-4 SysEx dump protocol over system MIDI ports, serial
bridges, or networked mw4-bridge daemons. Supports requesting and
sending program dumps, full memory dumps, patch file conversion,
and live traffic monitoring.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless MW4_LOG_LEVEL is set, so command output stays clean.
		return logging.InitializeFromEnv()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mw4ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
