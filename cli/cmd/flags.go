// Package cmd provides CLI commands for the gridsync binary.
package cmd

import (
	"os"

	"github.com/urfave/cli/v2"
)

// Shared flags.
var (
	// ConfigFlag points at the YAML config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to gridsync.yaml config file",
	}

	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for read-only views (report, plan).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (plan only)",
	}

	// StartFlag and EndFlag bound the sync window. Both default to
	// yesterday when omitted.
	StartFlag = &cli.StringFlag{
		Name:  "start",
		Usage: "Window start date (YYYY-MM-DD, default yesterday)",
	}
	EndFlag = &cli.StringFlag{
		Name:  "end",
		Usage: "Window end date (YYYY-MM-DD, default yesterday)",
	}
)

// ReadOnlyFlags returns the shared flags for read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		FormatFlag,
		TUIFlag,
	}
}

// isStderrTTY reports whether stderr is attached to a terminal.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
