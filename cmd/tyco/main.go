package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tyco/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tyco",
	Short: "Constraint-based type inference toolchain",
	Long:  `Tyco generates subtype constraint problems from textual IR for an external solver`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics per function (0 = from tyco.toml)")
	rootCmd.PersistentFlags().String("trace", "", "trace output path ('-' for stderr, .ndjson for JSON lines)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace verbosity (off|phase|detail|debug)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tri-state against the actual output device.
func useColor(cmd *cobra.Command) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stderr)
	}
}
