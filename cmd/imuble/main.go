package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree; tests get a fresh tree with fresh flags
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imuble",
		Short: "Stream accelerometer samples from a BLE IMU",
		Long: `Stream accelerometer samples from a Bluetooth Low Energy IMU peripheral:

- Scan for peripherals advertising the IMU service
- Pick one interactively, by index, or take the first match
- Poll acceleration on three axes and the device clock
- Print samples as CSV, JSON lines, or integrated velocity and position

Samples go to stdout; prompts, progress and logs go to stderr.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", formatVersion(version), commit, date),
	}

	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(newStreamCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newProfilesCmd())

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("profile", "", "Device profile to use (see 'imuble profiles')")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
