package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/selector"
	"github.com/srg/imuble/session"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List IMU devices in range",
		Long: `Scan for peripherals advertising the IMU service of the active profile
and list them in first-seen order. The index printed next to each device is
the value 'imuble stream --index' expects.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	addScanFlags(cmd.Flags())
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")

	return cmd
}

// scanEntry is the JSON shape of one scan result
type scanEntry struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	RSSI    int    `json:"rssi"`
}

func runScan(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	opts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	sd := session.NewShutdown(cmd.Context())
	stopSignals := sd.NotifyOn(os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	errOut := cmd.ErrOrStderr()
	var progress *ProgressPrinter
	if isTerminal(errOut) {
		progress = NewCountdownPrinter(errOut, "Scanning for IMU devices", opts.ScanWindow)
		progress.Start()
	}

	devices, err := session.New(opts, nil, nil, logger).Discover(sd.Context())
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return displayDevicesJSON(out, devices)
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices discovered")
		return nil
	}
	return selector.List(out, devices, useColors(out))
}

func displayDevicesJSON(w io.Writer, devices []device.DiscoveredDevice) error {
	entries := make([]scanEntry, len(devices))
	for i, d := range devices {
		entries[i] = scanEntry{Index: i, Name: d.Name, Address: d.Address, RSSI: d.RSSI}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
