package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/srg/imuble/pkg/config"
	"github.com/srg/imuble/session"
)

// addScanFlags registers the flags shared by every command that scans
func addScanFlags(flags *pflag.FlagSet) {
	flags.Duration("scan-window", 0, "How long to scan for devices (default from config, 5s)")
	flags.Duration("adapter-timeout", 0, "How long to wait for the Bluetooth radio (default from config, 10s)")
	flags.Bool("first-match", false, "Stop scanning at the first matching device and connect to it")
}

// loadConfig reads --config, applies command-line overrides and then the
// command's own overrides before validating
func loadConfig(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if profile, _ := flags.GetString("profile"); profile != "" {
		cfg.Profile = profile
	}

	// Changed is false for flags the command does not define
	durations := map[string]*time.Duration{
		"scan-window":     &cfg.ScanWindow,
		"adapter-timeout": &cfg.AdapterTimeout,
		"poll-interval":   &cfg.PollInterval,
		"connect-timeout": &cfg.ConnectTimeout,
		"read-timeout":    &cfg.ReadTimeout,
	}
	for name, target := range durations {
		if flags.Changed(name) {
			*target, _ = flags.GetDuration(name)
		}
	}

	if flags.Changed("first-match") {
		if firstMatch, _ := flags.GetBool("first-match"); firstMatch {
			cfg.ScanPolicy = string(session.PolicyFirstMatch)
		} else {
			cfg.ScanPolicy = string(session.PolicyWindow)
		}
	}
	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		cfg.CacheCharacteristics = !noCache
	}
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// useColors reports whether output to w may carry ANSI colours
func useColors(w any) bool {
	return isTerminal(w) && !color.NoColor
}
