package main

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/imuble/emitter"
	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/pkg/config"
	"github.com/srg/imuble/selector"
	"github.com/srg/imuble/session"
)

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Connect to an IMU and stream samples",
		Long: `Scan for IMU peripherals, connect to the selected one and poll
acceleration and the device clock until Ctrl+C.

Device selection:
  --index N       connect to the N-th device of the scan listing
  --first-match   stop scanning at the first device and connect to it
  (otherwise)     prompt on a terminal, take the first device when piped

Output formats:
  csv          ax,ay,az,timestamp with two decimals
  json         one JSON object per line
  kinematics   timestamp with integrated velocity and position`,
		Example: `  imuble stream
  imuble stream --first-match --format json
  imuble stream --index 1 --poll-interval 100ms --buffer 256 > samples.csv
  imuble stream --format kinematics --tee raw.csv`,
		Args: cobra.NoArgs,
		RunE: runStream,
	}

	addScanFlags(cmd.Flags())
	cmd.Flags().Duration("poll-interval", 0, "Delay between polling cycles (default from config, 500ms)")
	cmd.Flags().Duration("connect-timeout", 0, "Connection timeout (default from config, 20s)")
	cmd.Flags().Duration("read-timeout", 0, "Per-characteristic read timeout (default from config, 5s)")
	cmd.Flags().Bool("no-cache", false, "Re-discover characteristics for every read")
	cmd.Flags().StringP("format", "f", config.FormatCSV, "Output format (csv, json, kinematics)")
	cmd.Flags().Int("index", -1, "Connect to the device at this scan index without prompting")
	cmd.Flags().Uint32("buffer", 0, "Decouple output through a drop-oldest buffer of this many samples")
	cmd.Flags().Int("limit", 0, "Stop after this many samples (0 streams until interrupted)")
	cmd.Flags().String("tee", "", "Also write raw samples as CSV to this file")

	return cmd
}

func runStream(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		if cmd.Flags().Changed("format") {
			c.OutputFormat, _ = cmd.Flags().GetString("format")
		}
	})
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

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", limit)
	}
	bufferSize, _ := cmd.Flags().GetUint32("buffer")

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	sd := session.NewShutdown(cmd.Context())
	stopSignals := sd.NotifyOn(os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var out emitter.Emitter = newFormatEmitter(cfg, cmd.OutOrStdout())
	if teePath, _ := cmd.Flags().GetString("tee"); teePath != "" {
		f, err := os.Create(teePath)
		if err != nil {
			return fmt.Errorf("open tee file: %w", err)
		}
		defer f.Close()
		out = emitter.Tee(out, emitter.NewCSV(f))
	}
	if bufferSize > 0 {
		buffered, err := emitter.NewBuffered(out, bufferSize, logger)
		if err != nil {
			return err
		}
		defer closeBuffered(buffered, logger)
		out = buffered
	}
	if limit > 0 {
		out = limitTo(out, limit, sd)
	}

	errOut := cmd.ErrOrStderr()
	sel := chooseSelector(cmd, cfg)
	var countdown *scanCountdown
	if isTerminal(errOut) {
		countdown = &scanCountdown{out: errOut, window: opts.ScanWindow}
		defer countdown.Stop()
		sel = countdown.Before(sel)
	}

	sess := session.New(opts, sel, out, logger)
	if countdown != nil {
		sess.OnStateChange(countdown.OnStateChange)
	}

	res, err := sess.Run(sd.Context())
	if err != nil {
		return err
	}
	reportOutcome(errOut, res)
	return nil
}

func newFormatEmitter(cfg *config.Config, w io.Writer) emitter.Emitter {
	switch cfg.OutputFormat {
	case config.FormatJSON:
		return emitter.NewJSONLines(w)
	case config.FormatKinematics:
		return emitter.NewKinematics(cfg.TimestampUnit, emitter.MotionWriter(w))
	default:
		return emitter.NewCSV(w)
	}
}

func chooseSelector(cmd *cobra.Command, cfg *config.Config) selector.Selector {
	if cmd.Flags().Changed("index") {
		index, _ := cmd.Flags().GetInt("index")
		return selector.Index(index)
	}
	if session.ScanPolicy(cfg.ScanPolicy) == session.PolicyFirstMatch {
		return selector.FirstMatch
	}
	return selector.Default(os.Stdin, cmd.ErrOrStderr())
}

// limitTo raises the shutdown signal once n samples went through next
func limitTo(next emitter.Emitter, n int, sd *session.Shutdown) emitter.Emitter {
	count := 0
	return emitter.SampleFunc(func(s emitter.Sample) error {
		err := next.Emit(s)
		count++
		if count >= n {
			sd.Trigger(nil)
		}
		return err
	})
}

func closeBuffered(b *emitter.Buffered, logger *logrus.Logger) {
	_ = b.Close()
	m := b.Metrics()
	logger.WithFields(logrus.Fields{
		"delivered":   m.Delivered,
		"failed":      m.Failed,
		"overwritten": m.Overwritten,
	}).Info("Output buffer drained")
}

// scanCountdown shows the scan window counting down. The line is cleared
// before the selector runs so an interactive prompt is not overdrawn.
type scanCountdown struct {
	out      io.Writer
	window   time.Duration
	progress *ProgressPrinter
}

func (c *scanCountdown) OnStateChange(from, to session.State) {
	switch {
	case to == session.Scanning:
		c.progress = NewCountdownPrinter(c.out, "Scanning for IMU devices", c.window)
		c.progress.Start()
	case from == session.Scanning:
		c.Stop()
	}
}

// Before wraps sel so the countdown stops ahead of the selection
func (c *scanCountdown) Before(sel selector.Selector) selector.Selector {
	return selector.Func(func(devices []device.DiscoveredDevice) (int, error) {
		c.Stop()
		return sel.Select(devices)
	})
}

func (c *scanCountdown) Stop() {
	if c.progress != nil {
		c.progress.Stop()
	}
}

func reportOutcome(w io.Writer, res *session.Result) {
	switch res.Outcome {
	case session.OutcomeNoDevicesFound:
		fmt.Fprintln(w, "No IMU devices found")
	case session.OutcomeInterrupted:
		fmt.Fprintln(w, "Interrupted before connecting")
	case session.OutcomeStreamed:
		fmt.Fprintf(w, "Streamed %d sample(s) from %s\n", res.Samples, res.Device.Address)
	}
}
