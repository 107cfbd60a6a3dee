// Package session drives one BLE IMU streaming session: adapter acquisition,
// filtered scanning, device selection, connection, the polling loop and
// teardown, as an explicit state machine.
//
// A session owns its adapter and at most one connected peripheral. All BLE
// work happens on the goroutine running Run; Start runs it in the background.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/imuble/emitter"
	"github.com/srg/imuble/internal/codec"
	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/internal/devicefactory"
	"github.com/srg/imuble/internal/groutine"
	"github.com/srg/imuble/internal/locator"
	"github.com/srg/imuble/selector"
)

// Result describes how a session ended
type Result struct {
	State   State
	Outcome Outcome
	Devices []device.DiscoveredDevice // scan results, in first-seen order
	Device  *device.DiscoveredDevice  // the selected device, if any
	Samples int
	Err     error
}

// Session is a single-use streaming session
type Session struct {
	opts     Options
	selector selector.Selector
	emitter  emitter.Emitter
	logger   *logrus.Logger

	mu            sync.RWMutex
	state         State
	used          bool
	onStateChange func(from, to State)
}

// New creates a session. A nil selector picks the first match; a nil emitter discards samples.
func New(opts Options, sel selector.Selector, em emitter.Emitter, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	if sel == nil {
		sel = selector.FirstMatch
	}
	if em == nil {
		em = emitter.Discard
	}
	return &Session{
		opts:     opts,
		selector: sel,
		emitter:  em,
		logger:   logger,
		state:    Idle,
	}
}

// OnStateChange registers a hook called synchronously on every transition.
// Must be set before Run.
func (s *Session) OnStateChange(fn func(from, to State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	if !CanTransition(from, to) {
		s.mu.Unlock()
		s.logger.WithFields(logrus.Fields{
			"from": from.String(),
			"to":   to.String(),
		}).Error("Illegal session state transition ignored")
		return
	}
	s.state = to
	hook := s.onStateChange
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Info("Session state changed")

	if hook != nil {
		hook(from, to)
	}
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used {
		return fmt.Errorf("session already ran")
	}
	s.used = true
	return nil
}

// finish moves to the final state and fills in the result
func (s *Session) finish(res *Result, state State, outcome Outcome, err error) (*Result, error) {
	s.transition(state)
	res.State = s.State()
	res.Outcome = outcome
	res.Err = err

	entry := s.logger.WithFields(logrus.Fields{
		"state":   res.State.String(),
		"outcome": outcome.String(),
		"samples": res.Samples,
	})
	if err != nil {
		entry.WithError(err).Info("Session finished with error")
	} else {
		entry.Info("Session finished")
	}
	return res, err
}

// Run executes the whole lifecycle and blocks until the session ends.
// Cancelling ctx raises the shutdown signal. The returned error is the same
// as Result.Err; NoDevicesFound and a shutdown while streaming are not errors.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	if err := s.opts.Validate(); err != nil {
		return s.finish(&Result{}, Failed, OutcomeNone, err)
	}

	sd := NewShutdown(ctx)
	defer sd.release()

	return s.run(sd, false)
}

// Discover runs acquisition and the scan phase only and returns what was found
func (s *Session) Discover(ctx context.Context) ([]device.DiscoveredDevice, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	if err := s.opts.Validate(); err != nil {
		_, err = s.finish(&Result{}, Failed, OutcomeNone, err)
		return nil, err
	}

	sd := NewShutdown(ctx)
	defer sd.release()

	res, err := s.run(sd, true)
	return res.Devices, err
}

func (s *Session) run(sd *Shutdown, discoverOnly bool) (*Result, error) {
	res := &Result{}

	adapter, err := s.acquireAdapter(sd)
	if err != nil {
		switch {
		case sd.Fired():
			return s.finish(res, Terminated, OutcomeInterrupted, nil)
		case errors.Is(err, device.ErrAdapterUnavailable):
			return s.finish(res, Failed, OutcomeAdapterUnavailable, err)
		default:
			return s.finish(res, Failed, OutcomeAdapterNotReady, err)
		}
	}
	if c, ok := adapter.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				s.logger.WithError(err).Warn("Failed to release Bluetooth adapter")
			}
		}()
	}
	s.transition(AdapterReady)

	s.transition(Scanning)
	devices, err := s.scan(sd, adapter)
	res.Devices = devices
	if sd.Fired() {
		return s.finish(res, Terminated, OutcomeInterrupted, nil)
	}
	if err != nil {
		return s.finish(res, Failed, OutcomeScanFailed, err)
	}
	if len(devices) == 0 {
		return s.finish(res, Terminated, OutcomeNoDevicesFound, nil)
	}
	if discoverOnly {
		return s.finish(res, Terminated, OutcomeDiscovered, nil)
	}

	idx, err := s.selector.Select(devices)
	if err == nil && (idx < 0 || idx >= len(devices)) {
		err = fmt.Errorf("%d is out of range, %d device(s) found", idx, len(devices))
	}
	if err != nil {
		if !errors.Is(err, device.ErrInvalidSelection) {
			err = fmt.Errorf("%w: %w", device.ErrInvalidSelection, err)
		}
		return s.finish(res, Terminated, OutcomeInvalidSelection, err)
	}
	if sd.Fired() {
		return s.finish(res, Terminated, OutcomeInterrupted, nil)
	}

	selected := devices[idx]
	res.Device = &selected
	s.transition(DeviceSelected)
	s.logger.WithFields(logrus.Fields{
		"address": selected.Address,
		"name":    selected.DisplayName(),
		"rssi":    selected.RSSI,
	}).Info("Device selected")

	p, err := s.connect(sd, adapter, selected)
	if err != nil {
		return s.finish(res, Failed, OutcomeConnectFailed, err)
	}
	s.transition(Connected)

	s.transition(Polling)
	samples, pollErr := s.poll(sd, p)
	res.Samples = samples

	s.transition(Disconnecting)
	if err := adapter.Disconnect(p); err != nil {
		s.logger.WithFields(logrus.Fields{
			"address": p.Address(),
			"error":   err,
		}).Warn("Disconnect failed")
	}

	if pollErr != nil {
		return s.finish(res, Terminated, OutcomeReadFailed, pollErr)
	}
	return s.finish(res, Terminated, OutcomeStreamed, nil)
}

func (s *Session) acquireAdapter(sd *Shutdown) (device.Adapter, error) {
	adapter, err := devicefactory.AdapterFactory(s.logger)
	if err != nil {
		if !errors.Is(err, device.ErrAdapterUnavailable) {
			err = fmt.Errorf("%w: %w", device.ErrAdapterUnavailable, err)
		}
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(sd.Context(), s.opts.AdapterTimeout)
	defer cancel()

	if err := adapter.WaitAvailable(waitCtx); err != nil {
		if c, ok := adapter.(io.Closer); ok {
			_ = c.Close()
		}
		if !errors.Is(err, device.ErrAdapterNotReady) {
			err = fmt.Errorf("%w: %w", device.ErrAdapterNotReady, err)
		}
		return nil, err
	}
	return adapter, nil
}

// scan runs the adapter scan on a producer goroutine and races its results
// against the first-match trigger, the window deadline and the shutdown signal.
func (s *Session) scan(sd *Shutdown, adapter device.Adapter) ([]device.DiscoveredDevice, error) {
	scanCtx, cancel := context.WithTimeout(sd.Context(), s.opts.ScanWindow)
	defer cancel()

	found := make(chan device.DiscoveredDevice, 16)
	scanDone := make(chan error, 1)

	groutine.Go(scanCtx, "imu-scan", func(ctx context.Context) {
		err := adapter.Scan(ctx, s.opts.ServiceUUID, func(d device.DiscoveredDevice) {
			select {
			case found <- d:
			case <-ctx.Done():
			}
		})
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"goroutine": groutine.GetName(ctx),
				"error":     err,
			}).Debug("Scan producer stopped")
		}
		scanDone <- err
	})

	s.logger.WithFields(logrus.Fields{
		"service_uuid": s.opts.ServiceUUID.String(),
		"window":       s.opts.ScanWindow,
		"policy":       string(s.opts.ScanPolicy),
	}).Info("Scanning for devices...")

	seen := orderedmap.New[string, device.DiscoveredDevice]()
	record := func(d device.DiscoveredDevice) {
		prev, present := seen.Get(d.Address)
		if present && !d.HasName() {
			d.Name = prev.Name
		}
		seen.Set(d.Address, d)
		if !present {
			s.logger.WithFields(logrus.Fields{
				"address": d.Address,
				"name":    d.DisplayName(),
				"rssi":    d.RSSI,
			}).Debug("Discovered device")
		}
	}

	var scanErr error
loop:
	for {
		select {
		case d := <-found:
			record(d)
			if s.opts.ScanPolicy == PolicyFirstMatch {
				cancel()
				scanErr = <-scanDone
				break loop
			}
		case scanErr = <-scanDone:
			// drain whatever the producer queued before returning
			for drained := false; !drained; {
				select {
				case d := <-found:
					record(d)
				default:
					drained = true
				}
			}
			break loop
		case <-sd.Done():
			cancel()
			<-scanDone
			break loop
		}
	}

	devices := make([]device.DiscoveredDevice, 0, seen.Len())
	for pair := seen.Oldest(); pair != nil; pair = pair.Next() {
		devices = append(devices, pair.Value)
		if s.opts.ScanPolicy == PolicyFirstMatch {
			break
		}
	}

	s.logger.WithField("device_count", len(devices)).Info("BLE scan completed")
	if scanErr != nil {
		return devices, fmt.Errorf("scan failed: %w", scanErr)
	}
	return devices, nil
}

// connect dials on a context detached from the shutdown signal so an
// interrupt never leaves a half-open link; ConnectTimeout bounds it.
func (s *Session) connect(sd *Shutdown, adapter device.Adapter, d device.DiscoveredDevice) (device.Peripheral, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(sd.Context()), s.opts.ConnectTimeout)
	defer cancel()

	p, err := adapter.Connect(ctx, d)
	if err != nil {
		if !errors.Is(err, device.ErrConnectFailed) {
			err = fmt.Errorf("%w: %w", device.ErrConnectFailed, err)
		}
		return nil, err
	}
	return p, nil
}

// poll runs cycles until the shutdown signal or the first failed cycle.
// Shutdown is observed only at the inter-cycle delay.
func (s *Session) poll(sd *Shutdown, p device.Peripheral) (int, error) {
	var loc locator.Locator = locator.NewWalker(s.logger)
	if s.opts.CacheCharacteristics {
		cache := locator.NewCache(loc, s.logger)
		defer cache.Invalidate(p.Address())
		loc = cache
	}

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	samples := 0
	for {
		sample, err := s.cycle(sd, p, loc)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"address": p.Address(),
				"samples": samples,
				"error":   err,
			}).Error("Polling cycle failed")
			sd.Trigger(err)
			return samples, err
		}

		_ = emitter.Deliver(s.emitter, sample, s.logger)
		samples++

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.opts.PollInterval)

		select {
		case <-sd.Done():
			s.logger.WithFields(logrus.Fields{
				"samples": samples,
				"cause":   sd.Cause(),
			}).Info("Polling stopped by shutdown signal")
			return samples, nil
		case <-timer.C:
		}
	}
}

// cycle performs the four reads strictly in order; any failure drops the whole sample
func (s *Session) cycle(sd *Shutdown, p device.Peripheral, loc locator.Locator) (emitter.Sample, error) {
	r := &reader{
		ctx:     context.WithoutCancel(sd.Context()),
		p:       p,
		loc:     loc,
		timeout: s.opts.ReadTimeout,
	}

	var sample emitter.Sample
	var err error

	if sample.AccelX, err = read(r, "accel_x", s.opts.AccelX, codec.DecodeF32); err != nil {
		return emitter.Sample{}, err
	}
	if sample.AccelY, err = read(r, "accel_y", s.opts.AccelY, codec.DecodeF32); err != nil {
		return emitter.Sample{}, err
	}
	if sample.AccelZ, err = read(r, "accel_z", s.opts.AccelZ, codec.DecodeF32); err != nil {
		return emitter.Sample{}, err
	}
	if sample.Timestamp, err = read(r, "time", s.opts.Time, codec.DecodeU64); err != nil {
		return emitter.Sample{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"accel_x":   sample.AccelX,
		"accel_y":   sample.AccelY,
		"accel_z":   sample.AccelZ,
		"timestamp": sample.Timestamp,
	}).Debug("Sample decoded")
	return sample, nil
}

// reader performs locate+read steps; ctx is detached from the shutdown signal
// so a read in flight completes or times out on its own
type reader struct {
	ctx     context.Context
	p       device.Peripheral
	loc     locator.Locator
	timeout time.Duration
}

func read[T any](r *reader, name string, target uuid.UUID, decode func([]byte) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	char, err := r.loc.Locate(ctx, r.p, target)
	if err != nil {
		return zero, classify(fmt.Errorf("locate %s: %w", name, err))
	}
	data, err := char.Read(ctx)
	if err != nil {
		return zero, classify(fmt.Errorf("read %s: %w", name, err))
	}
	v, err := decode(data)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// classify folds stack errors outside the polling taxonomy into ErrIO
func classify(err error) error {
	if device.IsPollingError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", device.ErrIO, err)
}
