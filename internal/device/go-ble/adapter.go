// Package goble implements device.Adapter on top of github.com/go-ble/ble.
package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/internal/device"
)

// DefaultRetryInterval is how often WaitAvailable retries a radio that reported powered off
const DefaultRetryInterval = 250 * time.Millisecond

// Adapter owns the platform ble.Device
type Adapter struct {
	mu            sync.Mutex
	dev           ble.Device
	logger        *logrus.Logger
	retryInterval time.Duration
}

// NewAdapter acquires the default radio. A radio that exists but is powered off
// yields an Adapter that is not yet available; any other failure is ErrAdapterUnavailable.
func NewAdapter(logger *logrus.Logger) (*Adapter, error) {
	if logger == nil {
		logger = logrus.New()
	}

	a := &Adapter{logger: logger, retryInterval: DefaultRetryInterval}
	if err := a.acquire(); err != nil {
		if !errors.Is(err, device.ErrBluetoothOff) {
			return nil, fmt.Errorf("%w: %w", device.ErrAdapterUnavailable, err)
		}
		logger.WithError(err).Debug("Bluetooth adapter present but not powered")
	}
	return a, nil
}

// SetRetryInterval changes the WaitAvailable polling period
func (a *Adapter) SetRetryInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.retryInterval = d
}

func (a *Adapter) acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return nil
	}
	dev, err := DeviceFactory()
	if err != nil {
		return device.NormalizeError(err)
	}
	a.dev = dev
	return nil
}

func (a *Adapter) radio() (ble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev == nil {
		return nil, device.ErrAdapterNotReady
	}
	return a.dev, nil
}

// WaitAvailable blocks until the radio is usable or ctx is done
func (a *Adapter) WaitAvailable(ctx context.Context) error {
	a.mu.Lock()
	interval := a.retryInterval
	a.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := a.acquire()
		if err == nil {
			return nil
		}
		if !errors.Is(err, device.ErrBluetoothOff) {
			return fmt.Errorf("%w: %w", device.ErrAdapterNotReady, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", device.ErrAdapterNotReady, context.Cause(ctx))
		case <-ticker.C:
			a.logger.Debug("Waiting for Bluetooth adapter to power on...")
		}
	}
}

// Scan reports advertisements that list serviceUUID until ctx is done. Context
// cancellation and deadline are the normal way a scan ends and are not errors.
func (a *Adapter) Scan(ctx context.Context, serviceUUID uuid.UUID, handler func(device.DiscoveredDevice)) error {
	dev, err := a.radio()
	if err != nil {
		return err
	}

	filter := toBLEUUID(serviceUUID)
	a.logger.WithField("service_uuid", serviceUUID.String()).Debug("Starting BLE scan")

	err = dev.Scan(ctx, true, func(adv ble.Advertisement) {
		// ble.Contains treats a nil list as a match
		svcs := adv.Services()
		if len(svcs) == 0 || !ble.Contains(svcs, filter) {
			return
		}
		handler(device.DiscoveredDevice{
			Name:    adv.LocalName(),
			Address: adv.Addr().String(),
			RSSI:    adv.RSSI(),
		})
	})

	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", device.NormalizeError(err))
	}
	return nil
}

// Connect dials the peripheral; ctx bounds the dial
func (a *Adapter) Connect(ctx context.Context, d device.DiscoveredDevice) (device.Peripheral, error) {
	dev, err := a.radio()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrConnectFailed, err)
	}

	a.logger.WithFields(logrus.Fields{
		"address": d.Address,
		"name":    d.DisplayName(),
	}).Info("Connecting to BLE device...")

	client, err := dev.Dial(ctx, ble.NewAddr(d.Address))
	if err != nil {
		return nil, fmt.Errorf("%w: device with address %q: %w", device.ErrConnectFailed, d.Address, device.NormalizeError(err))
	}

	a.logger.WithField("address", d.Address).Info("BLE device connected")
	return &peripheral{client: client, address: d.Address, logger: a.logger}, nil
}

// Disconnect cancels the connection held by p
func (a *Adapter) Disconnect(p device.Peripheral) error {
	bp, ok := p.(*peripheral)
	if !ok {
		return fmt.Errorf("%w: peripheral %T was not connected by this adapter", device.ErrUnsupported, p)
	}
	if err := bp.client.CancelConnection(); err != nil {
		return fmt.Errorf("failed to disconnect from %s: %w", bp.address, err)
	}
	a.logger.WithField("address", bp.address).Info("BLE device disconnected")
	return nil
}

// Close releases the radio
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev == nil {
		return nil
	}
	err := a.dev.Stop()
	a.dev = nil
	return err
}
