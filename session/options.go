package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/srg/imuble/internal/device"
)

// ScanPolicy decides when the scan phase stops accumulating devices
type ScanPolicy string

const (
	// PolicyWindow scans for the whole window and lets the selector choose
	PolicyWindow ScanPolicy = "window"
	// PolicyFirstMatch stops at the first matching advertisement
	PolicyFirstMatch ScanPolicy = "first-match"
)

// Options carries the UUIDs and timings a session runs with
type Options struct {
	ServiceUUID uuid.UUID
	AccelX      uuid.UUID
	AccelY      uuid.UUID
	AccelZ      uuid.UUID
	Time        uuid.UUID

	ScanWindow     time.Duration
	ScanPolicy     ScanPolicy
	PollInterval   time.Duration
	AdapterTimeout time.Duration // bound on waiting for the radio to power on
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration // per locate+read step

	// CacheCharacteristics keeps located handles for the lifetime of a connection
	CacheCharacteristics bool
}

// DefaultOptions returns the stock IMU layout and timings
func DefaultOptions() Options {
	return Options{
		ServiceUUID:          device.MustParseUUID(IMUServiceUUID),
		AccelX:               device.MustParseUUID(AccelXUUID),
		AccelY:               device.MustParseUUID(AccelYUUID),
		AccelZ:               device.MustParseUUID(AccelZUUID),
		Time:                 device.MustParseUUID(CurrentTimeUUID),
		ScanWindow:           5 * time.Second,
		ScanPolicy:           PolicyWindow,
		PollInterval:         500 * time.Millisecond,
		AdapterTimeout:       10 * time.Second,
		ConnectTimeout:       20 * time.Second,
		ReadTimeout:          5 * time.Second,
		CacheCharacteristics: true,
	}
}

// Validate checks that every field is usable
func (o Options) Validate() error {
	for name, u := range map[string]uuid.UUID{
		"service": o.ServiceUUID,
		"accel_x": o.AccelX,
		"accel_y": o.AccelY,
		"accel_z": o.AccelZ,
		"time":    o.Time,
	} {
		if u == uuid.Nil {
			return fmt.Errorf("%s UUID is not set", name)
		}
	}

	for name, d := range map[string]time.Duration{
		"scan window":     o.ScanWindow,
		"poll interval":   o.PollInterval,
		"adapter timeout": o.AdapterTimeout,
		"connect timeout": o.ConnectTimeout,
		"read timeout":    o.ReadTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}

	switch o.ScanPolicy {
	case PolicyWindow, PolicyFirstMatch:
	default:
		return fmt.Errorf("unknown scan policy %q (want %q or %q)", o.ScanPolicy, PolicyWindow, PolicyFirstMatch)
	}
	return nil
}
