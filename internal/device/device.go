package device

import (
	"context"

	"github.com/google/uuid"
)

// DiscoveredDevice is a scan result: an ephemeral record that lives in the scan
// accumulation list until one of them is handed to Adapter.Connect.
type DiscoveredDevice struct {
	Name    string // empty when the peripheral does not advertise a local name
	Address string // opaque platform reference (MAC on Linux, CoreBluetooth UUID on macOS)
	RSSI    int
}

// HasName reports whether the device advertised a local name
func (d DiscoveredDevice) HasName() bool {
	return d.Name != ""
}

// DisplayName returns the advertised name or "(unknown)"
func (d DiscoveredDevice) DisplayName() string {
	if d.Name == "" {
		return "(unknown)"
	}
	return d.Name
}

// Adapter is the exclusive handle to the local BLE radio.
type Adapter interface {
	// WaitAvailable blocks until the radio reports it is usable or ctx is done.
	WaitAvailable(ctx context.Context) error

	// Scan reports advertisements carrying serviceUUID until ctx is done.
	// The handler may be called repeatedly for the same address.
	Scan(ctx context.Context, serviceUUID uuid.UUID, handler func(DiscoveredDevice)) error

	Connect(ctx context.Context, dev DiscoveredDevice) (Peripheral, error)
	Disconnect(p Peripheral) error
}

// Peripheral is a connected device
type Peripheral interface {
	Address() string
	DiscoverServices(ctx context.Context) ([]Service, error)
}

// Service represents a GATT service
type Service interface {
	UUID() uuid.UUID
	Characteristics(ctx context.Context) ([]Characteristic, error)
}

// CharacteristicInfo represents characteristic metadata
type CharacteristicInfo interface {
	UUID() uuid.UUID
	IsReadable() bool
}

// CharacteristicReader provides point-in-time reads
type CharacteristicReader interface {
	Read(ctx context.Context) ([]byte, error)
}

// Characteristic combines info + read
type Characteristic interface {
	CharacteristicInfo
	CharacteristicReader
}
