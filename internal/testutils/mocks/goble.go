// Package mocks provides testify doubles for the go-ble interfaces used by the
// adapter layer. Each double embeds the interface it stands in for, so only the
// methods the adapter calls are implemented; calling anything else panics.
package mocks

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// MockDevice is a ble.Device double
type MockDevice struct {
	ble.Device
	mock.Mock
}

func (m *MockDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	args := m.Called(ctx, allowDup, h)
	return args.Error(0)
}

func (m *MockDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	args := m.Called(ctx, a)
	client, _ := args.Get(0).(ble.Client)
	return client, args.Error(1)
}

func (m *MockDevice) Stop() error {
	args := m.Called()
	return args.Error(0)
}

// MockClient is a ble.Client double
type MockClient struct {
	ble.Client
	mock.Mock
}

func (m *MockClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	args := m.Called(filter)
	svcs, _ := args.Get(0).([]*ble.Service)
	return svcs, args.Error(1)
}

func (m *MockClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	args := m.Called(filter, s)
	chars, _ := args.Get(0).([]*ble.Characteristic)
	return chars, args.Error(1)
}

func (m *MockClient) ReadCharacteristic(c *ble.Characteristic) ([]byte, error) {
	args := m.Called(c)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockClient) CancelConnection() error {
	args := m.Called()
	return args.Error(0)
}

// MockAdvertisement is a ble.Advertisement double
type MockAdvertisement struct {
	ble.Advertisement
	mock.Mock
}

func (m *MockAdvertisement) LocalName() string {
	return m.Called().String(0)
}

func (m *MockAdvertisement) Services() []ble.UUID {
	svcs, _ := m.Called().Get(0).([]ble.UUID)
	return svcs
}

func (m *MockAdvertisement) RSSI() int {
	return m.Called().Int(0)
}

func (m *MockAdvertisement) Addr() ble.Addr {
	addr, _ := m.Called().Get(0).(ble.Addr)
	return addr
}

// NewAdvertisement builds an advertisement double answering every accessor
// the adapter reads
func NewAdvertisement(name, address string, rssi int, services ...ble.UUID) *MockAdvertisement {
	adv := &MockAdvertisement{}
	adv.On("LocalName").Return(name).Maybe()
	adv.On("Services").Return(services).Maybe()
	adv.On("RSSI").Return(rssi).Maybe()
	adv.On("Addr").Return(ble.NewAddr(address)).Maybe()
	return adv
}
