package testutils

import (
	"context"

	"github.com/google/uuid"
	"github.com/srg/imuble/internal/device"
	"github.com/stretchr/testify/mock"
)

// MockAdapter is a testify double for device.Adapter
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) WaitAvailable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAdapter) Scan(ctx context.Context, serviceUUID uuid.UUID, handler func(device.DiscoveredDevice)) error {
	return m.Called(ctx, serviceUUID, handler).Error(0)
}

func (m *MockAdapter) Connect(ctx context.Context, dev device.DiscoveredDevice) (device.Peripheral, error) {
	args := m.Called(ctx, dev)
	p, _ := args.Get(0).(device.Peripheral)
	return p, args.Error(1)
}

func (m *MockAdapter) Disconnect(p device.Peripheral) error {
	return m.Called(p).Error(0)
}

// OnScanReport makes Scan report devs, one advertisement each, then block until
// the scan context ends the way a real radio does
func (m *MockAdapter) OnScanReport(devs ...device.DiscoveredDevice) *mock.Call {
	return m.On("Scan", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		handler := args.Get(2).(func(device.DiscoveredDevice))
		for _, d := range devs {
			handler(d)
		}
		<-ctx.Done()
	}).Return(nil)
}
