//go:build test

package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/internal/devicefactory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAdapterSuite swaps devicefactory.AdapterFactory for a MockAdapter for the
// duration of every test and restores it afterwards.
//
//	type StreamSuite struct {
//	    testutils.MockAdapterSuite
//	}
//
//	func (s *StreamSuite) TestStreams() {
//	    p := s.WithPeripheral().WithService(...).WithCharacteristic(...).Build()
//	    s.Adapter.OnScanReport(dev)
//	    s.Adapter.On("Connect", mock.Anything, dev).Return(p, nil)
//	    ...
//	}
//
// Suites that need a different acquisition outcome set AcquireErr before the
// code under test asks the factory for an adapter.
type MockAdapterSuite struct {
	suite.Suite

	Adapter    *MockAdapter
	Logger     *logrus.Logger
	AcquireErr error

	originalFactory func(*logrus.Logger) (device.Adapter, error)
	acquisitions    int
}

func (s *MockAdapterSuite) SetupTest() {
	s.Adapter = &MockAdapter{}
	s.AcquireErr = nil
	s.acquisitions = 0

	s.Logger = logrus.New()
	s.Logger.SetLevel(logrus.PanicLevel)

	s.originalFactory = devicefactory.AdapterFactory
	devicefactory.AdapterFactory = func(*logrus.Logger) (device.Adapter, error) {
		s.acquisitions++
		if s.AcquireErr != nil {
			return nil, s.AcquireErr
		}
		return s.Adapter, nil
	}
}

func (s *MockAdapterSuite) TearDownTest() {
	devicefactory.AdapterFactory = s.originalFactory
}

// Acquisitions returns how many times the factory was asked for an adapter
func (s *MockAdapterSuite) Acquisitions() int {
	return s.acquisitions
}

// WithPeripheral starts a fake peripheral profile
func (s *MockAdapterSuite) WithPeripheral() *PeripheralBuilder {
	return NewPeripheralBuilder()
}

// ExpectAvailable makes WaitAvailable succeed immediately
func (s *MockAdapterSuite) ExpectAvailable() *mock.Call {
	return s.Adapter.On("WaitAvailable", mock.Anything).Return(nil)
}
