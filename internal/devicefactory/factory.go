// Package devicefactory hands out the platform device.Adapter. The factory is a
// variable so tests can substitute a mock adapter.
package devicefactory

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/internal/device"
	goble "github.com/srg/imuble/internal/device/go-ble"
)

// AdapterFactory acquires the default adapter
var AdapterFactory = func(logger *logrus.Logger) (device.Adapter, error) {
	a, err := goble.NewAdapter(logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}
