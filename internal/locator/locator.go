// Package locator resolves a characteristic UUID on a connected peripheral to a
// readable handle by walking the GATT database.
package locator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/internal/device"
)

// Locator resolves a target characteristic on a connected peripheral
type Locator interface {
	Locate(ctx context.Context, p device.Peripheral, target uuid.UUID) (device.Characteristic, error)
}

// Walker performs the full discovery walk on every call
type Walker struct {
	logger *logrus.Logger
}

// NewWalker creates an uncached locator
func NewWalker(logger *logrus.Logger) *Walker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Walker{logger: logger}
}

// Locate enumerates services, then each service's characteristics, and returns the
// first characteristic whose UUID equals target. Enumeration order is whatever the
// platform stack reports.
func (w *Walker) Locate(ctx context.Context, p device.Peripheral, target uuid.UUID) (device.Characteristic, error) {
	services, err := p.DiscoverServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: discover services: %w", device.ErrIO, err)
	}

	for _, svc := range services {
		chars, err := svc.Characteristics(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: discover characteristics of service %s: %w", device.ErrIO, svc.UUID(), err)
		}

		for _, char := range chars {
			if char.UUID() != target {
				continue
			}

			w.logger.WithFields(logrus.Fields{
				"service_uuid": svc.UUID().String(),
				"char_uuid":    target.String(),
				"readable":     char.IsReadable(),
			}).Debug("Located characteristic")

			if !char.IsReadable() {
				return nil, fmt.Errorf("%w: %s", device.ErrNotReadable, target)
			}
			return char, nil
		}
	}

	return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{target.String()}}
}
