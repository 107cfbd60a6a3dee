package goble

import (
	"context"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/internal/device"
)

// await runs a blocking go-ble call and returns early when ctx is done.
// go-ble client calls take no context, so an abandoned call keeps running
// until the stack gives up on it.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	resultCh := make(chan result, 1)

	go func() {
		val, err := fn()
		resultCh <- result{val: val, err: err}
	}()

	select {
	case r := <-resultCh:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", device.ErrTimeout, context.Cause(ctx))
	}
}

type peripheral struct {
	client  ble.Client
	address string
	logger  *logrus.Logger
}

func (p *peripheral) Address() string { return p.address }

// DiscoverServices enumerates every primary service in stack order
func (p *peripheral) DiscoverServices(ctx context.Context) ([]device.Service, error) {
	bleServices, err := await(ctx, func() ([]*ble.Service, error) {
		return p.client.DiscoverServices(nil)
	})
	if err != nil {
		return nil, device.NormalizeError(err)
	}

	result := make([]device.Service, 0, len(bleServices))
	for _, s := range bleServices {
		u, err := fromBLEUUID(s.UUID)
		if err != nil {
			p.logger.WithError(err).Debug("Skipping service with unparsable UUID")
			continue
		}
		result = append(result, &service{uuid: u, svc: s, peripheral: p})
	}
	return result, nil
}

type service struct {
	uuid       uuid.UUID
	svc        *ble.Service
	peripheral *peripheral
}

func (s *service) UUID() uuid.UUID { return s.uuid }

func (s *service) Characteristics(ctx context.Context) ([]device.Characteristic, error) {
	client := s.peripheral.client
	bleChars, err := await(ctx, func() ([]*ble.Characteristic, error) {
		return client.DiscoverCharacteristics(nil, s.svc)
	})
	if err != nil {
		return nil, device.NormalizeError(err)
	}

	result := make([]device.Characteristic, 0, len(bleChars))
	for _, c := range bleChars {
		u, err := fromBLEUUID(c.UUID)
		if err != nil {
			s.peripheral.logger.WithFields(logrus.Fields{
				"service_uuid": s.uuid.String(),
				"error":        err,
			}).Debug("Skipping characteristic with unparsable UUID")
			continue
		}
		result = append(result, &characteristic{uuid: u, char: c, client: client})
	}
	return result, nil
}

type characteristic struct {
	uuid   uuid.UUID
	char   *ble.Characteristic
	client ble.Client
}

func (c *characteristic) UUID() uuid.UUID { return c.uuid }

func (c *characteristic) IsReadable() bool {
	return c.char.Property&ble.CharRead != 0
}

// Read performs a point-in-time read bounded by ctx
func (c *characteristic) Read(ctx context.Context) ([]byte, error) {
	data, err := await(ctx, func() ([]byte, error) {
		return c.client.ReadCharacteristic(c.char)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read characteristic %s: %w", device.ErrIO, c.uuid, device.NormalizeError(err))
	}
	return data, nil
}
