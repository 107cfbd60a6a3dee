package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/srg/imuble/internal/device"
)

// CharacteristicConfig describes a fake characteristic.
// Values are returned by successive reads; the last one repeats.
type CharacteristicConfig struct {
	UUID       string   `json:"uuid"`
	Properties string   `json:"properties,omitempty"` // e.g. "read,notify"
	Values     [][]byte `json:"values,omitempty"`
}

// ServiceConfig describes a fake service
type ServiceConfig struct {
	UUID            string                 `json:"uuid"`
	Characteristics []CharacteristicConfig `json:"characteristics,omitempty"`
}

// PeripheralConfig is the complete profile of a fake peripheral
type PeripheralConfig struct {
	Address  string          `json:"address"`
	Services []ServiceConfig `json:"services"`
}

// PeripheralBuilder builds in-memory device.Peripheral fakes
type PeripheralBuilder struct {
	profile     PeripheralConfig
	discoverErr error
	readErrs    map[string]readFailure
}

type readFailure struct {
	after int
	err   error
}

// NewPeripheralBuilder creates an empty builder
func NewPeripheralBuilder() *PeripheralBuilder {
	return &PeripheralBuilder{
		profile:  PeripheralConfig{Address: "aa:bb:cc:dd:ee:01"},
		readErrs: make(map[string]readFailure),
	}
}

// WithAddress sets the peripheral address
func (b *PeripheralBuilder) WithAddress(address string) *PeripheralBuilder {
	b.profile.Address = address
	return b
}

// WithService adds a service to the profile
func (b *PeripheralBuilder) WithService(uuid string) *PeripheralBuilder {
	b.profile.Services = append(b.profile.Services, ServiceConfig{UUID: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralBuilder) WithCharacteristic(uuid, properties string, values ...[]byte) *PeripheralBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}

	last := len(b.profile.Services) - 1
	b.profile.Services[last].Characteristics = append(b.profile.Services[last].Characteristics, CharacteristicConfig{
		UUID:       uuid,
		Properties: properties,
		Values:     values,
	})
	return b
}

// WithReadError makes every read of charUUID fail with err
func (b *PeripheralBuilder) WithReadError(charUUID string, err error) *PeripheralBuilder {
	return b.WithReadErrorAfter(charUUID, 0, err)
}

// WithReadErrorAfter lets the first n reads of charUUID succeed, then fails with err
func (b *PeripheralBuilder) WithReadErrorAfter(charUUID string, n int, err error) *PeripheralBuilder {
	b.readErrs[device.MustParseUUID(charUUID).String()] = readFailure{after: n, err: err}
	return b
}

// WithDiscoverError makes service discovery fail
func (b *PeripheralBuilder) WithDiscoverError(err error) *PeripheralBuilder {
	b.discoverErr = err
	return b
}

// FromJSON fills the profile from JSON
func (b *PeripheralBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *PeripheralBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)
	if err := json.Unmarshal([]byte(jsonStr), &b.profile); err != nil {
		panic(fmt.Sprintf("FromJSON: invalid profile: %v", err))
	}
	return b
}

// Build creates the fake peripheral
func (b *PeripheralBuilder) Build() *FakePeripheral {
	p := &FakePeripheral{address: b.profile.Address, discoverErr: b.discoverErr}
	for _, sc := range b.profile.Services {
		svc := &FakeService{uuid: device.MustParseUUID(sc.UUID)}
		for _, cc := range sc.Characteristics {
			u := device.MustParseUUID(cc.UUID)
			char := &FakeCharacteristic{
				uuid:     u,
				readable: hasProperty(cc.Properties, "read"),
				values:   cc.Values,
			}
			if f, ok := b.readErrs[u.String()]; ok {
				char.failAfter = f.after
				char.readErr = f.err
			}
			svc.chars = append(svc.chars, char)
		}
		p.services = append(p.services, svc)
	}
	return p
}

func hasProperty(properties, name string) bool {
	for _, p := range strings.Split(properties, ",") {
		if strings.EqualFold(strings.TrimSpace(p), name) {
			return true
		}
	}
	return false
}

// FakePeripheral is an in-memory device.Peripheral
type FakePeripheral struct {
	address     string
	services    []*FakeService
	discoverErr error

	mu            sync.Mutex
	discoverCalls int
}

func (p *FakePeripheral) Address() string { return p.address }

func (p *FakePeripheral) DiscoverServices(ctx context.Context) ([]device.Service, error) {
	p.mu.Lock()
	p.discoverCalls++
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.discoverErr != nil {
		return nil, p.discoverErr
	}

	result := make([]device.Service, len(p.services))
	for i, s := range p.services {
		result[i] = s
	}
	return result, nil
}

// DiscoverCalls returns how many times services were enumerated
func (p *FakePeripheral) DiscoverCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.discoverCalls
}

// Characteristic returns the fake characteristic with the given UUID, or nil
func (p *FakePeripheral) Characteristic(charUUID string) *FakeCharacteristic {
	u := device.MustParseUUID(charUUID)
	for _, s := range p.services {
		for _, c := range s.chars {
			if c.uuid == u {
				return c
			}
		}
	}
	return nil
}

// FakeService is an in-memory device.Service
type FakeService struct {
	uuid  uuid.UUID
	chars []*FakeCharacteristic
}

func (s *FakeService) UUID() uuid.UUID { return s.uuid }

func (s *FakeService) Characteristics(ctx context.Context) ([]device.Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]device.Characteristic, len(s.chars))
	for i, c := range s.chars {
		result[i] = c
	}
	return result, nil
}

// FakeCharacteristic is an in-memory device.Characteristic
type FakeCharacteristic struct {
	uuid      uuid.UUID
	readable  bool
	values    [][]byte
	readErr   error
	failAfter int

	mu    sync.Mutex
	reads int
}

func (c *FakeCharacteristic) UUID() uuid.UUID  { return c.uuid }
func (c *FakeCharacteristic) IsReadable() bool { return c.readable }

func (c *FakeCharacteristic) Read(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.readErr != nil && c.reads > c.failAfter {
		return nil, c.readErr
	}
	if len(c.values) == 0 {
		return nil, nil
	}

	idx := c.reads - 1
	if idx >= len(c.values) {
		idx = len(c.values) - 1
	}
	return c.values[idx], nil
}

// Reads returns the number of Read calls so far
func (c *FakeCharacteristic) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
