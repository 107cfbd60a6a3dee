package device_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/srg/imuble/internal/device"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	t.Run("formats single uuid", func(t *testing.T) {
		err := &device.NotFoundError{Resource: "characteristic", UUIDs: []string{"026080c9-dc3a-401b-829c-2ee3b5565200"}}
		assert.Equal(t, `characteristic "026080c9-dc3a-401b-829c-2ee3b5565200" not found`, err.Error())
	})

	t.Run("formats service scoped uuid", func(t *testing.T) {
		err := &device.NotFoundError{Resource: "characteristic", UUIDs: []string{"180f", "2a19"}}
		assert.Equal(t, `characteristic "2a19" not found in service "180f"`, err.Error())
	})

	t.Run("formats without uuid", func(t *testing.T) {
		err := &device.NotFoundError{Resource: "service"}
		assert.Equal(t, "service not found", err.Error())
	})

	t.Run("matches sentinel through wrapping", func(t *testing.T) {
		err := fmt.Errorf("read accel_x: %w", &device.NotFoundError{Resource: "characteristic", UUIDs: []string{"x"}})
		assert.ErrorIs(t, err, device.ErrCharacteristicNotFound)

		var nf *device.NotFoundError
		assert.True(t, errors.As(err, &nf))
		assert.Equal(t, []string{"x"}, nf.UUIDs)
	})

	t.Run("service not found does not match characteristic sentinel", func(t *testing.T) {
		err := &device.NotFoundError{Resource: "service"}
		assert.NotErrorIs(t, err, device.ErrCharacteristicNotFound)
	})
}

func TestPayloadError(t *testing.T) {
	err := &device.PayloadError{Kind: "u64", Want: []int{4, 8}, Got: 3}
	assert.Equal(t, "malformed payload: expected 4 or 8 bytes for u64, got 3", err.Error())
	assert.ErrorIs(t, err, device.ErrMalformedPayload)
	assert.NotErrorIs(t, err, device.ErrIO)
}

func TestIsPollingError(t *testing.T) {
	assert.True(t, device.IsPollingError(fmt.Errorf("x: %w", device.ErrNotReadable)))
	assert.True(t, device.IsPollingError(&device.PayloadError{Kind: "f32", Want: []int{4}, Got: 2}))
	assert.True(t, device.IsPollingError(fmt.Errorf("%w: timeout", device.ErrIO)))
	assert.True(t, device.IsPollingError(&device.NotFoundError{Resource: "characteristic"}))
	assert.False(t, device.IsPollingError(device.ErrConnectFailed))
	assert.False(t, device.IsPollingError(nil))
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectIs   error
		expectSame bool
	}{
		{
			name:     "darwin invalid state",
			err:      errors.New("central manager has invalid state: have=4 want=5: is Bluetooth turned on?"),
			expectIs: device.ErrBluetoothOff,
		},
		{
			name:     "generic turned off",
			err:      errors.New("Bluetooth is turned off"),
			expectIs: device.ErrBluetoothOff,
		},
		{
			name:       "unknown passes through",
			err:        errors.New("hci0: no such device"),
			expectSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := device.NormalizeError(tt.err)
			if tt.expectSame {
				assert.Same(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.expectIs)
			assert.Contains(t, got.Error(), tt.err.Error(), "original message MUST be preserved")
		})
	}

	assert.NoError(t, device.NormalizeError(nil))
}
