package locator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/internal/locator"
	"github.com/srg/imuble/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	imuService = "0b91a798-23b1-4369-9d45-a3a26d936904"
	accelX     = "026080c9-dc3a-401b-829c-2ee3b5565200"
	accelY     = "e0a0b53e-5c53-4acf-bf79-39d2982362e9"
)

func TestWalkerLocate(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	ctx := context.Background()

	t.Run("no match", func(t *testing.T) {
		p := testutils.CreateMockPeripheral().
			WithService(imuService).
			WithCharacteristic(accelY, "read", testutils.F32(0)).
			Build()

		_, err := locator.NewWalker(helper.Logger).Locate(ctx, p, device.MustParseUUID(accelX))
		require.ErrorIs(t, err, device.ErrCharacteristicNotFound)

		var nf *device.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, []string{accelX}, nf.UUIDs)
	})

	t.Run("match without read property", func(t *testing.T) {
		p := testutils.CreateMockPeripheral().
			WithService(imuService).
			WithCharacteristic(accelX, "notify").
			Build()

		_, err := locator.NewWalker(helper.Logger).Locate(ctx, p, device.MustParseUUID(accelX))
		assert.ErrorIs(t, err, device.ErrNotReadable)
		assert.NotErrorIs(t, err, device.ErrCharacteristicNotFound)
	})

	t.Run("readable match", func(t *testing.T) {
		p := testutils.CreateMockPeripheral().
			WithService("180f").
			WithCharacteristic("2a19", "read", []byte{80}).
			WithService(imuService).
			WithCharacteristic(accelY, "read", testutils.F32(2)).
			WithCharacteristic(accelX, "read", testutils.F32(1)).
			Build()

		char, err := locator.NewWalker(helper.Logger).Locate(ctx, p, device.MustParseUUID(accelX))
		require.NoError(t, err)
		assert.Equal(t, accelX, char.UUID().String())

		data, err := char.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, testutils.F32(1), data)
	})

	t.Run("first match wins", func(t *testing.T) {
		// TEST SCENARIO: the UUID appears in two services; the first enumerated is not readable
		p := testutils.CreateMockPeripheral().
			WithService("180f").
			WithCharacteristic(accelX, "notify").
			WithService(imuService).
			WithCharacteristic(accelX, "read", testutils.F32(1)).
			Build()

		_, err := locator.NewWalker(helper.Logger).Locate(ctx, p, device.MustParseUUID(accelX))
		assert.ErrorIs(t, err, device.ErrNotReadable, "enumeration MUST stop at the first match")
	})

	t.Run("discovery failure is i/o", func(t *testing.T) {
		cause := errors.New("att: request timed out")
		p := testutils.CreateMockPeripheral().WithDiscoverError(cause).Build()

		_, err := locator.NewWalker(helper.Logger).Locate(ctx, p, device.MustParseUUID(accelX))
		assert.ErrorIs(t, err, device.ErrIO)
		assert.ErrorIs(t, err, cause)
		assert.True(t, device.IsPollingError(err))
	})

	t.Run("empty gatt database", func(t *testing.T) {
		p := testutils.CreateMockPeripheral().Build()
		_, err := locator.NewWalker(helper.Logger).Locate(ctx, p, device.MustParseUUID(accelX))
		assert.ErrorIs(t, err, device.ErrCharacteristicNotFound)
	})
}

func TestCache(t *testing.T) {
	helper := testutils.NewTestHelper(t)
	ctx := context.Background()

	build := func() *testutils.FakePeripheral {
		return testutils.CreateMockPeripheral().
			WithService(imuService).
			WithCharacteristic(accelX, "read", testutils.F32(1)).
			WithCharacteristic(accelY, "notify").
			Build()
	}

	t.Run("hit skips the walk", func(t *testing.T) {
		p := build()
		cache := locator.NewCache(locator.NewWalker(helper.Logger), helper.Logger)

		first, err := cache.Locate(ctx, p, device.MustParseUUID(accelX))
		require.NoError(t, err)
		second, err := cache.Locate(ctx, p, device.MustParseUUID(accelX))
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, p.DiscoverCalls(), "second lookup MUST be served from cache")
		assert.Equal(t, 1, cache.Len())
		assert.Contains(t, helper.Logs.String(), "char_uuid=026080c9", "cache logs MUST use the short UUID form")
	})

	t.Run("failures are not cached", func(t *testing.T) {
		p := build()
		cache := locator.NewCache(locator.NewWalker(helper.Logger), helper.Logger)

		for i := 0; i < 2; i++ {
			_, err := cache.Locate(ctx, p, device.MustParseUUID(accelY))
			assert.ErrorIs(t, err, device.ErrNotReadable)
		}
		assert.Equal(t, 2, p.DiscoverCalls())
		assert.Zero(t, cache.Len())
	})

	t.Run("invalidate drops the address", func(t *testing.T) {
		p := build()
		other := testutils.CreateMockPeripheral().
			WithAddress("aa:bb:cc:dd:ee:02").
			WithService(imuService).
			WithCharacteristic(accelX, "read", testutils.F32(1)).
			Build()
		cache := locator.NewCache(locator.NewWalker(helper.Logger), helper.Logger)

		_, err := cache.Locate(ctx, p, device.MustParseUUID(accelX))
		require.NoError(t, err)
		_, err = cache.Locate(ctx, other, device.MustParseUUID(accelX))
		require.NoError(t, err)
		require.Equal(t, 2, cache.Len())

		cache.Invalidate(p.Address())
		assert.Equal(t, 1, cache.Len())

		// Re-resolving the same key after Invalidate MUST return, over repeated reconnects
		done := make(chan error, 1)
		go func() {
			for i := 0; i < 2; i++ {
				if _, err := cache.Locate(ctx, p, device.MustParseUUID(accelX)); err != nil {
					done <- err
					return
				}
				cache.Invalidate(p.Address())
			}
			done <- nil
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Locate after Invalidate MUST NOT block")
		}
		assert.Equal(t, 3, p.DiscoverCalls())
		assert.Equal(t, 1, cache.Len(), "the other address MUST stay cached")

		_, err = cache.Locate(ctx, other, device.MustParseUUID(accelX))
		require.NoError(t, err)
		assert.Equal(t, 1, other.DiscoverCalls())
	})
}
