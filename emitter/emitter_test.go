package emitter_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/srg/imuble/emitter"
	"github.com/srg/imuble/internal/kinematics"
	"github.com/srg/imuble/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	var got []float32
	var gotTS uint64
	e := emitter.Func(func(ax, ay, az float32, ts uint64) error {
		got = []float32{ax, ay, az}
		gotTS = ts
		return nil
	})

	require.NoError(t, e.Emit(emitter.Sample{AccelX: 0.1, AccelY: -0.2, AccelZ: 9.8, Timestamp: 42}))
	assert.Equal(t, []float32{0.1, -0.2, 9.8}, got)
	assert.Equal(t, uint64(42), gotTS)
}

func TestDeliver(t *testing.T) {
	helper := testutils.NewTestHelper(t)

	t.Run("returned error is logged", func(t *testing.T) {
		helper.Logs.Reset()
		err := emitter.Deliver(emitter.SampleFunc(func(emitter.Sample) error {
			return errors.New("consumer full")
		}), emitter.Sample{Timestamp: 7}, helper.Logger)

		assert.EqualError(t, err, "consumer full")
		assert.Contains(t, helper.Logs.String(), "Sample delivery failed")
		assert.Contains(t, helper.Logs.String(), "timestamp=7")
	})

	t.Run("panic is recovered", func(t *testing.T) {
		var err error
		assert.NotPanics(t, func() {
			err = emitter.Deliver(emitter.SampleFunc(func(emitter.Sample) error {
				panic("host callback blew up")
			}), emitter.Sample{}, helper.Logger)
		})
		assert.ErrorContains(t, err, "host callback blew up")
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NoError(t, emitter.Deliver(emitter.Discard, emitter.Sample{}, nil))
	})
}

func TestTee(t *testing.T) {
	var a, b int
	failing := emitter.SampleFunc(func(emitter.Sample) error { a++; return errors.New("first") })
	counting := emitter.SampleFunc(func(emitter.Sample) error { b++; return nil })

	err := emitter.Tee(failing, counting).Emit(emitter.Sample{})
	assert.EqualError(t, err, "first")
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b, "later emitters MUST still see the sample")
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	e := emitter.NewCSV(&buf)

	require.NoError(t, e.Emit(emitter.Sample{AccelX: 0.123, AccelY: -9.81, AccelZ: 1, Timestamp: 10000}))
	require.NoError(t, e.Emit(emitter.Sample{AccelX: 0, AccelY: 0, AccelZ: 0, Timestamp: 18446744073709551615}))

	testutils.NewTextAsserter(t).Assert(buf.String(), `
0.12,-9.81,1.00,10000
0.00,0.00,0.00,18446744073709551615
`)
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	e := emitter.NewJSONLines(&buf)

	require.NoError(t, e.Emit(emitter.Sample{AccelX: 1, AccelY: 2, AccelZ: 3, Timestamp: 4}))
	require.NoError(t, e.Emit(emitter.Sample{AccelX: -1, Timestamp: 5}))

	testutils.NewJSONAsserter(t).AssertLines(buf.String(),
		`{"accel_x": 1, "accel_y": 2, "accel_z": 3, "timestamp": 4}`,
		`{"accel_x": -1, "accel_y": 0, "accel_z": 0, "timestamp": 5}`,
	)
}

func TestKinematics(t *testing.T) {
	var motions []kinematics.Motion
	e := emitter.NewKinematics(time.Millisecond, func(m kinematics.Motion) error {
		motions = append(motions, m)
		return nil
	})

	require.NoError(t, e.Emit(emitter.Sample{AccelX: 2, Timestamp: 0}))
	require.NoError(t, e.Emit(emitter.Sample{AccelX: 2, Timestamp: 500}))

	require.Len(t, motions, 2)
	assert.InDelta(t, 1.0, motions[1].Velocity.X, 1e-9)
	assert.InDelta(t, 0.25, motions[1].Position.X, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, emitter.MotionWriter(&buf)(motions[1]))
	assert.Equal(t, "500 v=(1.000,0.000,0.000) p=(0.250,0.000,0.000)\n", buf.String())
}

func TestBuffered(t *testing.T) {
	helper := testutils.NewTestHelper(t)

	t.Run("rejects bad sizes", func(t *testing.T) {
		_, err := emitter.NewBuffered(emitter.Discard, 0, helper.Logger)
		assert.Error(t, err)
		_, err = emitter.NewBuffered(emitter.Discard, emitter.MaxBufferSize+1, helper.Logger)
		assert.Error(t, err)
		_, err = emitter.NewBuffered(nil, 8, helper.Logger)
		assert.Error(t, err)
	})

	t.Run("delivers in order and flushes on close", func(t *testing.T) {
		var mu sync.Mutex
		var got []uint64
		b, err := emitter.NewBuffered(emitter.SampleFunc(func(s emitter.Sample) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, s.Timestamp)
			return nil
		}), 64, helper.Logger)
		require.NoError(t, err)

		for i := uint64(1); i <= 10; i++ {
			require.NoError(t, b.Emit(emitter.Sample{Timestamp: i}))
		}
		require.NoError(t, b.Close())

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
		assert.Equal(t, int64(10), b.Metrics().Delivered)
		assert.ErrorIs(t, b.Emit(emitter.Sample{}), emitter.ErrClosed)
	})

	t.Run("drops oldest behind a stalled consumer", func(t *testing.T) {
		// TEST SCENARIO: consumer blocks on the first sample while 100 more are produced
		release := make(chan struct{})
		entered := make(chan struct{}, 1)
		var mu sync.Mutex
		var got []uint64

		b, err := emitter.NewBuffered(emitter.SampleFunc(func(s emitter.Sample) error {
			select {
			case entered <- struct{}{}:
				<-release
			default:
			}
			mu.Lock()
			got = append(got, s.Timestamp)
			mu.Unlock()
			return nil
		}), 4, helper.Logger)
		require.NoError(t, err)

		require.NoError(t, b.Emit(emitter.Sample{Timestamp: 0}))
		<-entered
		for i := uint64(1); i <= 100; i++ {
			require.NoError(t, b.Emit(emitter.Sample{Timestamp: i}), "Emit MUST NOT block on a stalled consumer")
		}
		close(release)
		require.NoError(t, b.Close())

		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, got)
		assert.Less(t, len(got), 101, "older samples MUST be overwritten")
		assert.Equal(t, uint64(100), got[len(got)-1], "newest sample MUST survive")
	})

	t.Run("consumer failures are counted", func(t *testing.T) {
		b, err := emitter.NewBuffered(emitter.SampleFunc(func(emitter.Sample) error {
			return errors.New("nope")
		}), 8, helper.Logger)
		require.NoError(t, err)

		require.NoError(t, b.Emit(emitter.Sample{}))
		require.NoError(t, b.Close())
		assert.Equal(t, int64(1), b.Metrics().Failed)
	})
}
