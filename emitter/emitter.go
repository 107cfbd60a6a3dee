// Package emitter delivers decoded IMU samples to a consumer.
//
// The session calls Emit synchronously from its polling task, once per
// successful cycle. A failing consumer never ends the session: Deliver logs
// returned errors and recovered panics and moves on.
package emitter

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Sample is one polling cycle's worth of readings
type Sample struct {
	AccelX    float32 `json:"accel_x"`
	AccelY    float32 `json:"accel_y"`
	AccelZ    float32 `json:"accel_z"`
	Timestamp uint64  `json:"timestamp"`
}

// Emitter consumes samples
type Emitter interface {
	Emit(s Sample) error
}

// Func adapts a host callback of the emit(ax, ay, az, ts) shape
type Func func(ax, ay, az float32, ts uint64) error

func (f Func) Emit(s Sample) error {
	return f(s.AccelX, s.AccelY, s.AccelZ, s.Timestamp)
}

// SampleFunc adapts a plain function taking a Sample
type SampleFunc func(s Sample) error

func (f SampleFunc) Emit(s Sample) error {
	return f(s)
}

// Discard drops every sample
var Discard Emitter = SampleFunc(func(Sample) error { return nil })

// Deliver hands s to e, converting a panic into an error. Failures are logged
// at Warn and returned for callers that count them.
func Deliver(e Emitter, s Sample, logger *logrus.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emitter panicked: %v", r)
		}
		if err != nil && logger != nil {
			logger.WithFields(logrus.Fields{
				"timestamp": s.Timestamp,
				"error":     err,
			}).Warn("Sample delivery failed")
		}
	}()
	return e.Emit(s)
}

// Tee fans each sample out to every emitter in order. All emitters see the
// sample even when an earlier one fails; the first error is returned.
func Tee(emitters ...Emitter) Emitter {
	return SampleFunc(func(s Sample) error {
		var first error
		for _, e := range emitters {
			if err := e.Emit(s); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
