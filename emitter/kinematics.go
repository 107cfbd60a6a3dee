package emitter

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/srg/imuble/internal/kinematics"
)

// Kinematics integrates samples into velocity and position and forwards each
// Motion. Samples must arrive in device-timestamp order.
type Kinematics struct {
	mu         sync.Mutex
	integrator *kinematics.Integrator
	onMotion   func(kinematics.Motion) error
}

// NewKinematics creates an integrating emitter; unit is the device timestamp tick
func NewKinematics(unit time.Duration, onMotion func(kinematics.Motion) error) *Kinematics {
	return &Kinematics{
		integrator: kinematics.NewIntegrator(unit),
		onMotion:   onMotion,
	}
}

func (k *Kinematics) Emit(s Sample) error {
	k.mu.Lock()
	m := k.integrator.Step(kinematics.Vec3{
		X: float64(s.AccelX),
		Y: float64(s.AccelY),
		Z: float64(s.AccelZ),
	}, s.Timestamp)
	k.mu.Unlock()

	if k.onMotion == nil {
		return nil
	}
	return k.onMotion(m)
}

// MotionWriter prints one motion record per line
func MotionWriter(w io.Writer) func(kinematics.Motion) error {
	return func(m kinematics.Motion) error {
		_, err := fmt.Fprintf(w, "%d v=(%.3f,%.3f,%.3f) p=(%.3f,%.3f,%.3f)\n",
			m.Timestamp,
			m.Velocity.X, m.Velocity.Y, m.Velocity.Z,
			m.Position.X, m.Position.Y, m.Position.Z)
		return err
	}
}
