// Package kinematics dead-reckons velocity and position from successive
// acceleration samples using constant-acceleration equations of motion between
// device timestamps.
package kinematics

import (
	"time"
)

// Vec3 is a tri-axis quantity
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// Velocity returns v = u + a·t
func Velocity(accel, prevVel Vec3, dt float64) Vec3 {
	return prevVel.Add(accel.Scale(dt))
}

// Displacement returns s = u·t + ½·a·t²
func Displacement(accel, prevVel Vec3, dt float64) Vec3 {
	return prevVel.Scale(dt).Add(accel.Scale(0.5 * dt * dt))
}

// Position returns p = p₀ + s
func Position(accel, prevVel, prevPos Vec3, dt float64) Vec3 {
	return prevPos.Add(Displacement(accel, prevVel, dt))
}

// Motion is the integrated state after one sample
type Motion struct {
	Timestamp uint64
	Accel     Vec3
	Velocity  Vec3
	Position  Vec3
	Elapsed   time.Duration // since the previous sample
}

// Integrator accumulates motion across samples. Not safe for concurrent use.
type Integrator struct {
	unit     time.Duration
	started  bool
	lastTS   uint64
	velocity Vec3
	position Vec3
}

// NewIntegrator creates an integrator whose device timestamps tick once per unit.
// A non-positive unit defaults to one millisecond.
func NewIntegrator(unit time.Duration) *Integrator {
	if unit <= 0 {
		unit = time.Millisecond
	}
	return &Integrator{unit: unit}
}

// Step folds in one sample. The first sample, and any sample whose timestamp
// does not advance (a counter reset or wrap), only re-anchors the clock.
func (in *Integrator) Step(accel Vec3, ts uint64) Motion {
	m := Motion{Timestamp: ts, Accel: accel}

	if in.started && ts > in.lastTS {
		m.Elapsed = time.Duration(ts-in.lastTS) * in.unit
		dt := m.Elapsed.Seconds()
		in.position = Position(accel, in.velocity, in.position, dt)
		in.velocity = Velocity(accel, in.velocity, dt)
	}

	in.started = true
	in.lastTS = ts
	m.Velocity = in.velocity
	m.Position = in.position
	return m
}
