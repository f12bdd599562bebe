package integrators

import "gonum.org/v1/gonum/spatial/r2"

// Verlet is semi-implicit position Verlet. Velocity is implied by the
// difference between the current and previous position, so any positional
// correction applied between steps feeds back into motion.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(pos, prev, acc r2.Vec, dt float64) (r2.Vec, r2.Vec) {
	velocity := r2.Sub(pos, prev)
	next := r2.Add(pos, r2.Add(velocity, r2.Scale(dt*dt, acc)))
	return next, pos
}

// Velocity returns the implied velocity in units per second for a sub-step of
// length dt. It is zero for dt <= 0.
func Velocity(pos, prev r2.Vec, dt float64) r2.Vec {
	if dt <= 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/dt, r2.Sub(pos, prev))
}
