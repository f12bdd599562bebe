package physics

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// boundary keeps particle centres within radius minus the particle's own
// radius of center. Pinned particles are clamped like any other.
type boundary struct {
	center r2.Vec
	radius float64
}

func (b boundary) constrain(p *particle) bool {
	rel := r2.Sub(p.position, b.center)
	dist := r2.Norm(rel)
	limit := b.radius - p.radius
	if dist <= limit {
		return false
	}
	// limit > 0 since spawn rejects radii >= the boundary radius, so dist > 0
	p.position = r2.Add(b.center, r2.Scale(limit/dist, rel))
	return true
}

func (e *Engine) applyBoundary() {
	for i := range e.particles {
		e.bounds.constrain(&e.particles[i])
	}
}

// settleBoundary clamps particles the collision pass pushed outside and
// re-buckets any that change cell, so containment holds when Update returns.
func (e *Engine) settleBoundary() {
	for i := range e.particles {
		p := &e.particles[i]
		if e.bounds.constrain(p) && e.grid.Update(dynamo.Handle(i), p.position) {
			e.stats.Migrations++
		}
	}
}
