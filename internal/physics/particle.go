package physics

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

type particle struct {
	position     r2.Vec
	previous     r2.Vec
	acceleration r2.Vec
	radius       float64
	color        color.RGBA
	pinned       bool
}

func newParticle(pos r2.Vec, radius float64, c color.RGBA, pinned bool) particle {
	return particle{
		position: pos,
		previous: pos,
		radius:   radius,
		color:    c,
		pinned:   pinned,
	}
}

// accelerate is a no-op for pinned particles.
func (p *particle) accelerate(a r2.Vec) {
	if p.pinned {
		return
	}
	p.acceleration = r2.Add(p.acceleration, a)
}
