package physics

import (
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

type link struct {
	a, b   dynamo.Handle
	length float64
}

// AddLink holds a and b at length apart. Both handles must exist and differ.
func (e *Engine) AddLink(a, b dynamo.Handle, length float64) error {
	if !e.valid(a) {
		return fmt.Errorf("%w: %d", dynamo.ErrInvalidHandle, a)
	}
	if !e.valid(b) {
		return fmt.Errorf("%w: %d", dynamo.ErrInvalidHandle, b)
	}
	if a == b {
		return fmt.Errorf("%w: particle %d linked to itself", dynamo.ErrInvalidLink, a)
	}
	if !(length > 0) || math.IsInf(length, 0) {
		return fmt.Errorf("%w: rest length must be positive, got %f", dynamo.ErrInvalidLink, length)
	}

	e.links = append(e.links, link{a: a, b: b, length: length})
	return nil
}

// LinkLastTwo links the two most recently spawned particles.
func (e *Engine) LinkLastTwo(length float64) error {
	n := len(e.particles)
	if n < 2 {
		return fmt.Errorf("%w: need two particles to link, have %d", dynamo.ErrInvalidHandle, n)
	}
	return e.AddLink(dynamo.Handle(n-2), dynamo.Handle(n-1), length)
}

func (e *Engine) Links() iter.Seq[dynamo.Link] {
	return func(yield func(dynamo.Link) bool) {
		for _, l := range e.links {
			if !yield(dynamo.Link{A: l.a, B: l.b, Length: l.length}) {
				return
			}
		}
	}
}

// applyLinks makes a single pass over every link. A particle in several links
// ends the pass satisfying only the last one exactly.
func (e *Engine) applyLinks() {
	for _, l := range e.links {
		pa, pb := &e.particles[l.a], &e.particles[l.b]
		if pa.pinned && pb.pinned {
			continue
		}

		axis := r2.Sub(pa.position, pb.position)
		dist := r2.Norm(axis)
		if dist < epsilon {
			assertf(false, "link %d-%d has coincident endpoints", l.a, l.b)
			e.stats.Degenerate++
			continue
		}

		n := r2.Scale(1/dist, axis)
		delta := l.length - dist

		switch {
		case pa.pinned:
			pb.position = r2.Sub(pb.position, r2.Scale(delta, n))
		case pb.pinned:
			pa.position = r2.Add(pa.position, r2.Scale(delta, n))
		default:
			pa.position = r2.Add(pa.position, r2.Scale(delta*0.5, n))
			pb.position = r2.Sub(pb.position, r2.Scale(delta*0.5, n))
		}
	}
}
