package physics

import (
	"iter"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// resolveCollisions walks every cell as a source and tests its particles
// against each in-bounds cell of its 3x3 neighbourhood. Positions are always
// read fresh from the store. Particles pushed across a cell edge are queued
// and re-bucketed before the next source cell so later pairs in the same pass
// see current buckets; cell lists are never mutated while being ranged over.
//
// Each pair is visited from both sides. Once separated the second visit finds
// no overlap and leaves the pair alone.
func (e *Engine) resolveCollisions() {
	rows, cols := e.grid.Dims()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			src, _ := e.grid.CellAt(row, col)
			if len(src) == 0 {
				continue
			}
			for nr, nc := range e.grid.Neighborhood(row, col) {
				dst, _ := e.grid.CellAt(nr, nc)
				for _, a := range src {
					for _, b := range dst {
						if a == b {
							continue
						}
						if e.collide(a, b) {
							e.markMoved(a)
							e.markMoved(b)
						}
					}
				}
			}
			e.commitMoves()
		}
	}
}

// collide separates a and b if they overlap. It reports whether either moved.
func (e *Engine) collide(a, b dynamo.Handle) bool {
	pa, pb := &e.particles[a], &e.particles[b]
	if pa.pinned && pb.pinned {
		return false
	}

	axis := r2.Sub(pa.position, pb.position)
	dist := r2.Norm(axis)
	minDist := pa.radius + pb.radius
	if dist >= minDist {
		return false
	}
	if dist < epsilon {
		assertf(false, "particles %d and %d are coincident", a, b)
		e.stats.Degenerate++
		return false
	}

	n := r2.Scale(1/dist, axis)
	delta := minDist - dist

	shareA, shareB := collisionShares(pa, pb)
	if shareA > 0 {
		pa.position = r2.Add(pa.position, r2.Scale(delta*shareA, n))
	}
	if shareB > 0 {
		pb.position = r2.Sub(pb.position, r2.Scale(delta*shareB, n))
	}
	e.stats.Collisions++
	return true
}

// collisionShares splits a correction so that each particle moves in
// proportion to the other's radius. A pinned particle never moves.
func collisionShares(pa, pb *particle) (float64, float64) {
	switch {
	case pa.pinned:
		return 0, 1
	case pb.pinned:
		return 1, 0
	}
	sum := pa.radius + pb.radius
	return pb.radius / sum, pa.radius / sum
}

func (e *Engine) markMoved(h dynamo.Handle) {
	if e.particles[h].pinned {
		return
	}
	row, col := e.grid.Locate(e.particles[h].position)
	if r, c, ok := e.grid.CellOf(h); ok && r == row && c == col {
		return
	}
	e.pending = append(e.pending, h)
}

// commitMoves audits each queued handle at its current slot. A handle queued
// twice is already in place by its second audit.
func (e *Engine) commitMoves() {
	for _, h := range e.pending {
		row, col, slot, ok := e.grid.SlotOf(h)
		if !ok {
			continue
		}
		if e.grid.Audit(row, col, slot, e.particles[h].position) {
			e.stats.Migrations++
		}
	}
	e.pending = e.pending[:0]
}

// Contacts yields every overlapping pair found through the grid, each pair
// once with A < B, as of the last Update.
func (e *Engine) Contacts() iter.Seq[dynamo.Contact] {
	return func(yield func(dynamo.Contact) bool) {
		rows, cols := e.grid.Dims()
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				src, _ := e.grid.CellAt(row, col)
				if len(src) == 0 {
					continue
				}
				for nr, nc := range e.grid.Neighborhood(row, col) {
					dst, _ := e.grid.CellAt(nr, nc)
					for _, a := range src {
						for _, b := range dst {
							if a >= b {
								continue
							}
							pa, pb := &e.particles[a], &e.particles[b]
							depth := pa.radius + pb.radius - r2.Norm(r2.Sub(pa.position, pb.position))
							if depth <= 0 {
								continue
							}
							if !yield(dynamo.Contact{A: a, B: b, Depth: depth}) {
								return
							}
						}
					}
				}
			}
		}
	}
}
