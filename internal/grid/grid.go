// Package grid provides the uniform-cell spatial partition used by the
// collision broad phase.
//
// Cells are addressed by (row, col) with explicit bounds checks, so a cell on
// the right edge of one row is never treated as adjacent to the left edge of
// the next. Cells hold particle handles only; positions stay with the caller.
package grid

import (
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

const unassigned = -1

type Grid struct {
	origin   r2.Vec // world position of the top-left corner
	cellSize float64
	invCell  float64
	cols     int
	rows     int
	cells    [][]dynamo.Handle // row-major

	// where[h] is the flat cell index holding h, slot[h] its index in that cell.
	where []int
	slot  []int
}

// New builds a square grid of side span centred on center.
func New(center r2.Vec, span, cellSize float64) (*Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size must be positive, got %f", dynamo.ErrInvalidConfig, cellSize)
	}
	if !(span > 0) || math.IsInf(span, 0) {
		return nil, fmt.Errorf("%w: grid span must be positive, got %f", dynamo.ErrInvalidConfig, span)
	}

	n := int(span / cellSize)
	if n < 1 {
		n = 1
	}

	half := float64(n) * cellSize / 2
	cells := make([][]dynamo.Handle, n*n)
	for i := range cells {
		cells[i] = make([]dynamo.Handle, 0, 4)
	}

	return &Grid{
		origin:   r2.Vec{X: center.X - half, Y: center.Y - half},
		cellSize: cellSize,
		invCell:  1 / cellSize,
		cols:     n,
		rows:     n,
		cells:    cells,
	}, nil
}

func (g *Grid) Dims() (rows, cols int) { return g.rows, g.cols }
func (g *Grid) Origin() r2.Vec         { return g.origin }

// Locate maps a world position to its cell. Positions outside the grid are
// clamped into the nearest edge cell.
func (g *Grid) Locate(p r2.Vec) (row, col int) {
	col = clampIndex((p.X-g.origin.X)*g.invCell, g.cols)
	row = clampIndex((p.Y-g.origin.Y)*g.invCell, g.rows)
	return row, col
}

func clampIndex(f float64, n int) int {
	// NaN compares false everywhere and lands in cell 0
	if !(f >= 0) {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}

// Bounds returns the world-space rectangle covered by a cell.
func (g *Grid) Bounds(row, col int) (min, max r2.Vec) {
	min = r2.Vec{
		X: g.origin.X + float64(col)*g.cellSize,
		Y: g.origin.Y + float64(row)*g.cellSize,
	}
	max = r2.Vec{X: min.X + g.cellSize, Y: min.Y + g.cellSize}
	return min, max
}

// InBounds reports whether (row, col) addresses a cell.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// CellAt returns the handles listed in a cell. The slice is owned by the grid
// and is only valid until the next mutation.
func (g *Grid) CellAt(row, col int) ([]dynamo.Handle, bool) {
	if !g.InBounds(row, col) {
		return nil, false
	}
	return g.cells[row*g.cols+col], true
}

// CellOf returns the cell currently listing h.
func (g *Grid) CellOf(h dynamo.Handle) (row, col int, ok bool) {
	row, col, _, ok = g.SlotOf(h)
	return row, col, ok
}

// SlotOf returns the cell listing h and h's index within that cell's list.
func (g *Grid) SlotOf(h dynamo.Handle) (row, col, slot int, ok bool) {
	if int(h) < 0 || int(h) >= len(g.where) || g.where[h] == unassigned {
		return 0, 0, 0, false
	}
	idx := g.where[h]
	return idx / g.cols, idx % g.cols, g.slot[h], true
}

// Len returns the number of handles listed across all cells.
func (g *Grid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// Assign lists h in the cell containing p, removing it from its previous cell.
func (g *Grid) Assign(h dynamo.Handle, p r2.Vec) {
	g.grow(h)
	if g.where[h] != unassigned {
		g.remove(h)
	}
	row, col := g.Locate(p)
	idx := row*g.cols + col
	g.slot[h] = len(g.cells[idx])
	g.where[h] = idx
	g.cells[idx] = append(g.cells[idx], h)
}

// Audit checks the handle at (row, col, slot) against its current position and
// reassigns it if it has drifted out of the cell. Removal swaps the last
// handle of the cell into slot, so callers must not rely on cell order.
func (g *Grid) Audit(row, col, slot int, p r2.Vec) bool {
	cell, ok := g.CellAt(row, col)
	if !ok || slot < 0 || slot >= len(cell) {
		return false
	}
	return g.Update(cell[slot], p)
}

// Update reassigns h if p no longer maps to the cell listing it. It reports
// whether h moved.
func (g *Grid) Update(h dynamo.Handle, p r2.Vec) bool {
	row, col := g.Locate(p)
	if int(h) < len(g.where) && g.where[h] == row*g.cols+col {
		return false
	}
	g.Assign(h, p)
	return true
}

// Neighborhood yields every in-bounds cell of the 3x3 block centred on
// (row, col), including the cell itself, in row-major order.
func (g *Grid) Neighborhood(row, col int) iter.Seq2[int, int] {
	return func(yield func(nrow, ncol int) bool) {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				nr, nc := row+dr, col+dc
				if g.InBounds(nr, nc) && !yield(nr, nc) {
					return
				}
			}
		}
	}
}

func (g *Grid) remove(h dynamo.Handle) {
	idx, s := g.where[h], g.slot[h]
	cell := g.cells[idx]
	last := len(cell) - 1
	if s != last {
		moved := cell[last]
		cell[s] = moved
		g.slot[moved] = s
	}
	g.cells[idx] = cell[:last]
	g.where[h] = unassigned
}

func (g *Grid) grow(h dynamo.Handle) {
	for int(h) >= len(g.where) {
		g.where = append(g.where, unassigned)
		g.slot = append(g.slot, 0)
	}
}
