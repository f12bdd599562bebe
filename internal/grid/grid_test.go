package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	// 1000 / 20 = 50 cells per side, origin at (100, -100)
	g, err := New(r2.Vec{X: 600, Y: 400}, 1000, 20)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	return g
}

func TestNew(t *testing.T) {
	g := newTestGrid(t)

	rows, cols := g.Dims()
	if rows != 50 || cols != 50 {
		t.Errorf("expected 50x50 grid, got %dx%d", rows, cols)
	}
	if o := g.Origin(); o.X != 100 || o.Y != -100 {
		t.Errorf("unexpected origin %v", o)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name           string
		span, cellSize float64
	}{
		{"zero cell", 100, 0},
		{"negative cell", 100, -5},
		{"NaN cell", 100, math.NaN()},
		{"zero span", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(r2.Vec{}, tt.span, tt.cellSize)
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNew_TinySpan(t *testing.T) {
	g, err := New(r2.Vec{}, 5, 20)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	if rows, cols := g.Dims(); rows != 1 || cols != 1 {
		t.Errorf("expected 1x1 grid, got %dx%d", rows, cols)
	}
}

func TestLocate(t *testing.T) {
	g := newTestGrid(t)

	tests := []struct {
		name     string
		p        r2.Vec
		row, col int
	}{
		{"origin corner", r2.Vec{X: 100, Y: -100}, 0, 0},
		{"center", r2.Vec{X: 600, Y: 400}, 25, 25},
		{"inside first cell", r2.Vec{X: 119.9, Y: -80.1}, 0, 0},
		{"far left clamps", r2.Vec{X: -1e6, Y: 400}, 25, 0},
		{"far right clamps", r2.Vec{X: 1e6, Y: 400}, 25, 49},
		{"far below clamps", r2.Vec{X: 600, Y: 1e6}, 49, 25},
		{"exact far edge clamps", r2.Vec{X: 1100, Y: 900}, 49, 49},
		{"NaN clamps to zero", r2.Vec{X: math.NaN(), Y: math.NaN()}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col := g.Locate(tt.p)
			if row != tt.row || col != tt.col {
				t.Errorf("Locate(%v) = (%d, %d), want (%d, %d)", tt.p, row, col, tt.row, tt.col)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	g := newTestGrid(t)

	min, max := g.Bounds(25, 25)
	if min.X != 600 || min.Y != 400 || max.X != 620 || max.Y != 420 {
		t.Errorf("unexpected bounds %v %v", min, max)
	}
}

func TestAssignAndUpdate(t *testing.T) {
	g := newTestGrid(t)

	g.Assign(0, r2.Vec{X: 605, Y: 405})
	g.Assign(1, r2.Vec{X: 610, Y: 410})
	g.Assign(2, r2.Vec{X: 300, Y: 300})

	cell, _ := g.CellAt(25, 25)
	if len(cell) != 2 {
		t.Fatalf("expected 2 handles in center cell, got %d", len(cell))
	}

	if g.Update(0, r2.Vec{X: 606, Y: 406}) {
		t.Error("update within the same cell should not move the handle")
	}

	if !g.Update(0, r2.Vec{X: 300, Y: 300}) {
		t.Error("update across cells should move the handle")
	}

	row, col, ok := g.CellOf(0)
	if !ok || row != 20 || col != 10 {
		t.Errorf("handle 0 in (%d, %d, %v), want (20, 10)", row, col, ok)
	}

	cell, _ = g.CellAt(25, 25)
	if len(cell) != 1 || cell[0] != 1 {
		t.Errorf("expected only handle 1 left in center cell, got %v", cell)
	}

	if g.Len() != 3 {
		t.Errorf("expected 3 handles in grid, got %d", g.Len())
	}
}

func TestAudit_SwapRemoveKeepsSlots(t *testing.T) {
	g := newTestGrid(t)

	pos := []r2.Vec{
		{X: 601, Y: 401},
		{X: 602, Y: 402},
		{X: 603, Y: 403},
		{X: 604, Y: 404},
	}
	for h, p := range pos {
		g.Assign(dynamo.Handle(h), p)
	}

	// move the handle at slot 0 out of the cell; the last handle takes its slot
	pos[0] = r2.Vec{X: 700, Y: 401}
	if !g.Audit(25, 25, 0, pos[0]) {
		t.Fatal("expected audit to relocate slot 0")
	}

	cell, _ := g.CellAt(25, 25)
	if len(cell) != 3 || cell[0] != 3 {
		t.Fatalf("expected handle 3 swapped into slot 0, got %v", cell)
	}

	// handle 3 must still be removable from its new slot
	pos[3] = r2.Vec{X: 300, Y: 300}
	if !g.Update(3, pos[3]) {
		t.Fatal("expected handle 3 to move")
	}

	cell, _ = g.CellAt(25, 25)
	if len(cell) != 2 {
		t.Fatalf("expected 2 handles left, got %v", cell)
	}
	for _, h := range cell {
		if h != 1 && h != 2 {
			t.Errorf("unexpected handle %d left in cell", h)
		}
	}

	assertConsistent(t, g, pos)
}

func TestAudit_OutOfRangeSlot(t *testing.T) {
	g := newTestGrid(t)
	g.Assign(0, r2.Vec{X: 601, Y: 401})

	if g.Audit(25, 25, 5, r2.Vec{}) {
		t.Error("audit of a missing slot should be a no-op")
	}
	if g.Audit(-1, 25, 0, r2.Vec{}) {
		t.Error("audit of an out-of-bounds cell should be a no-op")
	}
}

func TestNeighborhood(t *testing.T) {
	g := newTestGrid(t)

	tests := []struct {
		name     string
		row, col int
		want     int
	}{
		{"interior", 10, 10, 9},
		{"top-left corner", 0, 0, 4},
		{"right edge", 10, 49, 6},
		{"bottom-right corner", 49, 49, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 0
			for nr, nc := range g.Neighborhood(tt.row, tt.col) {
				if !g.InBounds(nr, nc) {
					t.Errorf("neighbour (%d, %d) out of bounds", nr, nc)
				}
				n++
			}
			if n != tt.want {
				t.Errorf("expected %d neighbours, got %d", tt.want, n)
			}
		})
	}
}

func TestNeighborhood_NoWraparound(t *testing.T) {
	g := newTestGrid(t)

	for nr, nc := range g.Neighborhood(10, 49) {
		if nc == 0 {
			t.Errorf("right-edge cell reached column 0 at row %d", nr)
		}
	}
}

func TestNeighborhood_StopsEarly(t *testing.T) {
	g := newTestGrid(t)

	n := 0
	for range g.Neighborhood(10, 10) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected iteration to stop after 2 cells, got %d", n)
	}
}

func TestSlotOf(t *testing.T) {
	g := newTestGrid(t)
	g.Assign(0, r2.Vec{X: 601, Y: 401})
	g.Assign(1, r2.Vec{X: 602, Y: 402})

	row, col, slot, ok := g.SlotOf(1)
	if !ok || row != 25 || col != 25 || slot != 1 {
		t.Fatalf("expected (25, 25) slot 1, got (%d, %d) slot %d ok=%v", row, col, slot, ok)
	}

	// auditing through the reported slot relocates the right handle
	if !g.Audit(row, col, slot, r2.Vec{X: 700, Y: 401}) {
		t.Fatal("expected audit to relocate handle 1")
	}
	if r, c, ok := g.CellOf(1); !ok || r != 25 || c != 30 {
		t.Errorf("expected handle 1 in (25, 30), got (%d, %d) ok=%v", r, c, ok)
	}
	if _, _, s, _ := g.SlotOf(0); s != 0 {
		t.Errorf("handle 0 should keep slot 0, got %d", s)
	}

	if _, _, _, ok := g.SlotOf(7); ok {
		t.Error("unassigned handle should not report a slot")
	}
}

func assertConsistent(t *testing.T, g *Grid, pos []r2.Vec) {
	t.Helper()
	seen := make(map[dynamo.Handle]int)
	rows, cols := g.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell, _ := g.CellAt(r, c)
			for _, h := range cell {
				seen[h]++
				if wr, wc := g.Locate(pos[h]); wr != r || wc != c {
					t.Errorf("handle %d listed in (%d, %d) but located in (%d, %d)", h, r, c, wr, wc)
				}
			}
		}
	}
	for h := range pos {
		if seen[dynamo.Handle(h)] != 1 {
			t.Errorf("handle %d listed %d times", h, seen[dynamo.Handle(h)])
		}
	}
}
