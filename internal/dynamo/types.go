package dynamo

import (
	"fmt"
	"image/color"
	"iter"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Handle addresses a particle in an engine. Handles are assigned densely from
// zero and never reused.
type Handle int32

// Body is the read-only view of a particle handed to renderers and metrics.
type Body struct {
	Position r2.Vec
	Velocity r2.Vec // units/s over the last sub-step
	Radius   float64
	Color    color.RGBA
	Pinned   bool
}

// Link is the read-only view of a distance constraint.
type Link struct {
	A, B   Handle
	Length float64
}

// Contact is an overlapping pair found by the broad phase.
type Contact struct {
	A, B  Handle
	Depth float64
}

// Stats counts solver events during the most recent Update call.
type Stats struct {
	SubSteps   int
	Collisions int
	Degenerate int
	Migrations int
}

// World is the read side of an engine.
type World interface {
	Len() int
	Body(h Handle) (Body, bool)
	Bodies() iter.Seq2[Handle, Body]
	Links() iter.Seq[Link]
	Contacts() iter.Seq[Contact]
	Boundary() (center r2.Vec, radius float64)
	Stats() Stats
}

// Integrator advances a single particle by one sub-step using its current and
// previous position. It returns the new position and the new previous position.
type Integrator interface {
	Step(pos, prev, acc r2.Vec, dt float64) (r2.Vec, r2.Vec)
}

type Metric interface {
	Name() string
	Observe(w World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(w World, frame int, t float64)
}

// Config describes the world an engine simulates.
type Config struct {
	Center         r2.Vec
	BoundaryRadius float64
	CellSize       float64
	SubSteps       int
	Gravity        r2.Vec
}

// GridSpan is the side of the square region covered by the spatial grid,
// relative to the boundary radius.
const GridSpan = 2.5

func DefaultConfig() Config {
	return Config{
		Center:         r2.Vec{X: 600, Y: 400},
		BoundaryRadius: 400,
		CellSize:       20,
		SubSteps:       8,
		Gravity:        r2.Vec{X: 0, Y: 1000},
	}
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case !IsFinite(c.Center):
		return fmt.Errorf("%w: center must be finite", ErrInvalidConfig)
	case !(c.BoundaryRadius > 0) || math.IsInf(c.BoundaryRadius, 0):
		return fmt.Errorf("%w: boundary radius must be positive, got %f", ErrInvalidConfig, c.BoundaryRadius)
	case !(c.CellSize > 0) || math.IsInf(c.CellSize, 0):
		return fmt.Errorf("%w: cell size must be positive, got %f", ErrInvalidConfig, c.CellSize)
	case c.SubSteps < 1:
		return fmt.Errorf("%w: sub-steps must be at least 1, got %d", ErrInvalidConfig, c.SubSteps)
	case !IsFinite(c.Gravity):
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidConfig)
	}
	return nil
}

func IsFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// SimError records a failure at a specific frame of a batch run.
type SimError struct {
	Frame   int
	Time    float64
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %s", e.Frame, e.Time, e.Message)
}
