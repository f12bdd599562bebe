package physics

import (
	"fmt"
	"image/color"
	"iter"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/grid"
	"github.com/san-kum/verletsim/internal/integrators"
	"gonum.org/v1/gonum/spatial/r2"
)

// epsilon is the smallest separation that can be normalised safely.
const epsilon = 1e-9

type Engine struct {
	cfg        dynamo.Config
	integrator dynamo.Integrator
	bounds     boundary
	particles  []particle
	links      []link
	grid       *grid.Grid

	// handles moved by the collision pass, waiting to be re-bucketed
	pending []dynamo.Handle

	subDt float64
	stats dynamo.Stats
}

func New(cfg dynamo.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := grid.New(cfg.Center, cfg.BoundaryRadius*dynamo.GridSpan, cfg.CellSize)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:        cfg,
		integrator: integrators.NewVerlet(),
		bounds:     boundary{center: cfg.Center, radius: cfg.BoundaryRadius},
		grid:       g,
		particles:  make([]particle, 0, 256),
		links:      make([]link, 0),
	}, nil
}

func (e *Engine) Config() dynamo.Config { return e.cfg }

// Spawn adds a particle at (x, y) and lists it in the grid.
func (e *Engine) Spawn(x, y, radius float64, c color.RGBA, pinned bool) (dynamo.Handle, error) {
	pos := r2.Vec{X: x, Y: y}
	if !dynamo.IsFinite(pos) {
		return -1, fmt.Errorf("%w: (%f, %f)", dynamo.ErrInvalidPosition, x, y)
	}
	if !(radius > 0) || radius >= e.cfg.BoundaryRadius {
		return -1, fmt.Errorf("%w: %f (boundary radius %f)", dynamo.ErrInvalidRadius, radius, e.cfg.BoundaryRadius)
	}
	if len(e.particles) >= math.MaxInt32 {
		return -1, fmt.Errorf("%w: particle limit reached", dynamo.ErrInvalidHandle)
	}

	h := dynamo.Handle(len(e.particles))
	e.particles = append(e.particles, newParticle(pos, radius, c, pinned))
	e.grid.Assign(h, pos)
	return h, nil
}

// Update advances the world by dt seconds split into the configured number of
// sub-steps. A zero dt leaves the world untouched. dt must be small enough
// that its square is finite.
func (e *Engine) Update(dt float64) error {
	if !(dt >= 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt must be finite and non-negative, got %f", dynamo.ErrInvalidTimestep, dt)
	}
	if math.IsInf(dt*dt, 0) {
		return fmt.Errorf("%w: dt too large, got %g", dynamo.ErrInvalidTimestep, dt)
	}

	e.stats = dynamo.Stats{}
	if dt == 0 {
		return nil
	}

	sub := dt / float64(e.cfg.SubSteps)
	for i := 0; i < e.cfg.SubSteps; i++ {
		e.step(sub)
	}
	e.subDt = sub
	return nil
}

func (e *Engine) step(dt float64) {
	e.integrate(dt)
	e.applyLinks()
	e.applyBoundary()
	e.rebucket()
	e.resolveCollisions()
	e.settleBoundary()
	e.stats.SubSteps++
}

func (e *Engine) integrate(dt float64) {
	for i := range e.particles {
		p := &e.particles[i]
		if p.pinned {
			continue
		}
		p.accelerate(e.cfg.Gravity)
		p.position, p.previous = e.integrator.Step(p.position, p.previous, p.acceleration, dt)
		p.acceleration = r2.Vec{}
	}
}

func (e *Engine) rebucket() {
	for i := range e.particles {
		if e.grid.Update(dynamo.Handle(i), e.particles[i].position) {
			e.stats.Migrations++
		}
	}
}

func (e *Engine) Len() int { return len(e.particles) }

func (e *Engine) valid(h dynamo.Handle) bool {
	return h >= 0 && int(h) < len(e.particles)
}

func (e *Engine) body(i int) dynamo.Body {
	p := &e.particles[i]
	return dynamo.Body{
		Position: p.position,
		Velocity: integrators.Velocity(p.position, p.previous, e.subDt),
		Radius:   p.radius,
		Color:    p.color,
		Pinned:   p.pinned,
	}
}

func (e *Engine) Body(h dynamo.Handle) (dynamo.Body, bool) {
	if !e.valid(h) {
		return dynamo.Body{}, false
	}
	return e.body(int(h)), true
}

// Bodies yields every particle in handle order as of the last Update.
func (e *Engine) Bodies() iter.Seq2[dynamo.Handle, dynamo.Body] {
	return func(yield func(dynamo.Handle, dynamo.Body) bool) {
		for i := range e.particles {
			if !yield(dynamo.Handle(i), e.body(i)) {
				return
			}
		}
	}
}

func (e *Engine) Boundary() (r2.Vec, float64) {
	return e.cfg.Center, e.cfg.BoundaryRadius
}

// Stats reports solver counters for the most recent Update.
func (e *Engine) Stats() dynamo.Stats { return e.stats }

// Grid exposes the spatial partition for inspection. Callers must not mutate it.
func (e *Engine) Grid() *grid.Grid { return e.grid }

var _ dynamo.World = (*Engine)(nil)
