package physics_test

import (
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/physics"
)

const frameDt = 1.0 / 60

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 230, G: 41, B: 55, A: 255}
)

func newEngine(gravity r2.Vec) *physics.Engine {
	cfg := dynamo.DefaultConfig()
	cfg.Gravity = gravity
	e, err := physics.New(cfg)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func spawn(e *physics.Engine, x, y, r float64, pinned bool) dynamo.Handle {
	h, err := e.Spawn(x, y, r, white, pinned)
	Expect(err).NotTo(HaveOccurred())
	return h
}

func spawnBlock(e *physics.Engine, x, y float64, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			spawn(e, x+float64(i)*16-20, y+float64(j)*16-20, 4, false)
		}
	}
}

func position(e *physics.Engine, h dynamo.Handle) r2.Vec {
	b, ok := e.Body(h)
	Expect(ok).To(BeTrue())
	return b.Position
}

func distance(e *physics.Engine, a, b dynamo.Handle) float64 {
	return r2.Norm(r2.Sub(position(e, a), position(e, b)))
}

// spawnPile fills the disc row by row from the top with touching particles of
// radius r until n are placed.
func spawnPile(e *physics.Engine, n int, r float64) {
	center, radius := e.Boundary()
	placed := 0
	for y := center.Y - radius + 2*r; y < center.Y+radius && placed < n; y += 2 * r {
		for x := center.X - radius + 2*r; x < center.X+radius && placed < n; x += 2 * r {
			if r2.Norm(r2.Sub(r2.Vec{X: x, Y: y}, center)) > radius-2*r {
				continue
			}
			spawn(e, x, y, r, false)
			placed++
		}
	}
	Expect(placed).To(Equal(n))
}

// worstContainment returns the largest amount by which any centre exceeds
// its allowed distance of boundary radius minus particle radius.
func worstContainment(e *physics.Engine) float64 {
	center, radius := e.Boundary()
	worst := 0.0
	for _, b := range e.Bodies() {
		worst = max(worst, r2.Norm(r2.Sub(b.Position, center))-(radius-b.Radius))
	}
	return worst
}

func expectGridConsistent(e *physics.Engine) {
	g := e.Grid()
	seen := make(map[dynamo.Handle]int)
	rows, cols := g.Dims()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell, _ := g.CellAt(row, col)
			min, max := g.Bounds(row, col)
			for _, h := range cell {
				seen[h]++
				p := position(e, h)
				Expect(p.X).To(BeNumerically(">=", min.X-1e-9))
				Expect(p.X).To(BeNumerically("<=", max.X+1e-9))
				Expect(p.Y).To(BeNumerically(">=", min.Y-1e-9))
				Expect(p.Y).To(BeNumerically("<=", max.Y+1e-9))
			}
		}
	}
	Expect(seen).To(HaveLen(e.Len()))
	for _, n := range seen {
		Expect(n).To(Equal(1))
	}
}

func run(e *physics.Engine, frames int, check func()) {
	for i := 0; i < frames; i++ {
		Expect(e.Update(frameDt)).To(Succeed())
		if check != nil {
			check()
		}
	}
}

var _ = Describe("Engine", func() {
	gravity := r2.Vec{Y: 1000}

	Describe("boundary containment", func() {
		It("keeps every centre inside the boundary", func() {
			e := newEngine(gravity)
			spawnBlock(e, 600, 250, 5)
			spawnBlock(e, 450, 400, 4)
			center, radius := e.Boundary()

			run(e, 180, func() {
				for _, b := range e.Bodies() {
					Expect(r2.Norm(r2.Sub(b.Position, center))).To(BeNumerically("<=", radius))
				}
			})
		})

		It("holds under a dense pile", func() {
			e := newEngine(gravity)
			spawnPile(e, 1200, 4)

			for frame := 0; frame < 600; frame++ {
				Expect(e.Update(frameDt)).To(Succeed())
				Expect(worstContainment(e)).To(BeNumerically("<=", 1e-9), "frame %d", frame)
				if frame%100 == 99 {
					expectGridConsistent(e)
				}
			}
		})

		It("pulls particles spawned outside back in", func() {
			e := newEngine(gravity)
			h := spawn(e, 1200, 400, 4, false)
			center, radius := e.Boundary()

			run(e, 1, nil)

			Expect(r2.Norm(r2.Sub(position(e, h), center))).To(BeNumerically("<=", radius-4+1e-9))
		})
	})

	Describe("pinned particles", func() {
		It("never move under gravity, links or collisions", func() {
			e := newEngine(gravity)
			anchor := spawn(e, 600, 450, 8, true)
			start := position(e, anchor)

			prev := anchor
			for i := 1; i < 6; i++ {
				h, err := e.Spawn(600+float64(i)*32, 450, 8, red, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.AddLink(prev, h, 32)).To(Succeed())
				prev = h
			}
			spawnBlock(e, 600, 300, 4)

			run(e, 240, func() {
				Expect(position(e, anchor)).To(Equal(start))
			})
		})

		It("stay put when two pinned particles overlap", func() {
			e := newEngine(gravity)
			a := spawn(e, 600, 400, 8, true)
			b := spawn(e, 604, 400, 8, true)
			Expect(e.AddLink(a, b, 32)).To(Succeed())

			run(e, 10, nil)

			Expect(position(e, a)).To(Equal(r2.Vec{X: 600, Y: 400}))
			Expect(position(e, b)).To(Equal(r2.Vec{X: 604, Y: 400}))
		})
	})

	Describe("collision separation", func() {
		DescribeTable("separates overlapping neighbours",
			func(x, ra, rb, gap float64) {
				e := newEngine(r2.Vec{})
				a := spawn(e, x, 400, ra, false)
				b := spawn(e, x+gap, 400, rb, false)

				run(e, 1, nil)

				Expect(distance(e, a, b)).To(BeNumerically(">=", ra+rb-1e-9))
			},
			Entry("same cell", 602.0, 5.0, 5.0, 4.0),
			Entry("across a cell edge", 595.0, 5.0, 5.0, 9.0),
			Entry("unequal radii", 605.0, 8.0, 3.0, 6.0),
		)

		It("leaves touching particles untouched", func() {
			e := newEngine(r2.Vec{})
			a := spawn(e, 595, 400, 5, false)
			b := spawn(e, 605, 400, 5, false)

			run(e, 1, nil)

			Expect(position(e, a)).To(Equal(r2.Vec{X: 595, Y: 400}))
			Expect(position(e, b)).To(Equal(r2.Vec{X: 605, Y: 400}))
			Expect(e.Stats().Collisions).To(BeZero())
		})

		It("leaves touching particles apart under gravity", func() {
			e := newEngine(gravity)
			a := spawn(e, 595, 400, 5, false)
			b := spawn(e, 605, 400, 5, false)

			run(e, 1, nil)

			Expect(position(e, a).X).To(Equal(595.0))
			Expect(position(e, b).X).To(Equal(605.0))
			Expect(distance(e, a, b)).To(Equal(10.0))
		})

		It("pushes an overlapping pair to the radius sum within one update", func() {
			for _, g := range []r2.Vec{{}, gravity} {
				e := newEngine(g)
				a := spawn(e, 596, 400, 5, false)
				b := spawn(e, 604, 400, 5, false)

				run(e, 1, nil)

				Expect(distance(e, a, b)).To(BeNumerically(">=", 9.9))
			}
		})

		It("moves only the free particle against a pinned one", func() {
			e := newEngine(r2.Vec{})
			pin := spawn(e, 600, 400, 5, true)
			free := spawn(e, 606, 400, 5, false)

			run(e, 1, nil)

			Expect(position(e, pin)).To(Equal(r2.Vec{X: 600, Y: 400}))
			Expect(distance(e, pin, free)).To(BeNumerically(">=", 10-1e-9))
		})
	})

	Describe("grid consistency", func() {
		It("lists every particle exactly once, in the cell containing it", func() {
			e := newEngine(gravity)
			spawnBlock(e, 600, 250, 6)
			spawnBlock(e, 400, 350, 4)

			run(e, 120, func() { expectGridConsistent(e) })
		})
	})

	Describe("links", func() {
		It("converges two free particles to the rest length", func() {
			e := newEngine(r2.Vec{})
			a := spawn(e, 575, 400, 8, false)
			b := spawn(e, 625, 400, 8, false)
			Expect(e.AddLink(a, b, 32)).To(Succeed())

			errPrev := 50.0 - 32.0
			run(e, 1, nil)
			d := distance(e, a, b)
			Expect(d).To(BeNumerically(">", 0))
			errNow := d - 32
			if errNow < 0 {
				errNow = -errNow
			}
			Expect(errNow).To(BeNumerically("<", errPrev))

			run(e, 20, func() {
				Expect(distance(e, a, b)).To(BeNumerically(">", 0))
			})
			Expect(distance(e, a, b)).To(BeNumerically("~", 32, 1e-6))
		})

		It("keeps a hanging chain connected", func() {
			e := newEngine(gravity)
			prev := spawn(e, 500, 300, 8, true)
			for i := 1; i <= 5; i++ {
				h := spawn(e, 500+float64(i)*32, 300, 8, false)
				Expect(e.AddLink(prev, h, 32)).To(Succeed())
				prev = h
			}

			run(e, 300, nil)

			for l := range e.Links() {
				Expect(distance(e, l.A, l.B)).To(BeNumerically("~", l.Length, l.Length/2))
			}
		})
	})
})
