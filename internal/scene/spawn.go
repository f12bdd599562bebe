package scene

import (
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/verletsim/internal/dynamo"
)

// World is the write side of an engine that spawners operate on.
type World interface {
	Spawn(x, y, radius float64, c color.RGBA, pinned bool) (dynamo.Handle, error)
	AddLink(a, b dynamo.Handle, length float64) error
	LinkLastTwo(length float64) error
}

const (
	BlockSide    = 10
	BlockSpacing = 16.0
	BlockOffset  = 20.0

	SmallRadius = 4.0
	LargeRadius = 8.0

	ChainNodes   = 20
	ChainSpacing = 32.0

	RainColumns = 8
	RainSpacing = 10.0
)

var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 230, G: 41, B: 55, A: 255}
	Blue  = color.RGBA{R: 0, G: 121, B: 241, A: 255}
)

// Block spawns a BlockSide x BlockSide square of small white particles whose
// first corner sits BlockOffset up and left of (x, y).
func Block(w World, x, y float64) ([]dynamo.Handle, error) {
	handles := make([]dynamo.Handle, 0, BlockSide*BlockSide)
	for i := 0; i < BlockSide; i++ {
		for j := 0; j < BlockSide; j++ {
			px := x + float64(i)*BlockSpacing - BlockOffset
			py := y + float64(j)*BlockSpacing - BlockOffset
			h, err := w.Spawn(px, py, SmallRadius, White, false)
			if err != nil {
				return handles, fmt.Errorf("block (%d,%d): %w", i, j, err)
			}
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// Anchor spawns a single pinned particle.
func Anchor(w World, x, y float64) (dynamo.Handle, error) {
	return w.Spawn(x, y, LargeRadius, Red, true)
}

// Chain spawns ChainNodes particles in a horizontal row starting at (x, y),
// each linked to its predecessor. Both ends are pinned.
func Chain(w World, x, y float64) ([]dynamo.Handle, error) {
	handles := make([]dynamo.Handle, 0, ChainNodes)

	head, err := Anchor(w, x, y)
	if err != nil {
		return handles, fmt.Errorf("chain head: %w", err)
	}
	handles = append(handles, head)

	for i := 1; i < ChainNodes; i++ {
		last := i == ChainNodes-1
		c := Blue
		if last {
			c = Red
		}
		h, err := w.Spawn(x+float64(i)*ChainSpacing, y, LargeRadius, c, last)
		if err != nil {
			return handles, fmt.Errorf("chain node %d: %w", i, err)
		}
		handles = append(handles, h)
		if err := w.LinkLastTwo(ChainSpacing); err != nil {
			return handles, fmt.Errorf("chain link %d: %w", i, err)
		}
	}
	return handles, nil
}

// Rain spawns n small particles in rows of RainColumns centred on x and
// stacked upward from y. Positions get up to half a unit of jitter and
// colours sweep the hue wheel.
func Rain(w World, x, y float64, n int, rng *rand.Rand) ([]dynamo.Handle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: rain count must be positive, got %d", dynamo.ErrInvalidEvent, n)
	}

	handles := make([]dynamo.Handle, 0, n)
	left := x - float64(RainColumns-1)*RainSpacing/2
	for i := 0; i < n; i++ {
		col, row := i%RainColumns, i/RainColumns
		px := left + float64(col)*RainSpacing + rng.Float64() - 0.5
		py := y - float64(row)*RainSpacing + rng.Float64() - 0.5

		h, err := w.Spawn(px, py, SmallRadius, Hue(float64(i)/float64(n)), false)
		if err != nil {
			return handles, fmt.Errorf("rain drop %d: %w", i, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// NewRand returns the generator a run with the given seed draws its spawn
// jitter from.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Hue maps f in [0, 1) onto a saturated colour.
func Hue(f float64) color.RGBA {
	r, g, b := colorful.Hsv(360*f, 0.75, 1).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
