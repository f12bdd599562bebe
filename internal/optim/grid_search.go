package optim

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/sim"
)

// Build turns one candidate configuration into a ready simulator with its
// metrics attached.
type Build func(cfg *config.Config) (*sim.Simulator, error)

// Params lists the world parameters a sweep can vary.
func Params() []string {
	return []string{"sub_steps", "gravity_x", "gravity_y", "cell_size", "radius"}
}

// Set writes a single named parameter into cfg.
func Set(cfg *config.Config, name string, v float64) error {
	switch name {
	case "sub_steps":
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: sub_steps must be a whole number, got %g", dynamo.ErrInvalidConfig, v)
		}
		cfg.World.SubSteps = int(v)
	case "gravity_x":
		cfg.World.Gravity.X = v
	case "gravity_y":
		cfg.World.Gravity.Y = v
	case "cell_size":
		cfg.World.CellSize = v
	case "radius":
		cfg.World.Radius = v
	default:
		return fmt.Errorf("unknown parameter: %s (available: %v)", name, Params())
	}
	return nil
}

type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("need one range per parameter, got %d parameters and %d ranges", len(params), len(ranges))
	}
	for i, p := range params {
		if !slices.Contains(Params(), p) {
			return nil, fmt.Errorf("unknown parameter: %s (available: %v)", p, Params())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Maximize flips the objective so that the largest metric value wins.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Points enumerates the full cartesian product of the ranges.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[g.paramNames[depth]] = val
		g.enumerate(depth+1, next, out)
	}
}

// Search runs every point of the grid from base and scores it by the named
// summary metric. Points that fail to build or run are reported with their
// error and never win. The best parameters are nil if no point succeeded.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, build Build, metricName string) (map[string]float64, float64, []Point, error) {
	best := math.Inf(1)
	if g.maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64

	points := g.Points()
	results := make([]Point, 0, len(points))
	for _, params := range points {
		if err := ctx.Err(); err != nil {
			return bestParams, best, results, err
		}

		val, err := evaluate(ctx, base, build, params, metricName)
		results = append(results, Point{Params: params, Value: val, Err: err})
		if err != nil {
			continue
		}
		if (!g.maximize && val < best) || (g.maximize && val > best) {
			best = val
			bestParams = params
		}
	}
	return bestParams, best, results, nil
}

func evaluate(ctx context.Context, base *config.Config, build Build, params map[string]float64, metricName string) (float64, error) {
	cfg := base.Clone()
	for name, v := range params {
		if err := Set(cfg, name, v); err != nil {
			return 0, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	s, err := build(cfg)
	if err != nil {
		return 0, err
	}
	result, err := s.Run(ctx, sim.Config{
		Frames:        cfg.Run.Frames,
		Dt:            cfg.Run.Dt,
		SampleEvery:   cfg.Run.SampleEvery,
		Seed:          cfg.Run.Seed,
		ValidateState: cfg.Run.Validate,
	})
	if err != nil {
		return 0, err
	}
	if result.Failed() {
		return 0, result.Errors[0]
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %s not recorded", metricName)
	}
	return val, nil
}
