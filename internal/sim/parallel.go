package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Factory builds the simulator for one ensemble member. Each call must return
// a simulator over its own engine.
type Factory func(run int) (*Simulator, error)

// Ensemble runs independent simulations concurrently. Run i uses seed
// cfg.Seed+i.
type Ensemble struct {
	factory Factory
	runs    int
	workers int
}

// NewEnsemble creates an ensemble of runs members. workers bounds the number
// running at once; zero or less means no bound.
func NewEnsemble(factory Factory, runs, workers int) *Ensemble {
	return &Ensemble{factory: factory, runs: runs, workers: workers}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.runs)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i := range e.runs {
		g.Go(func() error {
			s, err := e.factory(i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			c := cfg
			c.Seed = cfg.Seed + uint64(i)
			r, err := s.Run(ctx, c)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
