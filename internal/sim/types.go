package sim

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/scene"
)

// Engine is the solver a Simulator drives.
type Engine interface {
	dynamo.World
	scene.World
	Update(dt float64) error
}

type Config struct {
	Frames        int
	Dt            float64
	SampleEvery   int
	Seed          uint64
	ValidateState bool
}

type Result struct {
	Frames  int
	Time    float64
	Spawned int
	Samples []metrics.Sample
	Metrics map[string]float64
	Summary metrics.Summary
	Errors  []error
}

// Failed reports whether the run recorded any error.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }
