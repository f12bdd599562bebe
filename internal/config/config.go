package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrames      = 600
	DefaultDt          = 1.0 / 60
	DefaultSampleEvery = 1
	DefaultSeed        = 1
)

type Config struct {
	World  WorldConfig   `yaml:"world"`
	Run    RunConfig     `yaml:"run"`
	Events []scene.Event `yaml:"events"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

type WorldConfig struct {
	Center   Point   `yaml:"center"`
	Radius   float64 `yaml:"radius"`
	CellSize float64 `yaml:"cell_size"`
	SubSteps int     `yaml:"sub_steps"`
	Gravity  Point   `yaml:"gravity"`
}

type RunConfig struct {
	Frames      int     `yaml:"frames"`
	Dt          float64 `yaml:"dt"`
	SampleEvery int     `yaml:"sample_every"`
	Seed        uint64  `yaml:"seed"`
	Validate    bool    `yaml:"validate"`
}

func DefaultConfig() *Config {
	w := dynamo.DefaultConfig()
	return &Config{
		World: WorldConfig{
			Center:   Point{X: w.Center.X, Y: w.Center.Y},
			Radius:   w.BoundaryRadius,
			CellSize: w.CellSize,
			SubSteps: w.SubSteps,
			Gravity:  Point{X: w.Gravity.X, Y: w.Gravity.Y},
		},
		Run: RunConfig{
			Frames:      DefaultFrames,
			Dt:          DefaultDt,
			SampleEvery: DefaultSampleEvery,
			Seed:        DefaultSeed,
			Validate:    true,
		},
	}
}

// Engine converts the world section into engine parameters.
func (w WorldConfig) Engine() dynamo.Config {
	return dynamo.Config{
		Center:         w.Center.Vec(),
		BoundaryRadius: w.Radius,
		CellSize:       w.CellSize,
		SubSteps:       w.SubSteps,
		Gravity:        w.Gravity.Vec(),
	}
}

func (c *Config) Validate() error {
	if err := c.World.Engine().Validate(); err != nil {
		return err
	}
	if c.Run.Frames < 0 {
		return fmt.Errorf("%w: frames must be non-negative, got %d", dynamo.ErrInvalidConfig, c.Run.Frames)
	}
	if !(c.Run.Dt > 0) || math.IsInf(c.Run.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, c.Run.Dt)
	}
	if c.Run.SampleEvery < 1 {
		return fmt.Errorf("%w: sample_every must be at least 1, got %d", dynamo.ErrInvalidConfig, c.Run.SampleEvery)
	}
	for i, e := range c.Events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// Script builds the event schedule for a run.
func (c *Config) Script() (*scene.Script, error) {
	return scene.NewScript(c.Events)
}

// Clone returns a deep copy so presets can be tweaked safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Events = append([]scene.Event(nil), c.Events...)
	return &out
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
