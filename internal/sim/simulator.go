package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/scene"
)

type Simulator struct {
	engine    Engine
	script    *scene.Script
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    *slog.Logger
}

// New wraps engine. A nil script runs without scheduled spawns.
func New(engine Engine, script *scene.Script) *Simulator {
	if script == nil {
		script, _ = scene.NewScript(nil)
	}
	return &Simulator{
		engine:    engine,
		script:    script,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    slog.Default(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger)      { s.logger = l }

func (s *Simulator) Engine() Engine { return s.engine }

// Run advances the engine cfg.Frames times. Scheduled events fire before the
// update of their frame; metrics and observers see the world after it.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]metrics.Sample, 0, cfg.Frames/cfg.SampleEvery+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.script.Reset()

	rng := scene.NewRand(cfg.Seed)
	s.logger.Info("run started", "frames", cfg.Frames, "dt", cfg.Dt, "events", s.script.Len(), "seed", cfg.Seed)

	t := 0.0
	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			s.logger.Warn("run cancelled", "frame", i)
			return result, ctx.Err()
		default:
		}

		for _, ev := range s.script.Due(i) {
			n, err := scene.Apply(s.engine, ev, rng)
			result.Spawned += n
			if err != nil {
				result.Errors = append(result.Errors, SimError(i, t, fmt.Sprintf("%s event: %v", ev.Kind, err)))
				s.logger.Warn("event failed", "frame", i, "kind", ev.Kind, "err", err)
				continue
			}
			s.logger.Debug("event applied", "frame", i, "kind", ev.Kind, "spawned", n)
		}

		if err := s.engine.Update(cfg.Dt); err != nil {
			return result, err
		}
		t += cfg.Dt
		frame := i + 1
		result.Frames = frame
		result.Time = t

		for _, m := range s.metrics {
			m.Observe(s.engine, t)
		}
		for _, obs := range s.observers {
			obs.OnFrame(s.engine, frame, t)
		}

		if frame%cfg.SampleEvery == 0 || frame == cfg.Frames {
			result.Samples = append(result.Samples, metrics.Measure(s.engine, frame, t))
		}

		if cfg.ValidateState && !validState(s.engine) {
			result.Errors = append(result.Errors, SimError(frame, t, dynamo.ErrInvalidState.Error()))
			s.logger.Error("invalid state", "frame", frame, "t", t)
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Summary = metrics.Summarize(result.Samples)

	s.logger.Info("run finished",
		"frames", result.Frames,
		"particles", s.engine.Len(),
		"spawned", result.Spawned,
		"errors", len(result.Errors),
	)
	return result, nil
}

// SimError builds the error recorded for a failure at a given frame.
func SimError(frame int, t float64, msg string) error {
	return dynamo.SimError{Frame: frame, Time: t, Message: msg}
}

func validateConfig(cfg Config) error {
	if cfg.Frames < 0 {
		return fmt.Errorf("%w: frames must be non-negative, got %d", dynamo.ErrInvalidConfig, cfg.Frames)
	}
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, cfg.Dt)
	}
	if cfg.SampleEvery < 1 {
		return fmt.Errorf("%w: sample interval must be at least 1, got %d", dynamo.ErrInvalidConfig, cfg.SampleEvery)
	}
	return nil
}

func validState(w dynamo.World) bool {
	for _, b := range w.Bodies() {
		if !dynamo.IsFinite(b.Position) || !dynamo.IsFinite(b.Velocity) {
			return false
		}
	}
	return true
}
