package scene

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindBlock  Kind = "block"
	KindAnchor Kind = "anchor"
	KindChain  Kind = "chain"
	KindRain   Kind = "rain"
)

func Kinds() []Kind {
	return []Kind{KindBlock, KindAnchor, KindChain, KindRain}
}

// Event spawns a pattern at the start of a frame.
type Event struct {
	Frame int     `yaml:"frame"`
	Kind  Kind    `yaml:"kind"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Count int     `yaml:"count,omitempty"`
}

func (e Event) Validate() error {
	if e.Frame < 0 {
		return fmt.Errorf("%w: frame must be non-negative, got %d", dynamo.ErrInvalidEvent, e.Frame)
	}
	if math.IsNaN(e.X) || math.IsInf(e.X, 0) || math.IsNaN(e.Y) || math.IsInf(e.Y, 0) {
		return fmt.Errorf("%w: position (%f, %f) is not finite", dynamo.ErrInvalidEvent, e.X, e.Y)
	}
	switch e.Kind {
	case KindBlock, KindAnchor, KindChain:
	case KindRain:
		if e.Count <= 0 {
			return fmt.Errorf("%w: rain needs a positive count", dynamo.ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", dynamo.ErrInvalidEvent, e.Kind)
	}
	return nil
}

// Apply spawns e into w and returns how many particles were added.
func Apply(w World, e Event, rng *rand.Rand) (int, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	var (
		hs  []dynamo.Handle
		err error
	)
	switch e.Kind {
	case KindBlock:
		hs, err = Block(w, e.X, e.Y)
	case KindAnchor:
		var h dynamo.Handle
		if h, err = Anchor(w, e.X, e.Y); err == nil {
			hs = []dynamo.Handle{h}
		}
	case KindChain:
		hs, err = Chain(w, e.X, e.Y)
	case KindRain:
		hs, err = Rain(w, e.X, e.Y, e.Count, rng)
	}
	return len(hs), err
}

// Script hands out events in frame order. Events sharing a frame keep their
// declaration order.
type Script struct {
	events []Event
	next   int
}

func NewScript(events []Event) (*Script, error) {
	sorted := slices.Clone(events)
	for i, e := range sorted {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	slices.SortStableFunc(sorted, func(a, b Event) int { return a.Frame - b.Frame })
	return &Script{events: sorted}, nil
}

// LoadScript reads a yaml list of events.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := yaml.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return NewScript(events)
}

// Due returns the events scheduled at or before frame that have not been
// handed out yet.
func (s *Script) Due(frame int) []Event {
	start := s.next
	for s.next < len(s.events) && s.events[s.next].Frame <= frame {
		s.next++
	}
	return s.events[start:s.next]
}

func (s *Script) Reset() { s.next = 0 }

func (s *Script) Len() int { return len(s.events) }

func (s *Script) Remaining() int { return len(s.events) - s.next }

func (s *Script) Events() []Event { return slices.Clone(s.events) }
