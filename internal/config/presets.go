package config

import (
	"slices"

	"github.com/san-kum/verletsim/internal/scene"
)

func preset(frames int, events ...scene.Event) *Config {
	cfg := DefaultConfig()
	cfg.Run.Frames = frames
	cfg.Events = events
	return cfg
}

var Presets = map[string]*Config{
	"drop": preset(300,
		scene.Event{Frame: 0, Kind: scene.KindBlock, X: 600, Y: 200},
	),
	"pile": preset(900,
		scene.Event{Frame: 0, Kind: scene.KindBlock, X: 520, Y: 150},
		scene.Event{Frame: 60, Kind: scene.KindBlock, X: 680, Y: 150},
		scene.Event{Frame: 120, Kind: scene.KindBlock, X: 600, Y: 100},
		scene.Event{Frame: 180, Kind: scene.KindBlock, X: 600, Y: 100},
	),
	"chain": preset(600,
		scene.Event{Frame: 0, Kind: scene.KindChain, X: 296, Y: 300},
	),
	"pegs": preset(600,
		scene.Event{Frame: 0, Kind: scene.KindAnchor, X: 560, Y: 400},
		scene.Event{Frame: 0, Kind: scene.KindAnchor, X: 640, Y: 400},
		scene.Event{Frame: 0, Kind: scene.KindAnchor, X: 600, Y: 460},
		scene.Event{Frame: 10, Kind: scene.KindBlock, X: 600, Y: 150},
	),
	"hammock": preset(900,
		scene.Event{Frame: 0, Kind: scene.KindChain, X: 296, Y: 350},
		scene.Event{Frame: 30, Kind: scene.KindBlock, X: 600, Y: 150},
		scene.Event{Frame: 90, Kind: scene.KindRain, X: 600, Y: 120, Count: 80},
	),
	"rain": preset(900,
		scene.Event{Frame: 0, Kind: scene.KindRain, X: 600, Y: 150, Count: 120},
		scene.Event{Frame: 120, Kind: scene.KindRain, X: 500, Y: 150, Count: 120},
		scene.Event{Frame: 240, Kind: scene.KindRain, X: 700, Y: 150, Count: 120},
	),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
