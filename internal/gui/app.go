package gui

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/scene"
)

const (
	WindowWidth  = 1200
	WindowHeight = 800

	// maxFrameTime caps the wall-clock delta handed to the engine after a
	// stall, e.g. while the window is dragged.
	maxFrameTime = 1.0 / 20

	fontPath = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"

	telemetryCapacity = 200
)

var (
	ColBg        = rl.Gray
	ColDisc      = rl.Black
	ColLink      = rl.NewColor(180, 180, 180, 255)
	ColText      = rl.NewColor(230, 230, 230, 255)
	ColTextDim   = rl.NewColor(60, 60, 60, 255)
	ColTelemetry = rl.NewColor(255, 255, 255, 200)
)

type App struct {
	cfg       *config.Config
	engine    *physics.Engine
	script    *scene.Script
	rng       *rand.Rand
	font      rl.Font
	logger    *slog.Logger
	frame     int
	running   bool
	telemetry []float64
	status    string
}

func initWindow() {
	rl.InitWindow(WindowWidth, WindowHeight, "verletsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont loads Liberation Mono when present, otherwise raylib's built-in font.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		cfg:       cfg,
		logger:    logger,
		running:   true,
		telemetry: make([]float64, 0, telemetryCapacity),
	}
	if err := a.reset(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) reset() error {
	engine, err := physics.New(a.cfg.World.Engine())
	if err != nil {
		return err
	}
	script, err := a.cfg.Script()
	if err != nil {
		return err
	}
	a.engine = engine
	a.script = script
	a.rng = scene.NewRand(a.cfg.Run.Seed)
	a.frame = 0
	a.telemetry = a.telemetry[:0]
	return nil
}

// Run opens the window and blocks until it is closed.
func Run(cfg *config.Config, logger *slog.Logger) error {
	initWindow()
	defer rl.CloseWindow()

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	app.font = loadFont()
	app.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			return
		}
		a.Update()
		a.Draw()
	}
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.running = !a.running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := a.reset(); err != nil {
			a.status = err.Error()
		}
	}

	for _, button := range []rl.MouseButton{rl.MouseButtonLeft, rl.MouseButtonRight, rl.MouseButtonMiddle} {
		if !rl.IsMouseButtonPressed(button) {
			continue
		}
		pos := rl.GetMousePosition()
		a.click(button, float64(pos.X), float64(pos.Y))
	}

	if !a.running {
		return
	}

	for _, ev := range a.script.Due(a.frame) {
		if _, err := scene.Apply(a.engine, ev, a.rng); err != nil {
			a.logger.Warn("event failed", "frame", a.frame, "kind", ev.Kind, "err", err)
		}
	}

	dt := min(float64(rl.GetFrameTime()), maxFrameTime)
	if err := a.engine.Update(dt); err != nil {
		a.status = err.Error()
		a.running = false
		return
	}
	a.frame++

	a.telemetry = append(a.telemetry, metrics.KineticEnergy(a.engine))
	if len(a.telemetry) > telemetryCapacity {
		a.telemetry = a.telemetry[1:]
	}
}

// click spawns the pattern bound to a mouse button at (x, y): left drops a
// block, right an anchor and middle a chain.
func (a *App) click(button rl.MouseButton, x, y float64) {
	kind, ok := kindFor(button)
	if !ok {
		return
	}
	n, err := scene.Apply(a.engine, scene.Event{Frame: a.frame, Kind: kind, X: x, Y: y}, a.rng)
	if err != nil {
		a.status = err.Error()
		a.logger.Warn("spawn failed", "kind", kind, "err", err)
		return
	}
	a.status = fmt.Sprintf("spawned %d (%s)", n, kind)
	a.logger.Debug("spawned", "kind", kind, "x", x, "y", y, "count", n)
}

func kindFor(button rl.MouseButton) (scene.Kind, bool) {
	switch button {
	case rl.MouseButtonLeft:
		return scene.KindBlock, true
	case rl.MouseButtonRight:
		return scene.KindAnchor, true
	case rl.MouseButtonMiddle:
		return scene.KindChain, true
	}
	return "", false
}
