package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestProjection(t *testing.T) {
	p := newProjection(r2.Vec{X: 600, Y: 400}, 400, 160, 96)

	tests := []struct {
		world  r2.Vec
		dx, dy int
	}{
		{r2.Vec{X: 600, Y: 0}, 80, 0},
		{r2.Vec{X: 600, Y: 800}, 80, 95},
		{r2.Vec{X: 200, Y: 400}, 32, 48},
		{r2.Vec{X: 1000, Y: 400}, 127, 48},
	}
	for _, tt := range tests {
		x, y := p.toDots(tt.world)
		if absInt(x-tt.dx) > 1 || absInt(y-tt.dy) > 1 {
			t.Errorf("%v: expected ~(%d,%d), got (%d,%d)", tt.world, tt.dx, tt.dy, x, y)
		}
	}
	if l := p.length(400); l < 47 || l > 48 {
		t.Errorf("unexpected projected radius %d", l)
	}
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelTick(t *testing.T) {
	m, err := NewModel(config.GetPreset("drop"))
	if err != nil {
		t.Fatal(err)
	}

	m = send(t, m, TickMsg(time.Now()))
	if m.frame != 1 {
		t.Errorf("expected frame 1, got %d", m.frame)
	}
	if m.engine.Len() != scene.BlockSide*scene.BlockSide {
		t.Errorf("expected the scripted block, got %d particles", m.engine.Len())
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = send(t, m, TickMsg(time.Now()))
	if m.frame != 1 {
		t.Errorf("paused model should not advance, frame %d", m.frame)
	}

	m = send(t, m, key("."))
	if m.frame != 2 {
		t.Errorf("single step should advance to frame 2, got %d", m.frame)
	}
}

func TestModelSpawnKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatal(err)
	}

	m = send(t, m, key("a"))
	if m.engine.Len() != 1 {
		t.Fatalf("expected an anchor, got %d particles", m.engine.Len())
	}
	b, _ := m.engine.Body(0)
	if !b.Pinned || b.Position != m.cursor {
		t.Errorf("anchor should be pinned at the cursor, got %+v", b)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = send(t, m, key("c"))
	if m.engine.Len() != 1+scene.ChainNodes {
		t.Errorf("expected chain nodes, got %d particles", m.engine.Len())
	}

	m = send(t, m, key("w"))
	if m.engine.Len() != 1+scene.ChainNodes+rainCount {
		t.Errorf("expected rain, got %d particles", m.engine.Len())
	}

	m = send(t, m, key("r"))
	if m.engine.Len() != 0 || m.frame != 0 {
		t.Errorf("reset should start over, got %d particles at frame %d", m.engine.Len(), m.frame)
	}
}

func TestModelView(t *testing.T) {
	m, err := NewModel(config.GetPreset("chain"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		m = send(t, m, TickMsg(time.Now()))
	}

	out := m.View()
	for _, want := range []string{"Particles", "Collisions", "RUNNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = send(t, m, key("?"))
	if !strings.Contains(m.View(), "spawn block") {
		t.Error("help overlay missing")
	}
}

func TestModelThemeCycle(t *testing.T) {
	m, err := NewModel(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(Themes); i++ {
		m = send(t, m, key("t"))
	}
	if m.theme != 0 {
		t.Errorf("expected theme to wrap around, got %d", m.theme)
	}
}

func TestModelInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.World.SubSteps = 0
	if _, err := NewModel(cfg); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestSaveGIF(t *testing.T) {
	m, err := NewModel(config.GetPreset("drop"))
	if err != nil {
		t.Fatal(err)
	}
	m.recording = true
	m = send(t, m, TickMsg(time.Now()))
	m = send(t, m, TickMsg(time.Now()))
	if len(m.frames) != 2 {
		t.Fatalf("expected 2 captured frames, got %d", len(m.frames))
	}

	path := filepath.Join(t.TempDir(), "out.gif")
	if err := m.saveGIF(path); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected gif on disk, got %v", err)
	}
}

func TestFillFraction(t *testing.T) {
	m, err := NewModel(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if f := fillFraction(m.engine); f != 0 {
		t.Errorf("empty world should be unfilled, got %f", f)
	}
	if _, err := m.engine.Spawn(600, 400, 200, scene.White, false); err != nil {
		t.Fatal(err)
	}
	if f := fillFraction(m.engine); f != 0.25 {
		t.Errorf("expected 0.25, got %f", f)
	}
	var _ dynamo.World = m.engine
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{1, 2, 3}, 2); len([]rune(got)) != 2 {
		t.Errorf("expected the last 2 values, got %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("expected flat line, got %q", got)
	}
}
