package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	cursorStep      = 20.0
	rainCount       = 40
	gifPath         = "verletsim.gif"
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// projection maps world coordinates onto canvas dots, fitting the boundary
// disc into the canvas.
type projection struct {
	min   r2.Vec
	scale float64
	offX  float64
	offY  float64
}

func newProjection(center r2.Vec, radius float64, dotsW, dotsH int) projection {
	side := float64(min(dotsW, dotsH) - 1)
	scale := side / (2 * radius)
	return projection{
		min:   r2.Vec{X: center.X - radius, Y: center.Y - radius},
		scale: scale,
		offX:  (float64(dotsW-1) - side) / 2,
		offY:  (float64(dotsH-1) - side) / 2,
	}
}

func (p projection) toDots(v r2.Vec) (int, int) {
	x := (v.X-p.min.X)*p.scale + p.offX
	y := (v.Y-p.min.Y)*p.scale + p.offY
	return int(math.Round(x)), int(math.Round(y))
}

func (p projection) length(l float64) int {
	return int(math.Round(l * p.scale))
}

// Model is the bubbletea program for the live view. It owns its engine and
// replays the configured script from the start on reset.
type Model struct {
	cfg     *config.Config
	engine  *physics.Engine
	script  *scene.Script
	rng     *rand.Rand
	canvas  *Canvas
	proj    projection
	styles  Styles
	theme   int
	cursor  r2.Vec
	frame   int
	t       float64
	running bool

	kinetic    []float64
	collisions []float64

	showHelp  bool
	recording bool
	frames    []*image.Paletted
	status    string
}

func NewModel(cfg *config.Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return Model{}, err
	}
	m := Model{
		cfg:     cfg,
		canvas:  NewCanvas(width, height),
		styles:  NewStyles(Themes[0]),
		running: true,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	engine, err := physics.New(m.cfg.World.Engine())
	if err != nil {
		return err
	}
	script, err := m.cfg.Script()
	if err != nil {
		return err
	}

	center, radius := engine.Boundary()
	dotsW, dotsH := m.canvas.Dots()

	m.engine = engine
	m.script = script
	m.rng = scene.NewRand(m.cfg.Run.Seed)
	m.proj = newProjection(center, radius, dotsW, dotsH)
	m.cursor = r2.Vec{X: center.X, Y: center.Y - radius/2}
	m.frame, m.t = 0, 0
	m.kinetic = m.kinetic[:0]
	m.collisions = m.collisions[:0]
	m.status = ""
	return nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "r":
			if err := m.reset(); err != nil {
				m.status = err.Error()
			}
		case "b":
			m.spawn(scene.KindBlock)
		case "c":
			m.spawn(scene.KindChain)
		case "a":
			m.spawn(scene.KindAnchor)
		case "w":
			m.spawn(scene.KindRain)
		case "left", "h":
			m.cursor.X -= cursorStep
		case "right", "l":
			m.cursor.X += cursorStep
		case "up", "k":
			m.cursor.Y -= cursorStep
		case "down", "j":
			m.cursor.Y += cursorStep
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = NewStyles(Themes[m.theme])
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) spawn(kind scene.Kind) {
	ev := scene.Event{Frame: m.frame, Kind: kind, X: m.cursor.X, Y: m.cursor.Y, Count: rainCount}
	n, err := scene.Apply(m.engine, ev, m.rng)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("spawned %d (%s)", n, kind)
}

// step applies due events and advances the engine by one frame.
func (m *Model) step() {
	for _, ev := range m.script.Due(m.frame) {
		if _, err := scene.Apply(m.engine, ev, m.rng); err != nil {
			m.status = err.Error()
		}
	}
	if err := m.engine.Update(m.cfg.Run.Dt); err != nil {
		m.status = err.Error()
		m.running = false
		return
	}
	m.frame++
	m.t += m.cfg.Run.Dt

	m.kinetic = pushHistory(m.kinetic, metrics.KineticEnergy(m.engine))
	m.collisions = pushHistory(m.collisions, float64(m.engine.Stats().Collisions))
}

func pushHistory(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) draw() {
	m.canvas.Clear()

	center, radius := m.engine.Boundary()
	cx, cy := m.proj.toDots(center)
	m.canvas.DrawCircle(cx, cy, m.proj.length(radius))

	for l := range m.engine.Links() {
		a, okA := m.engine.Body(l.A)
		b, okB := m.engine.Body(l.B)
		if !okA || !okB {
			continue
		}
		x0, y0 := m.proj.toDots(a.Position)
		x1, y1 := m.proj.toDots(b.Position)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	for _, b := range m.engine.Bodies() {
		x, y := m.proj.toDots(b.Position)
		r := m.proj.length(b.Radius)
		if b.Pinned {
			m.canvas.DrawCircle(x, y, max(r, 1))
			continue
		}
		m.canvas.FillDisc(x, y, r)
	}

	x, y := m.proj.toDots(m.cursor)
	m.canvas.DrawLine(x-2, y, x+2, y)
	m.canvas.DrawLine(x, y-2, x, y+2)
}

func (m Model) View() string {
	s := m.styles
	canvasView := s.Canvas.Render(m.canvas.String())

	var b strings.Builder
	b.WriteString(s.Header.Render(GradientText("VERLET", Themes[m.theme].Primary, Themes[m.theme].Secondary)) + "\n")

	status := s.Good.Render("RUNNING")
	if !m.running {
		status = s.Warn.Render("PAUSED")
	}
	if m.recording {
		status += " " + s.Bad.Render("REC")
	}
	b.WriteString(status + "\n\n")

	if len(m.kinetic) > 1 {
		chart := asciigraph.Plot(m.kinetic, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		b.WriteString(s.Graph.Render(chart) + "\n")
	}

	stats := m.engine.Stats()
	row := func(label, value string) {
		b.WriteString(s.Label.Render(label) + s.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Frame", fmt.Sprintf("%d", m.frame))
	row("Particles", fmt.Sprintf("%d", m.engine.Len()))
	row("Collisions", fmt.Sprintf("%d", stats.Collisions))
	row("Migrations", fmt.Sprintf("%d", stats.Migrations))
	row("Overlap", fmt.Sprintf("%.3f", metrics.MaxOverlap(m.engine)))
	row("Fill", s.Gauge(fillFraction(m.engine), 16))
	b.WriteString(s.Label.Render("Contacts") + Sparkline(m.collisions, 24) + "\n")

	if m.status != "" {
		b.WriteString("\n" + s.Warn.Render(m.status) + "\n")
	}
	b.WriteString(s.Help.Render("SP:Pause .:Step R:Reset Q:Quit\nB:Block C:Chain A:Anchor W:Rain\nArrows:Cursor T:Theme G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, s.Panel.Render(b.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause or resume
  .        advance one frame while paused
  R        restart the scene
  B C A W  spawn block, chain, anchor or rain at the cursor
  Arrows   move the cursor (hjkl also work)
  T        cycle themes
  G        start or stop GIF recording
  Q        quit
`

// fillFraction is the share of the boundary disc covered by particle area.
func fillFraction(e *physics.Engine) float64 {
	_, radius := e.Boundary()
	area := 0.0
	for _, b := range e.Bodies() {
		area += b.Radius * b.Radius
	}
	return math.Min(area/(radius*radius), 1)
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0)
		return
	}
	if err := m.saveGIF(gifPath); err != nil {
		m.status = err.Error()
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), gifPath)
	}
	m.recording = false
	m.frames = nil
}

func (m *Model) captureFrame() {
	const charW, charH = 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, m.canvas.Width*charW, m.canvas.Height*charH), color.Palette{color.Black, color.White})

	dotsW, dotsH := m.canvas.Dots()
	for y := 0; y < dotsH; y++ {
		for x := 0; x < dotsW; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF(path string) error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

// Run starts the live view on the terminal.
func Run(cfg *config.Config) error {
	m, err := NewModel(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
