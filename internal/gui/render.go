package gui

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/verletsim/internal/dynamo"
)

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	a.drawWorld()
	a.drawHUD()

	rl.EndDrawing()
}

func (a *App) drawWorld() {
	center, radius := a.engine.Boundary()
	rl.DrawCircleV(vec2(center.X, center.Y), float32(radius), ColDisc)

	for l := range a.engine.Links() {
		pa, okA := a.engine.Body(l.A)
		pb, okB := a.engine.Body(l.B)
		if !okA || !okB {
			continue
		}
		rl.DrawLineEx(vec2(pa.Position.X, pa.Position.Y), vec2(pb.Position.X, pb.Position.Y), 2, ColLink)
	}

	for _, b := range a.engine.Bodies() {
		rl.DrawCircleV(vec2(b.Position.X, b.Position.Y), float32(b.Radius), toColor(b.Color))
	}
}

func (a *App) drawHUD() {
	stats := a.engine.Stats()
	a.drawText("verletsim", 20, 20, 24, ColText)
	a.drawText(fmt.Sprintf("particles %d  links %d", a.engine.Len(), countLinks(a.engine)), 20, 50, 16, ColText)
	a.drawText(fmt.Sprintf("collisions %d  migrations %d", stats.Collisions, stats.Migrations), 20, 70, 16, ColText)

	status := "RUNNING"
	if !a.running {
		status = "PAUSED"
	}
	a.drawText(status, WindowWidth-120, 20, 16, ColText)
	if a.status != "" {
		a.drawText(a.status, 20, 95, 14, ColText)
	}

	a.drawTelemetry()

	a.drawText("[LMB] BLOCK  [RMB] ANCHOR  [MMB] CHAIN  [SPACE] PAUSE  [R] RESET  [Q] QUIT", 20, WindowHeight-30, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", rl.GetFPS()), WindowWidth-90, WindowHeight-30, 14, ColTextDim)
}

func (a *App) drawTelemetry() {
	if len(a.telemetry) < 2 {
		return
	}

	rectX, rectY := float32(20), float32(WindowHeight-110)
	width, height := float32(300), float32(60)

	lo, hi := a.telemetry[0], a.telemetry[0]
	for _, v := range a.telemetry {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	points := make([]rl.Vector2, len(a.telemetry))
	for i, v := range a.telemetry {
		px := rectX + float32(i)/float32(len(a.telemetry))*width
		py := rectY + height - float32((v-lo)/(hi-lo))*height
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColTelemetry)
	a.drawText(fmt.Sprintf("KE %.2e", a.telemetry[len(a.telemetry)-1]), int(rectX+width+10), int(rectY+height-10), 14, ColText)
}

func (a *App) drawText(text string, x, y int, size int, c rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, c)
}

func vec2(x, y float64) rl.Vector2 { return rl.NewVector2(float32(x), float32(y)) }

func toColor(c color.RGBA) rl.Color { return rl.NewColor(c.R, c.G, c.B, c.A) }

func countLinks(w dynamo.World) int {
	n := 0
	for range w.Links() {
		n++
	}
	return n
}
