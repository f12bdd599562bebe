package storage

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/verletsim/internal/dynamo"
)

// BodyRecord is one row of bodies.csv.
type BodyRecord struct {
	Handle int     `csv:"handle" json:"handle"`
	X      float64 `csv:"x" json:"x"`
	Y      float64 `csv:"y" json:"y"`
	VX     float64 `csv:"vx" json:"vx"`
	VY     float64 `csv:"vy" json:"vy"`
	Radius float64 `csv:"radius" json:"radius"`
	Pinned bool    `csv:"pinned" json:"pinned"`
	Color  string  `csv:"color" json:"color"`
}

// LinkRecord is one row of links.csv.
type LinkRecord struct {
	A      int     `csv:"a" json:"a"`
	B      int     `csv:"b" json:"b"`
	Length float64 `csv:"length" json:"length"`
}

func Snapshot(w dynamo.World) []BodyRecord {
	out := make([]BodyRecord, 0, w.Len())
	for h, b := range w.Bodies() {
		out = append(out, BodyRecord{
			Handle: int(h),
			X:      b.Position.X,
			Y:      b.Position.Y,
			VX:     b.Velocity.X,
			VY:     b.Velocity.Y,
			Radius: b.Radius,
			Pinned: b.Pinned,
			Color:  hexColor(b.Color),
		})
	}
	return out
}

func SnapshotLinks(w dynamo.World) []LinkRecord {
	out := make([]LinkRecord, 0)
	for l := range w.Links() {
		out = append(out, LinkRecord{A: int(l.A), B: int(l.B), Length: l.Length})
	}
	return out
}

func hexColor(c color.RGBA) string {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cc.Hex()
}

// RGBA parses the stored colour, falling back to white.
func (b BodyRecord) RGBA() color.RGBA {
	c, err := colorful.Hex(b.Color)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	r, g, bl := c.RGB255()
	return color.RGBA{R: r, G: g, B: bl, A: 255}
}
