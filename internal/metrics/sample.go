package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Sample is one row of the per-frame trace written to samples.csv.
type Sample struct {
	Frame      int     `csv:"frame" json:"frame"`
	Time       float64 `csv:"time" json:"time"`
	Particles  int     `csv:"particles" json:"particles"`
	Links      int     `csv:"links" json:"links"`
	Kinetic    float64 `csv:"kinetic_energy" json:"kinetic_energy"`
	MaxOverlap float64 `csv:"max_overlap" json:"max_overlap"`
	MaxStrain  float64 `csv:"max_link_strain" json:"max_link_strain"`
	Escaped    int     `csv:"escaped" json:"escaped"`
	Collisions int     `csv:"collisions" json:"collisions"`
	Degenerate int     `csv:"degenerate" json:"degenerate"`
	Migrations int     `csv:"migrations" json:"migrations"`
}

func Measure(w dynamo.World, frame int, t float64) Sample {
	stats := w.Stats()
	links := 0
	for range w.Links() {
		links++
	}
	return Sample{
		Frame:      frame,
		Time:       t,
		Particles:  w.Len(),
		Links:      links,
		Kinetic:    KineticEnergy(w),
		MaxOverlap: MaxOverlap(w),
		MaxStrain:  MaxStrain(w),
		Escaped:    Escaped(w),
		Collisions: stats.Collisions,
		Degenerate: stats.Degenerate,
		Migrations: stats.Migrations,
	}
}

// KineticEnergy sums 1/2 m v^2 over free particles, taking mass as radius
// squared.
func KineticEnergy(w dynamo.World) float64 {
	energies := make([]float64, 0, w.Len())
	for _, b := range w.Bodies() {
		if b.Pinned {
			continue
		}
		v := r2.Norm(b.Velocity)
		energies = append(energies, 0.5*b.Radius*b.Radius*v*v)
	}
	return floats.Sum(energies)
}

// MaxOverlap is the deepest interpenetration among current contacts.
func MaxOverlap(w dynamo.World) float64 {
	worst := 0.0
	for c := range w.Contacts() {
		worst = math.Max(worst, c.Depth)
	}
	return worst
}

// MaxStrain is the largest relative deviation of a link from its rest length.
func MaxStrain(w dynamo.World) float64 {
	worst := 0.0
	for l := range w.Links() {
		a, okA := w.Body(l.A)
		b, okB := w.Body(l.B)
		if !okA || !okB {
			continue
		}
		d := r2.Norm(r2.Sub(a.Position, b.Position))
		worst = math.Max(worst, math.Abs(d-l.Length)/l.Length)
	}
	return worst
}

// Escaped counts particle centres strictly outside the boundary disc.
func Escaped(w dynamo.World) int {
	center, radius := w.Boundary()
	n := 0
	for _, b := range w.Bodies() {
		if r2.Norm(r2.Sub(b.Position, center)) > radius {
			n++
		}
	}
	return n
}
