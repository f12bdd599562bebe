package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Standard returns the metrics recorded for every batch run.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(),
		NewMaxOverlap(),
		NewLinkStrain(),
		NewContainment(),
	}
}

// KineticEnergyMetric reports the mean total kinetic energy over observed frames.
type KineticEnergyMetric struct {
	values []float64
}

func NewKineticEnergy() *KineticEnergyMetric { return &KineticEnergyMetric{} }

func (m *KineticEnergyMetric) Name() string { return "kinetic_energy" }

func (m *KineticEnergyMetric) Observe(w dynamo.World, t float64) {
	m.values = append(m.values, KineticEnergy(w))
}

func (m *KineticEnergyMetric) Value() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return stat.Mean(m.values, nil)
}

func (m *KineticEnergyMetric) Reset() { m.values = m.values[:0] }

// MaxOverlapMetric reports the worst interpenetration seen.
type MaxOverlapMetric struct {
	worst float64
}

func NewMaxOverlap() *MaxOverlapMetric { return &MaxOverlapMetric{} }

func (m *MaxOverlapMetric) Name() string { return "max_overlap" }

func (m *MaxOverlapMetric) Observe(w dynamo.World, t float64) {
	m.worst = math.Max(m.worst, MaxOverlap(w))
}

func (m *MaxOverlapMetric) Value() float64 { return m.worst }

func (m *MaxOverlapMetric) Reset() { m.worst = 0 }

type LinkStrainMetric struct {
	worst float64
}

func NewLinkStrain() *LinkStrainMetric { return &LinkStrainMetric{} }

func (m *LinkStrainMetric) Name() string { return "link_strain" }

func (m *LinkStrainMetric) Observe(w dynamo.World, t float64) {
	m.worst = math.Max(m.worst, MaxStrain(w))
}

func (m *LinkStrainMetric) Value() float64 { return m.worst }

func (m *LinkStrainMetric) Reset() { m.worst = 0 }

// ContainmentMetric is the fraction of observed frames with every particle
// centre inside the boundary.
type ContainmentMetric struct {
	contained int
	samples   int
}

func NewContainment() *ContainmentMetric { return &ContainmentMetric{} }

func (m *ContainmentMetric) Name() string { return "containment" }

func (m *ContainmentMetric) Observe(w dynamo.World, t float64) {
	if Escaped(w) == 0 {
		m.contained++
	}
	m.samples++
}

func (m *ContainmentMetric) Value() float64 {
	if m.samples == 0 {
		return 1
	}
	return float64(m.contained) / float64(m.samples)
}

func (m *ContainmentMetric) Reset() {
	m.contained = 0
	m.samples = 0
}

// Summary condenses a sample trace.
type Summary struct {
	Frames          int     `json:"frames"`
	MeanKinetic     float64 `json:"mean_kinetic_energy"`
	StdDevKinetic   float64 `json:"stddev_kinetic_energy"`
	PeakOverlap     float64 `json:"peak_overlap"`
	PeakStrain      float64 `json:"peak_link_strain"`
	MaxEscaped      int     `json:"max_escaped"`
	TotalDegenerate int     `json:"total_degenerate"`
}

func Summarize(samples []Sample) Summary {
	s := Summary{Frames: len(samples)}
	if len(samples) == 0 {
		return s
	}

	kinetic := Column(samples, func(x Sample) float64 { return x.Kinetic })
	s.MeanKinetic, s.StdDevKinetic = stat.MeanStdDev(kinetic, nil)
	if len(samples) == 1 {
		s.StdDevKinetic = 0
	}
	s.PeakOverlap = floats.Max(Column(samples, func(x Sample) float64 { return x.MaxOverlap }))
	s.PeakStrain = floats.Max(Column(samples, func(x Sample) float64 { return x.MaxStrain }))
	for _, x := range samples {
		s.MaxEscaped = max(s.MaxEscaped, x.Escaped)
		s.TotalDegenerate += x.Degenerate
	}
	return s
}

// Column extracts one field of a trace for plotting or statistics.
func Column(samples []Sample, field func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = field(s)
	}
	return out
}
