package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/verletsim/internal/metrics"
)

type ExportData struct {
	Metadata RunMetadata      `json:"metadata"`
	Samples  []metrics.Sample `json:"samples"`
	Bodies   []BodyRecord     `json:"bodies"`
	Links    []LinkRecord     `json:"links"`
}

func (s *Store) export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return nil, err
	}
	bodies, err := s.LoadBodies(runID)
	if err != nil {
		return nil, err
	}
	links, err := s.LoadLinks(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Metadata: *meta, Samples: samples, Bodies: bodies, Links: links}, nil
}

// ExportJSON writes a whole run as a single JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	data, err := s.export(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportSVG draws the final snapshot of a run: the boundary disc, links and
// particles in world coordinates.
func (s *Store) ExportSVG(runID string, w io.Writer) error {
	data, err := s.export(runID)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, SnapshotSVG(data.Metadata.Center, data.Metadata.Radius, data.Bodies, data.Links))
	return err
}

func SnapshotSVG(center [2]float64, radius float64, bodies []BodyRecord, links []LinkRecord) string {
	pad := radius * 0.05
	minX, minY := center[0]-radius-pad, center[1]-radius-pad
	size := 2 * (radius + pad)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="%.2f %.2f %.2f %.2f">
<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#0a0a0a"/>
<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#1a1a1a" stroke="#444444"/>
`, size, size, minX, minY, size, size, minX, minY, size, size, center[0], center[1], radius)

	byHandle := make(map[int]BodyRecord, len(bodies))
	for _, b := range bodies {
		byHandle[b.Handle] = b
	}

	sb.WriteString(`<g stroke="#888888" stroke-width="2">` + "\n")
	for _, l := range links {
		a, okA := byHandle[l.A]
		b, okB := byHandle[l.B]
		if !okA || !okB {
			continue
		}
		fmt.Fprintf(&sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n", a.X, a.Y, b.X, b.Y)
	}
	sb.WriteString("</g>\n<g>\n")

	for _, b := range bodies {
		if math.IsNaN(b.X) || math.IsNaN(b.Y) {
			continue
		}
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n", b.X, b.Y, b.Radius, b.Color)
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}
