package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme is the palette of the live view.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Good      lipgloss.Color
	Warn      lipgloss.Color
	Bad       lipgloss.Color
}

var Themes = []Theme{
	{
		Name:      "cyberpunk",
		Primary:   "#ff00ff",
		Secondary: "#00ffff",
		Text:      "#ffffff",
		Muted:     "#666666",
		Good:      "#00ff88",
		Warn:      "#ffcc00",
		Bad:       "#ff4444",
	},
	{
		Name:      "retro",
		Primary:   "#00ff00",
		Secondary: "#88ff88",
		Text:      "#00ff00",
		Muted:     "#005500",
		Good:      "#88ff88",
		Warn:      "#ffff00",
		Bad:       "#ff0000",
	},
	{
		Name:      "ocean",
		Primary:   "#0077be",
		Secondary: "#00a8cc",
		Text:      "#e0f0ff",
		Muted:     "#4488aa",
		Good:      "#00ff88",
		Warn:      "#ffcc00",
		Bad:       "#ff4444",
	},
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Canvas lipgloss.Style
	Panel  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Graph  lipgloss.Style
	Help   lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Canvas: lipgloss.NewStyle().Foreground(t.Text).Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(42),
		Header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		Label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:  lipgloss.NewStyle().Foreground(t.Text),
		Graph:  lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 0),
		Help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		Good:   lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		Warn:   lipgloss.NewStyle().Foreground(t.Warn).Bold(true),
		Bad:    lipgloss.NewStyle().Foreground(t.Bad).Bold(true),
	}
}

// GradientText colours each rune of text along a blend from start to end.
func GradientText(text string, start, end lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	a, errA := colorful.Hex(string(start))
	b, errB := colorful.Hex(string(end))
	if errA != nil || errB != nil {
		return text
	}

	var sb strings.Builder
	for i, r := range runes {
		f := 0.0
		if len(runes) > 1 {
			f = float64(i) / float64(len(runes)-1)
		}
		c := lipgloss.Color(a.BlendLab(b, f).Clamped().Hex())
		sb.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(r)))
	}
	return sb.String()
}

// Gauge renders a bar for a value in [0, 1], coloured by how full it is.
func (s Styles) Gauge(f float64, width int) string {
	filled := int(f * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case f > 0.8:
		return s.Bad.Render(bar)
	case f > 0.4:
		return s.Warn.Render(bar)
	}
	return s.Good.Render(bar)
}

// Sparkline renders the last width values as block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune("▁▂▃▄▅▆▇█")
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / span * float64(len(chars)-1)))
		sb.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return sb.String()
}
