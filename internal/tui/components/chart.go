package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

// BarChart draws grouped horizontal bars: one group per date, one bar per
// source, for a single numeric column.
type BarChart struct {
	theme   themes.Theme
	column  string
	sources []string
	points  []pipeline.SeriesPoint
	width   int
}

// NewBarChart creates an empty chart.
func NewBarChart(theme themes.Theme) BarChart {
	return BarChart{theme: theme, width: 80}
}

// SetData selects the points of column from series. sources fixes the bar
// order and colours.
func (c *BarChart) SetData(column string, series []pipeline.SeriesPoint, sources []string) {
	c.column = column
	c.sources = sources
	c.points = c.points[:0]
	for _, p := range series {
		if p.Column == column {
			c.points = append(c.points, p)
		}
	}
}

// Resize sets the available width.
func (c *BarChart) Resize(width int) {
	c.width = width
}

// View renders the chart.
func (c BarChart) View() string {
	if c.column == "" || len(c.points) == 0 {
		return c.theme.StatusPending.Render("Tidak ada data numerik untuk digambar.")
	}

	var peak int64
	labelWidth := 0
	for _, p := range c.points {
		peak = max(peak, p.Value)
		labelWidth = max(labelWidth, len([]rune(p.Source)))
	}
	labelWidth = min(labelWidth, 20)

	valueWidth := len(FormatCount(peak))
	barWidth := max(c.width-labelWidth-valueWidth-4, 4)

	var b strings.Builder
	b.WriteString(c.theme.Bold.Render(c.column))
	b.WriteString("\n")
	b.WriteString(c.legend())
	b.WriteString("\n")

	date := "\x00"
	for _, p := range c.points {
		if p.Date != date {
			date = p.Date
			label := date
			if label == "" {
				label = "tanpa tanggal"
			}
			b.WriteString("\n")
			b.WriteString(c.theme.Subtitle.Render(label))
			b.WriteString("\n")
		}

		n := 0
		if peak > 0 {
			n = int(p.Value * int64(barWidth) / peak)
		}
		if p.Value > 0 && n == 0 {
			n = 1
		}
		bar := lipgloss.NewStyle().Foreground(c.color(p.Source)).Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%-*s %s %s\n", labelWidth, Truncate(p.Source, labelWidth), bar, FormatCount(p.Value))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (c BarChart) legend() string {
	items := make([]string, 0, len(c.sources))
	for i, s := range c.sources {
		swatch := lipgloss.NewStyle().Foreground(c.theme.SeriesColor(i)).Render("■")
		items = append(items, swatch+" "+s)
	}
	return c.theme.Normal.Render(strings.Join(items, "  "))
}

func (c BarChart) color(source string) lipgloss.Color {
	for i, s := range c.sources {
		if s == source {
			return c.theme.SeriesColor(i)
		}
	}
	return c.theme.Muted
}
