package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/tui/themes"
	"github.com/charmbracelet/bubbles/progress"
)

// OccupancyPanel lists status reports per day with an occupancy gauge.
type OccupancyPanel struct {
	theme  themes.Theme
	column string
	groups []pipeline.DateStatusGroup
	width  int
}

// NewOccupancyPanel creates an empty panel.
func NewOccupancyPanel(theme themes.Theme) OccupancyPanel {
	return OccupancyPanel{theme: theme, width: 80}
}

// SetData replaces the groups shown. column is the status header they were
// read from; empty when the table has none.
func (p *OccupancyPanel) SetData(column string, groups []pipeline.DateStatusGroup) {
	p.column = column
	p.groups = groups
}

// Resize sets the available width.
func (p *OccupancyPanel) Resize(width int) {
	p.width = width
}

// View renders one line per (date, status).
func (p OccupancyPanel) View() string {
	if p.column == "" {
		return p.theme.StatusPending.Render("Tidak ada kolom status/kepadatan.")
	}
	if len(p.groups) == 0 {
		return p.theme.StatusPending.Render("Belum ada laporan status.")
	}

	statusWidth := 8
	for _, g := range p.groups {
		statusWidth = max(statusWidth, len([]rune(g.Status)))
	}
	statusWidth = min(statusWidth, 18)
	barWidth := max(p.width-10-statusWidth-16, 10)

	var b strings.Builder
	b.WriteString(p.theme.Bold.Render(p.column))
	b.WriteString("\n\n")

	for _, g := range p.groups {
		bar := progress.New(
			progress.WithSolidFill(string(p.theme.OccupancyColor(g.Occupancy))),
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth),
		)
		date := g.Date
		if date == "" {
			date = "-"
		}
		fmt.Fprintf(&b, "%-10s %-*s %s %3d%% ×%d\n",
			date,
			statusWidth, Truncate(g.Status, statusWidth),
			bar.ViewAs(float64(g.Occupancy)/100),
			g.Occupancy,
			g.Count)
	}

	return strings.TrimRight(b.String(), "\n")
}
