package components

import (
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

// KPIPanel renders one card per numeric column total plus the record count.
type KPIPanel struct {
	theme   themes.Theme
	totals  []pipeline.ColumnTotal
	records int
	width   int
}

// NewKPIPanel creates an empty panel.
func NewKPIPanel(theme themes.Theme) KPIPanel {
	return KPIPanel{theme: theme, width: 80}
}

// SetData replaces the figures shown.
func (p *KPIPanel) SetData(totals []pipeline.ColumnTotal, records int) {
	p.totals = totals
	p.records = records
}

// Resize sets the available width.
func (p *KPIPanel) Resize(width int) {
	p.width = width
}

// View renders the cards, wrapping onto new lines when they do not fit.
func (p KPIPanel) View() string {
	cards := []string{p.card("Laporan masuk", FormatCount(int64(p.records)))}
	for _, t := range p.totals {
		cards = append(cards, p.card(t.Column, FormatCount(t.Total)))
	}

	var lines []string
	var row []string
	used := 0
	for _, c := range cards {
		w := lipgloss.Width(c)
		if used > 0 && used+w > p.width {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, c)
		used += w
	}
	if len(row) > 0 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (p KPIPanel) card(label, value string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		p.theme.Subtitle.Render(Truncate(label, 24)),
		p.theme.Title.Foreground(p.theme.Primary).Render(value),
	)
	return p.theme.Card.Render(body)
}
