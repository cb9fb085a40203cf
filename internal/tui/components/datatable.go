package components

import (
	"github.com/Veraticus/posko/internal/tui/themes"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DataTable is a scrollable table of string rows with themed styles.
type DataTable struct {
	table   table.Model
	headers []string
	rows    [][]string
	width   int
}

// NewDataTable creates an empty table.
func NewDataTable(theme themes.Theme) DataTable {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	return DataTable{table: t, width: 80}
}

// SetData replaces the header and rows. Short rows are padded.
func (d *DataTable) SetData(headers []string, rows [][]string) {
	d.headers = headers
	d.rows = rows
	d.layout()
}

// Resize sets the available size.
func (d *DataTable) Resize(width, height int) {
	d.width = width
	d.table.SetHeight(max(height, 3))
	d.layout()
}

// Len returns the number of rows.
func (d DataTable) Len() int {
	return len(d.rows)
}

// Cursor returns the selected row index.
func (d DataTable) Cursor() int {
	return d.table.Cursor()
}

// Update handles navigation keys.
func (d DataTable) Update(msg tea.Msg) (DataTable, tea.Cmd) {
	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

// View renders the table.
func (d DataTable) View() string {
	return d.table.View()
}

// layout splits the width evenly, giving the last column the remainder.
func (d *DataTable) layout() {
	n := len(d.headers)
	if n == 0 {
		d.table.SetRows(nil)
		d.table.SetColumns(nil)
		return
	}

	// Each column carries two cells of padding.
	avail := max(d.width-2*n, n)
	each := max(avail/n, 4)

	cols := make([]table.Column, n)
	for i, h := range d.headers {
		w := each
		if i == n-1 {
			w = max(avail-each*(n-1), 4)
		}
		cols[i] = table.Column{Title: Truncate(h, w), Width: w}
	}

	rows := make([]table.Row, len(d.rows))
	for i, r := range d.rows {
		row := make(table.Row, n)
		for j := 0; j < n && j < len(r); j++ {
			row[j] = Truncate(r[j], cols[j].Width)
		}
		rows[i] = row
	}

	// Rows must be cleared before the column count changes.
	d.table.SetRows(nil)
	d.table.SetColumns(cols)
	d.table.SetRows(rows)
	d.table.SetWidth(d.width)
}
