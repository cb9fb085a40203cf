package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/tui/components"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// PrintSummary writes a human-readable report of one pipeline run.
func PrintSummary(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder

	b.WriteString(FormatTitle(fmt.Sprintf("Posko report (%d records)", res.Table.Len())))
	b.WriteString("\n")

	b.WriteString(RenderTable([]string{"Source", "Rows", "Duration", "Status"}, sourceRows(res)))
	b.WriteString("\n\n")

	date := res.Table.Date
	if date.Resolved() {
		b.WriteString(FormatInfo(fmt.Sprintf("Date column: %s (%s rule)", date.Column, date.Rule)))
		if len(date.Fallbacks) > 0 {
			b.WriteString(SubtleStyle.Render("  fallbacks: " + strings.Join(date.Fallbacks, ", ")))
		}
	} else {
		b.WriteString(FormatWarning("No date column found; every record is dated today"))
	}
	b.WriteString("\n\n")

	if len(res.Summary.Totals) == 0 {
		b.WriteString(SubtleStyle.Render("No numeric columns."))
	} else {
		rows := make([][]string, len(res.Summary.Totals))
		for i, t := range res.Summary.Totals {
			rows[i] = []string{t.Column, components.FormatCount(t.Total)}
		}
		b.WriteString(RenderTable([]string{"Column", "Total"}, rows))
	}
	b.WriteString("\n")

	if n := len(res.Summary.Issues); n > 0 {
		b.WriteString("\n")
		b.WriteString(FormatWarning(fmt.Sprintf("%d reported issue(s)", n)))
		b.WriteString("\n")
		for _, is := range res.Summary.Issues {
			fmt.Fprintf(&b, "  %s  %s  %s\n", is.Date, BoldStyle.Render(is.Source), is.Text)
		}
	}

	if res.LogError != nil {
		b.WriteString(FormatError("Operator log: " + res.LogError.Error()))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sourceRows(res *pipeline.Result) [][]string {
	rows := make([][]string, len(res.Sources))
	for i, s := range res.Sources {
		status := SuccessIcon + " ok"
		if s.Err != nil {
			status = ErrorIcon + " " + s.Err.Error()
		}
		rows[i] = []string{s.Label, strconv.Itoa(s.Rows), s.Duration.Round(time.Millisecond).String(), status}
	}
	return rows
}

// RenderTable renders rows under headers as a borderless table.
func RenderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		}).
		Render()
}
