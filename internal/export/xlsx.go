// Package export writes a pipeline result to an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	SheetData    = "Data"
	SheetSummary = "Summary"
	SheetIssues  = "Issues"
	SheetSources = "Sources"
	SheetLog     = "Log"
)

// Workbook builds the workbook for res. The caller must Close it.
func Workbook(res *pipeline.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	w := &sheetWriter{f: f, header: header}
	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	steps := []func(*pipeline.Result) error{
		w.data,
		w.summary,
		w.issues,
		w.sources,
		w.log,
	}
	for _, step := range steps {
		if err := step(res); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write encodes the workbook for res to out.
func Write(res *pipeline.Result, out io.Writer) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook for res at path.
func WriteFile(res *pipeline.Result, path string) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

type sheetWriter struct {
	f      *excelize.File
	header int
}

func (w *sheetWriter) ensure(name string) error {
	if idx, _ := w.f.GetSheetIndex(name); idx >= 0 {
		return nil
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	return nil
}

// rows writes header plus rows starting at A1 and styles the header.
func (w *sheetWriter) rows(name string, header []any, rows [][]any) error {
	if err := w.ensure(name); err != nil {
		return err
	}

	all := append([][]any{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i+1, err)
		}
	}

	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStyle(name, "A1", last, w.header); err != nil {
			return fmt.Errorf("failed to style %s header: %w", name, err)
		}
	}
	return nil
}

func (w *sheetWriter) data(res *pipeline.Result) error {
	t := res.Table
	header := []any{"Source", "Report Date"}
	for _, c := range t.Columns {
		header = append(header, c)
	}

	rows := make([][]any, 0, t.Len())
	for _, rec := range t.Records {
		row := []any{rec.SourceLabel, rec.DateKey()}
		for _, c := range t.Columns {
			if n, ok := rec.Numeric[c]; ok {
				row = append(row, n)
				continue
			}
			v, _ := rec.Field(c)
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	if err := w.rows(SheetData, header, rows); err != nil {
		return err
	}
	return w.f.SetPanes(SheetData, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *sheetWriter) summary(res *pipeline.Result) error {
	s := res.Summary
	cols := res.Table.NumericColumns

	header := []any{"Date", "Source", "Rows"}
	for _, c := range cols {
		header = append(header, c)
	}

	rows := make([][]any, 0, len(s.ByDateSource)+1)
	for _, g := range s.ByDateSource {
		row := []any{g.Date, g.Source, g.Count}
		for _, c := range cols {
			row = append(row, g.Sums[c])
		}
		rows = append(rows, row)
	}

	total := []any{"Total", "", res.Table.Len()}
	for _, ct := range s.Totals {
		total = append(total, ct.Total)
	}
	rows = append(rows, total)

	return w.rows(SheetSummary, header, rows)
}

func (w *sheetWriter) issues(res *pipeline.Result) error {
	rows := make([][]any, 0, len(res.Summary.Issues))
	for _, is := range res.Summary.Issues {
		rows = append(rows, []any{is.Date, is.Source, is.Column, is.Text})
	}
	return w.rows(SheetIssues, []any{"Date", "Source", "Column", "Text"}, rows)
}

func (w *sheetWriter) sources(res *pipeline.Result) error {
	rows := make([][]any, 0, len(res.Sources))
	for _, st := range res.Sources {
		errText := ""
		if st.Err != nil {
			errText = st.Err.Error()
		}
		rows = append(rows, []any{st.SourceID, st.Label, st.Rows, st.Duration.Milliseconds(), errText})
	}
	return w.rows(SheetSources, []any{"ID", "Label", "Rows", "Duration (ms)", "Error"}, rows)
}

func (w *sheetWriter) log(res *pipeline.Result) error {
	if res.Log == nil || len(res.Log.Header) == 0 {
		return nil
	}

	header := make([]any, len(res.Log.Header))
	for i, h := range res.Log.Header {
		header[i] = h
	}
	rows := make([][]any, 0, res.Log.Len())
	for _, r := range res.Log.Rows {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		rows = append(rows, row)
	}
	return w.rows(SheetLog, header, rows)
}
