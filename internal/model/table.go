// Package model defines the data types shared by the ingest pipeline and its consumers.
package model

import "time"

// RawSheet is one fetched source: a header row plus string rows.
type RawSheet struct {
	SourceLabel string
	Header      []string
	Rows        [][]string
}

// Len returns the number of data rows.
func (s RawSheet) Len() int {
	return len(s.Rows)
}

// SheetFromRows treats the first row as the header. Data rows are padded to
// the header width and cells beyond it are dropped. Fewer than two rows
// yields an empty sheet.
func SheetFromRows(rows [][]string) RawSheet {
	if len(rows) < 2 {
		return RawSheet{}
	}

	header := append([]string(nil), rows[0]...)
	data := make([][]string, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		row := make([]string, len(header))
		copy(row, raw)
		data = append(data, row)
	}

	return RawSheet{Header: header, Rows: data}
}

// UnifiedRecord is one row of the merged table.
type UnifiedRecord struct {
	// ReportDate is nil when the date cell could not be parsed.
	ReportDate  *time.Time
	Fields      map[string]string
	Numeric     map[string]int64
	SourceLabel string
}

// Field returns the raw value of column and whether the record's source had it.
func (r UnifiedRecord) Field(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}

// DateKey formats the report date for grouping; missing dates become "".
func (r UnifiedRecord) DateKey() string {
	if r.ReportDate == nil {
		return ""
	}
	return r.ReportDate.Format(DateLayout)
}

// DateLayout is the canonical day format used for grouping and output.
const DateLayout = "2006-01-02"

// ColumnKind classifies a merged column.
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnDate
	ColumnNumeric
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnDate:
		return "date"
	case ColumnNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// DateResolution tells callers whether report dates came from a real column.
type DateResolution struct {
	// Column is the winning header; empty when unresolved.
	Column string
	// Fallbacks are the other matching headers in priority order, used for
	// records whose source did not have Column.
	Fallbacks []string
	// Rule names the rule that matched ("primary", "secondary", "substring").
	Rule string
}

// Resolved reports whether a date column was found.
func (d DateResolution) Resolved() bool {
	return d.Column != ""
}

// Candidates returns Column followed by Fallbacks.
func (d DateResolution) Candidates() []string {
	if !d.Resolved() {
		return nil
	}
	out := make([]string, 0, len(d.Fallbacks)+1)
	out = append(out, d.Column)
	return append(out, d.Fallbacks...)
}

// Table is the unified table produced by one pipeline run.
type Table struct {
	Columns        []string
	Records        []UnifiedRecord
	NumericColumns []string
	// ChartColumns are the numeric columns with at least one non-zero value.
	ChartColumns []string
	Date         DateResolution
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Kind returns the classification of column.
func (t *Table) Kind(column string) ColumnKind {
	if t.Date.Column == column {
		return ColumnDate
	}
	for _, c := range t.Date.Fallbacks {
		if c == column {
			return ColumnDate
		}
	}
	for _, c := range t.NumericColumns {
		if c == column {
			return ColumnNumeric
		}
	}
	return ColumnText
}

// SourceStatus is the outcome of fetching one source during a run.
type SourceStatus struct {
	Err      error
	SourceID string
	Label    string
	Rows     int
	Duration time.Duration
}

// OK reports whether the source contributed without error.
func (s SourceStatus) OK() bool {
	return s.Err == nil
}
