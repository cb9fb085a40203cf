package pipeline

import (
	"strconv"
	"strings"

	"github.com/Veraticus/posko/internal/model"
)

// IsNumericHeader reports whether a header names a count column: it must
// contain a numeric keyword and no exclusion keyword.
func (c Config) IsNumericHeader(header string) bool {
	h := strings.ToLower(header)
	return containsAny(h, c.numericKeywords) && !containsAny(h, c.excludeKeywords)
}

// Classify returns the kind a column gets in a table whose date resolution is d.
func (c Config) Classify(header string, d model.DateResolution) model.ColumnKind {
	for _, col := range d.Candidates() {
		if col == header {
			return model.ColumnDate
		}
	}
	if c.IsNumericHeader(header) {
		return model.ColumnNumeric
	}
	return model.ColumnText
}

// SanitizeInt keeps only the ASCII digits of s and parses them. Separators
// are dropped, not interpreted: "10.362", "10,362" and "10362" are all 10362
// and "10,5" is 105. Empty or overflowing input is 0.
func SanitizeInt(s string) int64 {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// applyNumeric classifies the table's columns and fills each record's
// numeric map. Columns with at least one non-zero value become chart columns.
func applyNumeric(t *model.Table, cfg Config) {
	t.NumericColumns = make([]string, 0)
	for _, col := range t.Columns {
		if cfg.Classify(col, t.Date) == model.ColumnNumeric {
			t.NumericColumns = append(t.NumericColumns, col)
		}
	}

	nonZero := make(map[string]bool, len(t.NumericColumns))
	for i := range t.Records {
		rec := &t.Records[i]
		rec.Numeric = make(map[string]int64, len(t.NumericColumns))
		for _, col := range t.NumericColumns {
			raw, ok := rec.Field(col)
			if !ok {
				continue
			}
			v := SanitizeInt(raw)
			rec.Numeric[col] = v
			if v != 0 {
				nonZero[col] = true
			}
		}
	}

	t.ChartColumns = make([]string, 0, len(nonZero))
	for _, col := range t.NumericColumns {
		if nonZero[col] {
			t.ChartColumns = append(t.ChartColumns, col)
		}
	}
}
