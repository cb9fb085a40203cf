package pipeline

import (
	"strconv"
	"strings"

	"github.com/Veraticus/posko/internal/model"
)

// NormalizeHeader trims leading and trailing whitespace, preserving case.
func NormalizeHeader(h string) string {
	return strings.TrimSpace(h)
}

// NormalizeSheet returns a copy of sheet with trimmed headers. Headers that
// collide after trimming are suffixed ".1", ".2", ... so every cell keeps
// its own field.
func NormalizeSheet(sheet model.RawSheet) model.RawSheet {
	header := make([]string, len(sheet.Header))
	used := make(map[string]int, len(sheet.Header))

	for i, h := range sheet.Header {
		name := NormalizeHeader(h)
		if n, dup := used[name]; dup {
			candidate := name
			for {
				n++
				candidate = name + "." + strconv.Itoa(n)
				if _, taken := used[candidate]; !taken {
					break
				}
			}
			used[name] = n
			name = candidate
		}
		used[name] = 0
		header[i] = name
	}

	return model.RawSheet{
		SourceLabel: sheet.SourceLabel,
		Header:      header,
		Rows:        sheet.Rows,
	}
}

// Merge union-concatenates normalized sheets in the given order. Columns are
// listed in first-seen order; a column a sheet lacks is simply absent from
// that sheet's records. No sheets yields an empty, non-nil table.
func Merge(sheets []model.RawSheet) *model.Table {
	total := 0
	for _, s := range sheets {
		total += s.Len()
	}

	table := &model.Table{
		Columns: make([]string, 0),
		Records: make([]model.UnifiedRecord, 0, total),
	}
	seen := make(map[string]bool)

	for _, sheet := range sheets {
		for _, col := range sheet.Header {
			if !seen[col] {
				seen[col] = true
				table.Columns = append(table.Columns, col)
			}
		}

		for _, row := range sheet.Rows {
			fields := make(map[string]string, len(sheet.Header))
			for i, col := range sheet.Header {
				if i < len(row) {
					fields[col] = row[i]
				} else {
					fields[col] = ""
				}
			}
			table.Records = append(table.Records, model.UnifiedRecord{
				SourceLabel: sheet.SourceLabel,
				Fields:      fields,
			})
		}
	}

	return table
}
