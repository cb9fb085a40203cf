package pipeline

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/posko/internal/model"
)

// OccupancyTable maps a free-text congestion status to a percentage band.
type OccupancyTable map[string]int

// DefaultOccupancy returns the bands used on the posko charts.
func DefaultOccupancy() map[string]int {
	return map[string]int{
		"Lancar": 25,
		"Normal": 50,
		"Ramai":  70,
		"Padat":  85,
		"Macet":  100,
	}
}

// NewOccupancyTable builds a lookup whose keys match case- and
// space-insensitively.
func NewOccupancyTable(bands map[string]int) OccupancyTable {
	t := make(OccupancyTable, len(bands))
	for status, pct := range bands {
		t[statusKey(status)] = pct
	}
	return t
}

// Percent returns the band for status, or 0 when the status is unmapped.
func (t OccupancyTable) Percent(status string) int {
	return t[statusKey(status)]
}

func statusKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ColumnTotal is the sum of one numeric column over the whole table.
type ColumnTotal struct {
	Column string `json:"column"`
	Total  int64  `json:"total"`
}

// DateSourceGroup aggregates the records of one source on one day.
type DateSourceGroup struct {
	Sums   map[string]int64 `json:"sums"`
	Date   string           `json:"date"`
	Source string           `json:"source"`
	Count  int              `json:"count"`
}

// DateStatusGroup counts the records reporting one status on one day.
type DateStatusGroup struct {
	Date      string `json:"date"`
	Status    string `json:"status"`
	Count     int    `json:"count"`
	Occupancy int    `json:"occupancy"`
}

// Issue is a record whose free-text issue field carries real content.
type Issue struct {
	Date   string `json:"date"`
	Source string `json:"source"`
	Column string `json:"column"`
	Text   string `json:"text"`
	Index  int    `json:"index"`
}

// SeriesPoint is one melted chart value: a numeric column on a day for a source.
type SeriesPoint struct {
	Date   string `json:"date"`
	Source string `json:"source"`
	Column string `json:"column"`
	Value  int64  `json:"value"`
}

// Totals sums every numeric column, in column order.
func Totals(t *model.Table) []ColumnTotal {
	out := make([]ColumnTotal, 0, len(t.NumericColumns))
	for _, col := range t.NumericColumns {
		var sum int64
		for _, rec := range t.Records {
			sum += rec.Numeric[col]
		}
		out = append(out, ColumnTotal{Column: col, Total: sum})
	}
	return out
}

// ByDateSource groups records by (date, source). Groups are ordered by date
// with missing dates last, then by the order of sourceOrder.
func ByDateSource(t *model.Table, sourceOrder []string) []DateSourceGroup {
	type key struct{ date, source string }

	groups := make(map[key]*DateSourceGroup)
	for _, rec := range t.Records {
		k := key{rec.DateKey(), rec.SourceLabel}
		g, ok := groups[k]
		if !ok {
			g = &DateSourceGroup{Date: k.date, Source: k.source, Sums: make(map[string]int64)}
			groups[k] = g
		}
		g.Count++
		for col, v := range rec.Numeric {
			g.Sums[col] += v
		}
	}

	rank := orderIndex(sourceOrder)
	out := make([]DateSourceGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return dateLess(out[i].Date, out[j].Date)
		}
		return rank(out[i].Source) < rank(out[j].Source)
	})
	return out
}

// StatusColumn returns the first column whose header names a status.
func StatusColumn(t *model.Table, cfg Config) (string, bool) {
	for _, col := range t.Columns {
		if t.Kind(col) == model.ColumnText && containsAny(strings.ToLower(col), cfg.statusKeywords) {
			return col, true
		}
	}
	return "", false
}

// ByDateStatus counts records per (date, status) using column as the status
// field. Records without the column or with a blank status are skipped.
func ByDateStatus(t *model.Table, column string, occupancy OccupancyTable) []DateStatusGroup {
	type key struct{ date, status string }

	groups := make(map[key]*DateStatusGroup)
	for _, rec := range t.Records {
		raw, ok := rec.Field(column)
		status := strings.TrimSpace(raw)
		if !ok || status == "" {
			continue
		}
		k := key{rec.DateKey(), status}
		g, exists := groups[k]
		if !exists {
			g = &DateStatusGroup{Date: k.date, Status: status, Occupancy: occupancy.Percent(status)}
			groups[k] = g
		}
		g.Count++
	}

	out := make([]DateStatusGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return dateLess(out[i].Date, out[j].Date)
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// IssueColumns returns the columns holding free-text issue reports.
func IssueColumns(t *model.Table, cfg Config) []string {
	var cols []string
	for _, col := range t.Columns {
		if t.Kind(col) != model.ColumnText {
			continue
		}
		if containsAny(strings.ToLower(col), cfg.issueKeywords) {
			cols = append(cols, col)
		}
	}
	return cols
}

// FlaggedIssues returns one Issue per record and issue column whose text is
// longer than the configured threshold and is not a placeholder.
func FlaggedIssues(t *model.Table, cfg Config) []Issue {
	cols := IssueColumns(t, cfg)
	var out []Issue
	for i, rec := range t.Records {
		for _, col := range cols {
			raw, ok := rec.Field(col)
			if !ok || !isSubstantive(raw, cfg.issueMinLength) {
				continue
			}
			out = append(out, Issue{
				Index:  i,
				Date:   rec.DateKey(),
				Source: rec.SourceLabel,
				Column: col,
				Text:   strings.TrimSpace(raw),
			})
		}
	}
	return out
}

var placeholders = map[string]bool{
	"-": true, "--": true, "---": true, "–": true, "—": true,
	"nihil": true, "tidak ada": true, "n/a": true, "na": true,
}

func isSubstantive(text string, minLength int) bool {
	s := strings.TrimSpace(text)
	if placeholders[strings.ToLower(s)] {
		return false
	}
	return utf8.RuneCountInString(s) > minLength
}

// Series melts the chart columns into (date, source, column) sums, the shape
// the line and bar charts plot.
func Series(t *model.Table, sourceOrder []string) []SeriesPoint {
	var out []SeriesPoint
	for _, g := range ByDateSource(t, sourceOrder) {
		for _, col := range t.ChartColumns {
			v, ok := g.Sums[col]
			if !ok {
				continue
			}
			out = append(out, SeriesPoint{Date: g.Date, Source: g.Source, Column: col, Value: v})
		}
	}
	return out
}

// Summary bundles the aggregates of one run.
type Summary struct {
	StatusColumn string            `json:"status_column,omitempty"`
	Totals       []ColumnTotal     `json:"totals"`
	ByDateSource []DateSourceGroup `json:"by_date_source"`
	ByDateStatus []DateStatusGroup `json:"by_date_status"`
	Issues       []Issue           `json:"issues"`
	Series       []SeriesPoint     `json:"series"`
}

// Summarize computes every aggregate over t.
func Summarize(t *model.Table, cfg Config) Summary {
	labels := cfg.Labels()
	s := Summary{
		Totals:       Totals(t),
		ByDateSource: ByDateSource(t, labels),
		Issues:       FlaggedIssues(t, cfg),
		Series:       Series(t, labels),
	}
	if col, ok := StatusColumn(t, cfg); ok {
		s.StatusColumn = col
		s.ByDateStatus = ByDateStatus(t, col, cfg.occupancy)
	}
	return s
}

func orderIndex(order []string) func(string) int {
	idx := make(map[string]int, len(order))
	for i, v := range order {
		idx[v] = i
	}
	return func(v string) int {
		if i, ok := idx[v]; ok {
			return i
		}
		return len(order)
	}
}

// dateLess orders ISO day keys ascending with the missing key "" last.
func dateLess(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	return a < b
}
