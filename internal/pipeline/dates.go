package pipeline

import (
	"strings"
	"time"

	"github.com/Veraticus/posko/internal/model"
)

// dateRule is one step of the date column search. Rules are evaluated in
// order and the first column matched by the earliest rule wins.
type dateRule struct {
	match func(header string) bool
	name  string
}

func (c Config) dateRules() []dateRule {
	return []dateRule{
		{
			name: "primary",
			match: func(h string) bool {
				return containsExact(c.primaryDates, h)
			},
		},
		{
			name: "secondary",
			match: func(h string) bool {
				return containsExact(c.secondaryDates, h)
			},
		},
		{
			name: "substring",
			match: func(h string) bool {
				return containsAny(strings.ToLower(h), c.dateSubstrings)
			},
		},
	}
}

// ResolveDate picks the report date column for a merged column set. Every
// column matched by some rule is kept, in priority order, as a fallback for
// records whose source lacks the winning column.
func ResolveDate(columns []string, cfg Config) model.DateResolution {
	var (
		res  model.DateResolution
		seen = make(map[string]bool)
	)

	for _, rule := range cfg.dateRules() {
		for _, col := range columns {
			if seen[col] || !rule.match(col) {
				continue
			}
			seen[col] = true
			if !res.Resolved() {
				res.Column = col
				res.Rule = rule.name
				continue
			}
			res.Fallbacks = append(res.Fallbacks, col)
		}
	}

	return res
}

// applyDates sets ReportDate on every record. Unresolved tables get today;
// unparseable cells are left nil.
func applyDates(t *model.Table, today time.Time) {
	candidates := t.Date.Candidates()

	for i := range t.Records {
		rec := &t.Records[i]
		if len(candidates) == 0 {
			d := today
			rec.ReportDate = &d
			continue
		}

		for _, col := range candidates {
			raw, ok := rec.Field(col)
			if !ok {
				continue
			}
			rec.ReportDate = ParseDate(raw)
			break
		}
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// monthFirstLayouts are only tried once no day-first reading fits, as with
// US-locale Forms timestamps.
var monthFirstLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01-02-2006",
	"1-2-2006",
}

// monthNames maps lower-cased Indonesian month names to English ones.
var monthNames = strings.NewReplacer(
	"januari", "january",
	"februari", "february",
	"maret", "march",
	"mei", "may",
	"juni", "june",
	"juli", "july",
	"agustus", "august",
	"agu", "aug",
	"oktober", "october",
	"okt", "oct",
	"desember", "december",
	"des", "dec",
)

// ParseDate parses a loosely formatted date. Slash, dash and dot dates are
// day-first unless only a month-first reading is valid. Month names may be
// Indonesian or English in any case. The result is truncated to the
// calendar day; nil means the cell is missing or unparseable.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	inputs := []string{s}
	if folded := monthNames.Replace(strings.ToLower(s)); folded != s {
		inputs = append(inputs, folded)
	}

	for _, layouts := range [][]string{dateLayouts, monthFirstLayouts} {
		for _, in := range inputs {
			for _, layout := range layouts {
				t, err := time.Parse(layout, in)
				if err != nil {
					continue
				}
				d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return &d
			}
		}
	}
	return nil
}

// Today returns now's calendar day in the same form ParseDate produces.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func containsExact(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
