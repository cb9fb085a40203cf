// Package pipeline turns raw spreadsheet tabs into one unified, typed table.
//
// A run fetches every configured source in order, trims headers, merges the
// sheets by column union, resolves a report date per record, sanitizes the
// numeric columns and derives the aggregates the dashboards consume. Nothing
// is carried between runs.
package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
)

// Config is the immutable description of a pipeline. Build it once with
// NewConfig and pass it to New; the pipeline never reads ambient state.
type Config struct {
	occupancy       OccupancyTable
	logSource       *model.Source
	sources         []model.Source
	primaryDates    []string
	secondaryDates  []string
	dateSubstrings  []string
	numericKeywords []string
	excludeKeywords []string
	issueKeywords   []string
	statusKeywords  []string
	issueMinLength  int
}

// Options holds the tunables used to build a Config. Zero-valued fields take
// the defaults from DefaultOptions.
type Options struct {
	Occupancy       map[string]int
	LogSource       *model.Source
	Sources         []model.Source
	PrimaryDates    []string
	SecondaryDates  []string
	DateSubstrings  []string
	NumericKeywords []string
	ExcludeKeywords []string
	IssueKeywords   []string
	StatusKeywords  []string
	IssueMinLength  int
}

// DefaultOptions returns the keyword lists used by the holiday posko sheets.
func DefaultOptions() Options {
	return Options{
		PrimaryDates:   []string{"Tanggal Laporan"},
		SecondaryDates: []string{"Timestamp"},
		DateSubstrings: []string{"tanggal", "tgl", "date"},
		NumericKeywords: []string{"jumlah", "total", "volume"},
		ExcludeKeywords: []string{
			"telp", "telepon", "phone", "no hp", "no. hp", "whatsapp", "nik", "ktp", "nomor", "kontak",
			"jenis", "nama",
		},
		IssueKeywords:  []string{"kendala", "kejadian", "masalah", "catatan", "keterangan", "issue"},
		StatusKeywords: []string{"status", "kondisi", "kepadatan", "situasi"},
		IssueMinLength: 3,
		Occupancy:      DefaultOccupancy(),
	}
}

// NewConfig validates opts and freezes them into a Config.
func NewConfig(opts Options) (Config, error) {
	def := DefaultOptions()

	if len(opts.Sources) == 0 {
		return Config{}, fmt.Errorf("%w: at least one source is required", common.ErrMissingConfig)
	}

	seen := make(map[string]bool, len(opts.Sources))
	for _, src := range opts.Sources {
		if src.ID == "" || src.Label == "" {
			return Config{}, fmt.Errorf("%w: source id and label are required", common.ErrInvalidConfig)
		}
		if seen[src.ID] {
			return Config{}, fmt.Errorf("%w: duplicate source id %q", common.ErrInvalidConfig, src.ID)
		}
		seen[src.ID] = true
	}

	if opts.IssueMinLength < 0 {
		return Config{}, fmt.Errorf("%w: issue minimum length cannot be negative", common.ErrInvalidConfig)
	}

	cfg := Config{
		sources:         slices.Clone(opts.Sources),
		primaryDates:    orDefault(opts.PrimaryDates, def.PrimaryDates, false),
		secondaryDates:  orDefault(opts.SecondaryDates, def.SecondaryDates, false),
		dateSubstrings:  orDefault(opts.DateSubstrings, def.DateSubstrings, true),
		numericKeywords: orDefault(opts.NumericKeywords, def.NumericKeywords, true),
		excludeKeywords: orDefault(opts.ExcludeKeywords, def.ExcludeKeywords, true),
		issueKeywords:   orDefault(opts.IssueKeywords, def.IssueKeywords, true),
		statusKeywords:  orDefault(opts.StatusKeywords, def.StatusKeywords, true),
		issueMinLength:  opts.IssueMinLength,
	}
	if cfg.issueMinLength == 0 {
		cfg.issueMinLength = def.IssueMinLength
	}

	occ := opts.Occupancy
	if len(occ) == 0 {
		occ = def.Occupancy
	}
	cfg.occupancy = NewOccupancyTable(occ)

	if opts.LogSource != nil {
		log := *opts.LogSource
		if seen[log.ID] {
			return Config{}, fmt.Errorf("%w: log source %q duplicates a data source", common.ErrInvalidConfig, log.ID)
		}
		cfg.logSource = &log
	}

	return cfg, nil
}

// Sources returns the data sources in merge order.
func (c Config) Sources() []model.Source {
	return slices.Clone(c.sources)
}

// LogSource returns the auxiliary operator log source, if configured.
func (c Config) LogSource() (model.Source, bool) {
	if c.logSource == nil {
		return model.Source{}, false
	}
	return *c.logSource, true
}

// Occupancy returns the status to percentage lookup.
func (c Config) Occupancy() OccupancyTable {
	return c.occupancy
}

// Labels returns source labels in configuration order.
func (c Config) Labels() []string {
	labels := make([]string, len(c.sources))
	for i, src := range c.sources {
		labels[i] = src.Label
	}
	return labels
}

// orDefault clones values, falling back to def when empty. Keyword lists are
// matched case-insensitively so they are lowered here once.
func orDefault(values, def []string, lower bool) []string {
	if len(values) == 0 {
		values = def
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if lower {
			v = strings.ToLower(v)
		}
		out = append(out, v)
	}
	return out
}
