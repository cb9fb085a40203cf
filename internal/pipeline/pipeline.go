package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/google/uuid"
)

// Fetcher returns the raw rows of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src model.Source) (model.RawSheet, error)
}

// Result is the complete output of one run.
type Result struct {
	StartedAt time.Time
	Table     *model.Table
	// Log is the normalized auxiliary operator log; nil when not configured
	// or when it failed.
	Log      *model.RawSheet
	LogError error
	RunID    string
	Sources  []model.SourceStatus
	Summary  Summary
	Duration time.Duration
}

// Failed returns the statuses of the sources that contributed no rows
// because their fetch failed.
func (r *Result) Failed() []model.SourceStatus {
	var out []model.SourceStatus
	for _, s := range r.Sources {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Pipeline runs fetch, normalize, merge and resolve for a fixed Config.
type Pipeline struct {
	fetcher  Fetcher
	logger   *slog.Logger
	now      func() time.Time
	onSource func(model.SourceStatus)
	cfg      Config
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used for run timestamps and the default date.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithSourceCallback registers fn to be called after each source is fetched.
func WithSourceCallback(fn func(model.SourceStatus)) Option {
	return func(p *Pipeline) {
		p.onSource = fn
	}
}

// New creates a pipeline.
func New(cfg Config, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run fetches every source in order and builds the unified table. A failing
// source contributes zero rows; only an authentication failure aborts.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	sources := p.cfg.Sources()
	sheets := make([]model.RawSheet, 0, len(sources))
	statuses := make([]model.SourceStatus, 0, len(sources))

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sheet, status := p.fetch(ctx, src)
		statuses = append(statuses, status)
		if p.onSource != nil {
			p.onSource(status)
		}

		if status.Err != nil {
			if common.IsFatal(status.Err) {
				logger.Error("authentication failed, aborting refresh", "source", src.ID, "error", status.Err)
				return nil, status.Err
			}
			logger.Warn("source fetch failed, continuing without it",
				"source", src.ID,
				"label", src.Label,
				"error", status.Err)
			continue
		}
		sheets = append(sheets, sheet)
	}

	result := &Result{
		RunID:     runID,
		StartedAt: started,
		Sources:   statuses,
	}

	if logSrc, ok := p.cfg.LogSource(); ok {
		sheet, status := p.fetch(ctx, logSrc)
		if status.Err != nil {
			if common.IsFatal(status.Err) {
				return nil, status.Err
			}
			logger.Warn("operator log fetch failed", "source", logSrc.ID, "error", status.Err)
			result.LogError = status.Err
		} else {
			normalized := NormalizeSheet(sheet)
			result.Log = &normalized
		}
	}

	result.Table = Build(sheets, p.cfg, Today(started))
	result.Summary = Summarize(result.Table, p.cfg)
	result.Duration = p.now().Sub(started)

	logger.Info("refresh completed",
		"records", result.Table.Len(),
		"sources_ok", len(statuses)-len(result.Failed()),
		"sources_failed", len(result.Failed()),
		"date_column", result.Table.Date.Column,
		"numeric_columns", len(result.Table.NumericColumns),
		"duration", result.Duration)

	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context, src model.Source) (model.RawSheet, model.SourceStatus) {
	start := p.now()
	sheet, err := p.fetcher.Fetch(ctx, src)
	status := model.SourceStatus{
		SourceID: src.ID,
		Label:    src.Label,
		Duration: p.now().Sub(start),
	}
	if err != nil {
		status.Err = common.NewSourceError(src.ID, err)
		return model.RawSheet{}, status
	}

	// The label always comes from configuration, never from the backend.
	sheet.SourceLabel = src.Label
	status.Rows = sheet.Len()
	p.logger.Debug("fetched source", "source", src.ID, "rows", status.Rows, "duration", status.Duration)
	return sheet, status
}

// Build runs the pure part of the pipeline over already fetched sheets:
// header normalization, merge, date resolution and numeric resolution.
func Build(sheets []model.RawSheet, cfg Config, today time.Time) *model.Table {
	normalized := make([]model.RawSheet, len(sheets))
	for i, s := range sheets {
		normalized[i] = NormalizeSheet(s)
	}

	table := Merge(normalized)
	table.Date = ResolveDate(table.Columns, cfg)
	applyDates(table, today)
	applyNumeric(table, cfg)

	return table
}

// StatusLine summarizes a source status for log lines and the CLI.
func StatusLine(s model.SourceStatus) string {
	if s.Err != nil {
		return fmt.Sprintf("%s: failed (%v)", s.Label, s.Err)
	}
	return fmt.Sprintf("%s: %d rows in %s", s.Label, s.Rows, s.Duration.Round(time.Millisecond))
}
