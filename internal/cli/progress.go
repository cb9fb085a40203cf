package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/schollz/progressbar/v3"
)

// FetchProgress reports per-source fetch progress on a terminal bar.
type FetchProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	failed []string
	mu     sync.Mutex
}

// NewFetchProgress creates a bar for total sources.
func NewFetchProgress(w io.Writer, total int) *FetchProgress {
	p := &FetchProgress{writer: w}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Fetching sources...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Option returns the pipeline option that feeds this bar.
func (p *FetchProgress) Option() pipeline.Option {
	return pipeline.WithSourceCallback(p.Observe)
}

// Observe advances the bar for one finished source.
func (p *FetchProgress) Observe(s model.SourceStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !s.OK() {
		p.failed = append(p.failed, s.Label)
	}
	p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", s.Label))
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Failed returns the labels of the sources that failed so far.
func (p *FetchProgress) Failed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.failed...)
}

// Finish completes the bar even when the run stopped early.
func (p *FetchProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
