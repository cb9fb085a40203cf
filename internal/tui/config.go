package tui

import (
	"time"

	"github.com/Veraticus/posko/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme           themes.Theme
	now             func() time.Time
	Title           string
	Width           int
	Height          int
	RefreshInterval time.Duration
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:           themes.Default,
		Title:           "Dashboard Posko Angkutan",
		Width:           80,
		Height:          24,
		RefreshInterval: 10 * time.Second,
		now:             time.Now,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithRefreshInterval sets how often the pipeline is re-run.
// Non-positive values are ignored.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.RefreshInterval = d
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithClock overrides the clock used for the status line.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.now = now
	}
}
