package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// load runs the pipeline through the loader.
func (m Model) load() tea.Cmd {
	ctx := m.ctx
	loader := m.loader
	return func() tea.Msg {
		res, err := loader.Refresh(ctx)
		return resultMsg{res: res, err: err}
	}
}

// tick schedules the next refresh.
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.config.RefreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg{at: t}
	})
}

func background(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
