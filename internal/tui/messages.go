package tui

import (
	"time"

	"github.com/Veraticus/posko/internal/pipeline"
)

// refreshTickMsg fires when the refresh interval elapses.
type refreshTickMsg struct {
	at time.Time
}

// resultMsg carries the outcome of one pipeline run.
type resultMsg struct {
	res *pipeline.Result
	err error
}
