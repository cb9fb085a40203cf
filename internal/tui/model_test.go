package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/tui/tuitest"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	result *pipeline.Result
	err    error
	calls  int
	mu     sync.Mutex
}

func (l *stubLoader) Refresh(context.Context) (*pipeline.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.result, l.err
}

func (l *stubLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func testResult(t *testing.T) *pipeline.Result {
	t.Helper()

	cfg, err := pipeline.NewConfig(pipeline.Options{
		Sources: []model.Source{
			{ID: "terminal", Label: "Terminal"},
			{ID: "bandara", Label: "Bandara"},
		},
	})
	require.NoError(t, err)

	today := time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)
	table := pipeline.Build([]model.RawSheet{
		{
			SourceLabel: "Terminal",
			Header:      []string{"Tanggal Laporan", "Jumlah Penumpang", "Status", "Kendala"},
			Rows: [][]string{
				{"2025-12-20", "1.200", "Padat", "Antrean panjang di loket"},
				{"2025-12-21", "30", "Normal", "-"},
			},
		},
		{
			SourceLabel: "Bandara",
			Header:      []string{"Tanggal Laporan", "Jumlah Penumpang"},
			Rows:        [][]string{{"2025-12-20", "45"}},
		},
	}, cfg, today)

	return &pipeline.Result{
		RunID:   "run-1",
		Table:   table,
		Summary: pipeline.Summarize(table, cfg),
		Sources: []model.SourceStatus{
			{SourceID: "terminal", Label: "Terminal", Rows: 2},
			{SourceID: "bandara", Label: "Bandara", Rows: 1},
			{SourceID: "stasiun", Label: "Stasiun", Err: errors.New("timeout")},
		},
		Log: &model.RawSheet{Header: []string{"Waktu", "Catatan"}, Rows: [][]string{{"08:00", "Shift pagi mulai"}}},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 12, 24, 9, 30, 0, 0, time.UTC)
}

func newTestModel(loader Loader) Model {
	return New(context.Background(), loader, WithSize(100, 40), WithClock(fixedNow))
}

// loaded returns a model that has received one successful result.
func loaded(t *testing.T) Model {
	t.Helper()
	m := newTestModel(&stubLoader{})
	next, _ := m.Update(resultMsg{res: testResult(t)})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func view(m Model) string {
	return tuitest.StripANSI(m.View())
}

func TestInit_LoadsThroughLoader(t *testing.T) {
	loader := &stubLoader{result: testResult(t)}
	m := newTestModel(loader)

	assert.Contains(t, view(m), "Menunggu data pertama")

	var got *resultMsg
	for _, msg := range tuitest.Exec(m.Init()) {
		if r, ok := msg.(resultMsg); ok {
			got = &r
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, 1, loader.Calls())
	assert.Same(t, loader.result, got.res)
}

func TestUpdate_ResultRendersOverview(t *testing.T) {
	m := loaded(t)

	out := view(m)
	assert.Contains(t, out, "diperbarui 09:30:00")
	assert.Contains(t, out, "gagal: Stasiun")
	assert.Contains(t, out, "1.275", "totals use dot thousands")
	assert.Contains(t, out, "Jumlah Penumpang")
	assert.Contains(t, out, "Kolom tanggal: Tanggal Laporan")
	assert.Contains(t, out, "Sumber aktif: 2/3")
}

func TestUpdate_ResultSchedulesSingleTick(t *testing.T) {
	m := newTestModel(&stubLoader{})

	m, cmd := update(t, m, resultMsg{res: testResult(t)})
	assert.NotNil(t, cmd, "first result arms the refresh tick")
	assert.True(t, m.tickArmed)
	assert.False(t, m.loading)

	_, cmd = update(t, m, resultMsg{res: testResult(t)})
	assert.Nil(t, cmd, "a second result must not arm another tick")
}

func TestUpdate_RefreshTickStartsLoad(t *testing.T) {
	loader := &stubLoader{result: testResult(t)}
	m := loaded(t)
	m.loader = loader

	m, cmd := update(t, m, refreshTickMsg{at: fixedNow()})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.False(t, m.tickArmed)

	tuitest.Exec(cmd)
	assert.Equal(t, 1, loader.Calls())

	m, cmd = update(t, m, refreshTickMsg{at: fixedNow()})
	assert.Nil(t, cmd, "no second load while one is in flight")
	assert.True(t, m.loading)
}

func TestUpdate_ManualRefresh(t *testing.T) {
	loader := &stubLoader{result: testResult(t)}
	m := loaded(t)
	m.loader = loader

	m, cmd := update(t, m, tuitest.KeyPress("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	tuitest.Exec(cmd)
	assert.Equal(t, 1, loader.Calls())

	_, cmd = update(t, m, tuitest.KeyPress("r"))
	assert.Nil(t, cmd)
}

func TestUpdate_AuthFailureClearsResult(t *testing.T) {
	m := loaded(t)
	require.NotNil(t, m.Result())

	authErr := fmt.Errorf("terminal: %w", common.ErrAuthentication)
	m, cmd := update(t, m, resultMsg{err: authErr})

	assert.Nil(t, m.Result())
	assert.Nil(t, cmd, "tick is already armed")

	out := view(m)
	assert.Contains(t, out, "autentikasi gagal")
	assert.Contains(t, out, "Data tidak ditampilkan")
	assert.NotContains(t, out, "1.275")
}

func TestUpdate_OtherErrorKeepsResult(t *testing.T) {
	m := loaded(t)

	m, _ = update(t, m, resultMsg{err: context.DeadlineExceeded})

	assert.NotNil(t, m.Result())
	out := view(m)
	assert.Contains(t, out, "deadline exceeded")
	assert.Contains(t, out, "1.275")
}

func TestUpdate_Navigation(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want View
	}{
		{"tab", []tea.KeyMsg{tuitest.KeyTab()}, ViewTrends},
		{"wraps forward", []tea.KeyMsg{tuitest.KeyTab(), tuitest.KeyTab(), tuitest.KeyTab(), tuitest.KeyTab(), tuitest.KeyTab()}, ViewOverview},
		{"shift tab wraps back", []tea.KeyMsg{tuitest.KeyShiftTab()}, ViewLog},
		{"vim keys", []tea.KeyMsg{tuitest.KeyPress("l"), tuitest.KeyPress("l"), tuitest.KeyPress("h")}, ViewTrends},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t)
			for _, k := range tt.keys {
				m, _ = update(t, m, k)
			}
			assert.Equal(t, tt.want, m.CurrentView())
		})
	}
}

func TestViews(t *testing.T) {
	tests := []struct {
		name string
		want []string
		view View
	}{
		{"trends", []string{"Jumlah Penumpang", "2025-12-20", "Terminal", "Bandara", "1.200"}, ViewTrends},
		{"status", []string{"Status", "2025-12-20", "Padat", "85%"}, ViewStatus},
		{"issues", []string{"Kendala", "Antrean panjang"}, ViewIssues},
		{"log", []string{"Catatan", "Shift pagi mulai"}, ViewLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t)
			m.view = tt.view
			out := view(m)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestViews_LogNotConfigured(t *testing.T) {
	m := newTestModel(&stubLoader{})
	res := testResult(t)
	res.Log = nil
	m, _ = update(t, m, resultMsg{res: res})
	m.view = ViewLog

	assert.Contains(t, view(m), "Log operator tidak dikonfigurasi")
}

func TestViews_LogError(t *testing.T) {
	m := newTestModel(&stubLoader{})
	res := testResult(t)
	res.Log = nil
	res.LogError = errors.New("sheet not found")
	m, _ = update(t, m, resultMsg{res: res})
	m.view = ViewLog

	assert.Contains(t, view(m), "sheet not found")
}

func TestUpdate_NextColumnWraps(t *testing.T) {
	m := loaded(t)
	require.Len(t, m.result.Table.ChartColumns, 1)

	m, _ = update(t, m, tuitest.KeyPress("c"))
	assert.Equal(t, 0, m.chartCol)
}

func TestUpdate_Quit(t *testing.T) {
	m := loaded(t)
	_, cmd := update(t, m, tuitest.KeyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_HelpToggle(t *testing.T) {
	m := loaded(t)
	m, _ = update(t, m, tuitest.KeyPress("?"))
	assert.Contains(t, view(m), "next chart column")

	m, _ = update(t, m, tuitest.KeyPress("?"))
	assert.NotContains(t, view(m), "next chart column")
}

func TestUpdate_WindowSize(t *testing.T) {
	m := loaded(t)
	m, _ = update(t, m, tuitest.WindowSize(60, 20))
	assert.Equal(t, 60, m.width)
	assert.Equal(t, 20, m.height)
	assert.NotEmpty(t, view(m))
}

func TestOptions(t *testing.T) {
	m := New(nil, &stubLoader{}, WithRefreshInterval(time.Minute), WithRefreshInterval(0), WithTitle("Posko Lebaran"))
	assert.Equal(t, time.Minute, m.config.RefreshInterval)
	assert.Equal(t, "Posko Lebaran", m.config.Title)
	assert.NotNil(t, m.ctx)
}
