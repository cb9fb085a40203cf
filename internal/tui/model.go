// Package tui implements the terminal dashboard for posko reports.
package tui

import (
	"context"
	"time"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/tui/components"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Loader re-runs the pipeline on demand.
type Loader interface {
	Refresh(ctx context.Context) (*pipeline.Result, error)
}

// View identifies a dashboard tab.
type View int

// Dashboard tabs, in tab order.
const (
	ViewOverview View = iota
	ViewTrends
	ViewStatus
	ViewIssues
	ViewLog
	viewCount
)

// String returns the tab title.
func (v View) String() string {
	switch v {
	case ViewOverview:
		return "Ringkasan"
	case ViewTrends:
		return "Tren"
	case ViewStatus:
		return "Kepadatan"
	case ViewIssues:
		return "Kendala"
	case ViewLog:
		return "Log"
	default:
		return "?"
	}
}

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	ctx       context.Context
	loader    Loader
	result    *pipeline.Result
	lastErr   error
	lastAt    time.Time
	keymap    KeyMap
	help      help.Model
	spinner   spinner.Model
	kpi       components.KPIPanel
	chart     components.BarChart
	occupancy components.OccupancyPanel
	issues    components.DataTable
	log       components.DataTable
	config    Config
	view      View
	chartCol  int
	width     int
	height    int
	loading   bool
	tickArmed bool
	showHelp  bool
}

// New creates a dashboard model around loader.
func New(ctx context.Context, loader Loader, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.Subtitle.Foreground(cfg.Theme.Primary)

	m := Model{
		ctx:       background(ctx),
		loader:    loader,
		config:    cfg,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		kpi:       components.NewKPIPanel(cfg.Theme),
		chart:     components.NewBarChart(cfg.Theme),
		occupancy: components.NewOccupancyPanel(cfg.Theme),
		issues:    components.NewDataTable(cfg.Theme),
		log:       components.NewDataTable(cfg.Theme),
		loading:   true,
	}
	m.resize(cfg.Width, cfg.Height)
	return m
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshTickMsg:
		m.tickArmed = false
		if m.loading {
			return m, nil
		}
		return m.startLoad()

	case resultMsg:
		return m.handleResult(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Refresh):
		if m.loading {
			return m, nil
		}
		return m.startLoad()

	case key.Matches(msg, m.keymap.NextView):
		m.view = (m.view + 1) % viewCount
		return m, nil

	case key.Matches(msg, m.keymap.PrevView):
		m.view = (m.view + viewCount - 1) % viewCount
		return m, nil

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.resize(m.width, m.height)
		return m, nil

	case key.Matches(msg, m.keymap.NextCol):
		if m.result != nil && len(m.result.Table.ChartColumns) > 0 {
			m.chartCol = (m.chartCol + 1) % len(m.result.Table.ChartColumns)
			m.applyChart()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewIssues:
		m.issues, cmd = m.issues.Update(msg)
	case ViewLog:
		m.log, cmd = m.log.Update(msg)
	}
	return m, cmd
}

func (m Model) startLoad() (tea.Model, tea.Cmd) {
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.load())
}

// handleResult stores a finished run. An authentication failure discards
// the previous result so nothing stale is shown as current.
func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	if msg.err != nil {
		m.lastErr = msg.err
		if common.IsFatal(msg.err) {
			m.result = nil
			m.apply()
		}
	} else {
		m.lastErr = nil
		m.result = msg.res
		m.lastAt = m.config.now()
		m.apply()
	}

	if m.tickArmed {
		return m, nil
	}
	m.tickArmed = true
	return m, m.tick()
}

// apply pushes the current result into the components.
func (m *Model) apply() {
	if m.result == nil {
		m.kpi.SetData(nil, 0)
		m.chart.SetData("", nil, nil)
		m.occupancy.SetData("", nil)
		m.issues.SetData(nil, nil)
		m.log.SetData(nil, nil)
		return
	}

	res := m.result
	m.kpi.SetData(res.Summary.Totals, res.Table.Len())
	m.occupancy.SetData(res.Summary.StatusColumn, res.Summary.ByDateStatus)

	issueRows := make([][]string, len(res.Summary.Issues))
	for i, is := range res.Summary.Issues {
		issueRows[i] = []string{is.Date, is.Source, is.Column, is.Text}
	}
	m.issues.SetData([]string{"Tanggal", "Sumber", "Kolom", "Kendala"}, issueRows)

	if res.Log != nil {
		m.log.SetData(res.Log.Header, res.Log.Rows)
	} else {
		m.log.SetData(nil, nil)
	}

	if m.chartCol >= len(res.Table.ChartColumns) {
		m.chartCol = 0
	}
	m.applyChart()
}

func (m *Model) applyChart() {
	if m.result == nil || len(m.result.Table.ChartColumns) == 0 {
		m.chart.SetData("", nil, nil)
		return
	}
	labels := make([]string, 0, len(m.result.Sources))
	for _, s := range m.result.Sources {
		labels = append(labels, s.Label)
	}
	m.chart.SetData(m.result.Table.ChartColumns[m.chartCol], m.result.Summary.Series, labels)
}

// resize lays the components out for a terminal of the given size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	inner := max(width-4, 20)
	m.kpi.Resize(inner)
	m.chart.Resize(inner)
	m.occupancy.Resize(inner)

	// header, tabs, status and help lines
	chrome := 7
	if m.showHelp {
		chrome += 4
	}
	body := max(height-chrome, 3)
	m.issues.Resize(inner, body)
	m.log.Resize(inner, body)
}

// CurrentView returns the active tab.
func (m Model) CurrentView() View {
	return m.view
}

// Result returns the result currently displayed; nil before the first
// successful run or after an authentication failure.
func (m Model) Result() *pipeline.Result {
	return m.result
}
