package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/posko/internal/common"
	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard.
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderBody(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	t := m.config.Theme
	title := t.Title.Render(m.config.Title)
	return lipgloss.JoinVertical(lipgloss.Left, title, m.statusLine())
}

// statusLine reports the refresh state, the last error and failed sources.
func (m Model) statusLine() string {
	t := m.config.Theme
	var parts []string

	switch {
	case m.loading:
		parts = append(parts, m.spinner.View()+" "+t.StatusPending.Render("memuat data…"))
	case !m.lastAt.IsZero():
		parts = append(parts, t.StatusSuccess.Render("diperbarui "+m.lastAt.Format("15:04:05")))
	}

	if m.lastErr != nil {
		msg := m.lastErr.Error()
		var ue *common.UserError
		if errors.As(m.lastErr, &ue) {
			msg = ue.UserMessage
		}
		if common.IsFatal(m.lastErr) {
			msg = "autentikasi gagal: " + msg
		}
		parts = append(parts, t.StatusError.Render(msg))
	}

	if m.result != nil {
		if failed := m.result.Failed(); len(failed) > 0 {
			labels := make([]string, len(failed))
			for i, s := range failed {
				labels[i] = s.Label
			}
			parts = append(parts, t.StatusWarning.Render("gagal: "+strings.Join(labels, ", ")))
		}
	}

	return strings.Join(parts, t.Subtitle.Render(" · "))
}

func (m Model) renderTabs() string {
	t := m.config.Theme
	tabs := make([]string, 0, viewCount)
	for v := View(0); v < viewCount; v++ {
		if v == m.view {
			tabs = append(tabs, t.TabActive.Render(v.String()))
		} else {
			tabs = append(tabs, t.TabInactive.Render(v.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderBody() string {
	t := m.config.Theme

	if m.result == nil {
		switch {
		case m.lastErr != nil && common.IsFatal(m.lastErr):
			return t.RoundedBox.Render(t.StatusError.Render("Data tidak ditampilkan karena autentikasi gagal."))
		case m.loading:
			return t.RoundedBox.Render(t.StatusPending.Render("Menunggu data pertama…"))
		default:
			return t.RoundedBox.Render(t.StatusPending.Render("Belum ada data."))
		}
	}

	var body string
	switch m.view {
	case ViewOverview:
		body = m.renderOverview()
	case ViewTrends:
		body = m.chart.View()
	case ViewStatus:
		body = m.occupancy.View()
	case ViewIssues:
		if m.issues.Len() == 0 {
			body = t.StatusSuccess.Render("Tidak ada kendala yang dilaporkan.")
		} else {
			body = m.issues.View()
		}
	case ViewLog:
		body = m.renderLog()
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(body)
}

func (m Model) renderOverview() string {
	t := m.config.Theme
	res := m.result

	lines := []string{m.kpi.View()}

	date := res.Table.Date
	if date.Resolved() {
		lines = append(lines, t.Subtitle.Render(fmt.Sprintf("Kolom tanggal: %s (%s)", date.Column, date.Rule)))
	} else {
		lines = append(lines, t.StatusWarning.Render("Kolom tanggal tidak ditemukan; laporan dianggap hari ini."))
	}

	ok := 0
	for _, s := range res.Sources {
		if s.OK() {
			ok++
		}
	}
	lines = append(lines, t.Subtitle.Render(fmt.Sprintf("Sumber aktif: %d/%d", ok, len(res.Sources))))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderLog() string {
	t := m.config.Theme
	switch {
	case m.result.LogError != nil:
		return t.StatusError.Render("Log operator gagal dimuat: " + m.result.LogError.Error())
	case m.result.Log == nil:
		return t.StatusPending.Render("Log operator tidak dikonfigurasi.")
	case m.log.Len() == 0:
		return t.StatusPending.Render("Log operator kosong.")
	default:
		return m.log.View()
	}
}

func (m Model) renderFooter() string {
	return m.help.View(m.keymap)
}
