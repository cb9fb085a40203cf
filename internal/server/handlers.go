package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/go-chi/render"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DateInfo describes where report dates came from.
type DateInfo struct {
	Column      string   `json:"column,omitempty"`
	Rule        string   `json:"rule,omitempty"`
	Fallbacks   []string `json:"fallbacks,omitempty"`
	Synthesized bool     `json:"synthesized"`
}

// Record is one unified row.
type Record struct {
	Date    *string           `json:"date"`
	Fields  map[string]string `json:"fields"`
	Numeric map[string]int64  `json:"numeric"`
	Source  string            `json:"source"`
}

// TableResponse is the body of GET /api/table.
type TableResponse struct {
	GeneratedAt    time.Time `json:"generated_at"`
	RunID          string    `json:"run_id"`
	Columns        []string  `json:"columns"`
	NumericColumns []string  `json:"numeric_columns"`
	ChartColumns   []string  `json:"chart_columns"`
	Records        []Record  `json:"records"`
	Date           DateInfo  `json:"date"`
}

// SourceInfo is the per-source outcome of the last run.
type SourceInfo struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Error      string `json:"error,omitempty"`
	Rows       int    `json:"rows"`
	DurationMS int64  `json:"duration_ms"`
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	GeneratedAt time.Time    `json:"generated_at"`
	RunID       string       `json:"run_id"`
	Sources     []SourceInfo `json:"sources"`
	pipeline.Summary
	Records int `json:"records"`
}

// IssuesResponse is the body of GET /api/issues.
type IssuesResponse struct {
	RunID  string           `json:"run_id"`
	Issues []pipeline.Issue `json:"issues"`
}

// LogResponse is the body of GET /api/log.
type LogResponse struct {
	Header     []string   `json:"header"`
	Rows       [][]string `json:"rows"`
	Error      string     `json:"error,omitempty"`
	Configured bool       `json:"configured"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) table(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, NewTableResponse(res))
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, NewSummaryResponse(res))
}

func (s *Server) issues(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}
	issues := res.Summary.Issues
	if issues == nil {
		issues = []pipeline.Issue{}
	}
	render.JSON(w, r, IssuesResponse{RunID: res.RunID, Issues: issues})
}

func (s *Server) operatorLog(w http.ResponseWriter, r *http.Request) {
	res, ok := s.load(w, r)
	if !ok {
		return
	}

	resp := LogResponse{Header: []string{}, Rows: [][]string{}}
	if res.Log != nil {
		resp.Configured = true
		if res.Log.Header != nil {
			resp.Header = res.Log.Header
			resp.Rows = res.Log.Rows
		}
	}
	if res.LogError != nil {
		resp.Configured = true
		resp.Error = res.LogError.Error()
	}
	render.JSON(w, r, resp)
}

func (s *Server) forceRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.refresh.Allow() {
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, ErrorResponse{Error: "refresh requested too often", Code: "RATE_LIMITED"})
		return
	}

	res, err := s.loader.Refresh(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, NewSummaryResponse(res))
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	res, err := s.loader.Get(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return res, true
}

// fail renders no partial data: authentication problems are an upstream
// failure, anything else means the table is unavailable.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusServiceUnavailable, "UNAVAILABLE"
	switch {
	case errors.Is(err, common.ErrAuthentication):
		status, code = http.StatusBadGateway, "AUTHENTICATION_FAILED"
	case errors.Is(err, r.Context().Err()):
		return
	}

	s.logger.ErrorContext(r.Context(), "load failed", "error", err, "status", status)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error(), Code: code})
}

// NewTableResponse converts a result into its JSON form.
func NewTableResponse(res *pipeline.Result) TableResponse {
	t := res.Table
	resp := TableResponse{
		GeneratedAt:    res.StartedAt,
		RunID:          res.RunID,
		Columns:        nonNil(t.Columns),
		NumericColumns: nonNil(t.NumericColumns),
		ChartColumns:   nonNil(t.ChartColumns),
		Records:        make([]Record, 0, t.Len()),
		Date: DateInfo{
			Column:      t.Date.Column,
			Rule:        t.Date.Rule,
			Fallbacks:   t.Date.Fallbacks,
			Synthesized: !t.Date.Resolved(),
		},
	}

	for _, rec := range t.Records {
		out := Record{
			Source:  rec.SourceLabel,
			Fields:  rec.Fields,
			Numeric: rec.Numeric,
		}
		if rec.ReportDate != nil {
			d := rec.DateKey()
			out.Date = &d
		}
		resp.Records = append(resp.Records, out)
	}
	return resp
}

// NewSummaryResponse converts a result into its summary JSON form.
func NewSummaryResponse(res *pipeline.Result) SummaryResponse {
	resp := SummaryResponse{
		GeneratedAt: res.StartedAt,
		RunID:       res.RunID,
		Summary:     res.Summary,
		Records:     res.Table.Len(),
		Sources:     make([]SourceInfo, 0, len(res.Sources)),
	}
	for _, st := range res.Sources {
		resp.Sources = append(resp.Sources, sourceInfo(st))
	}
	return resp
}

func sourceInfo(st model.SourceStatus) SourceInfo {
	info := SourceInfo{
		ID:         st.SourceID,
		Label:      st.Label,
		Rows:       st.Rows,
		DurationMS: st.Duration.Milliseconds(),
	}
	if st.Err != nil {
		info.Error = st.Err.Error()
	}
	return info
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
