package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/posko/internal/certs"
	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	result    *pipeline.Result
	err       error
	gets      int
	refreshes int
}

func (l *stubLoader) Get(context.Context) (*pipeline.Result, error) {
	l.gets++
	return l.result, l.err
}

func (l *stubLoader) Refresh(context.Context) (*pipeline.Result, error) {
	l.refreshes++
	return l.result, l.err
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
				{"rusak", "30", "Normal", "-"},
			},
		},
		{
			SourceLabel: "Bandara",
			Header:      []string{"Tanggal Laporan", "Jumlah Penumpang"},
			Rows:        [][]string{{"2025-12-20", "45"}},
		},
	}, cfg, today)

	return &pipeline.Result{
		RunID:     "run-1",
		StartedAt: today.Add(9 * time.Hour),
		Table:     table,
		Summary:   pipeline.Summarize(table, cfg),
		Sources: []model.SourceStatus{
			{SourceID: "terminal", Label: "Terminal", Rows: 2, Duration: 120 * time.Millisecond},
			{SourceID: "bandara", Label: "Bandara", Rows: 1},
			{SourceID: "stasiun", Label: "Stasiun", Err: errors.New("timeout")},
		},
		Log: &model.RawSheet{Header: []string{"Waktu", "Catatan"}, Rows: [][]string{{"08:00", "Shift pagi mulai"}}},
	}
}

func newTestServer(loader Loader) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "posko_records 3\n")
	})
	return New(loader, metrics, Config{MinRefreshInterval: time.Hour}, logger)
}

func do(t *testing.T, s *Server, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&stubLoader{})

	var body map[string]string
	rec := do(t, s, http.MethodGet, "/healthz", &body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestTable(t *testing.T) {
	s := newTestServer(&stubLoader{result: testResult(t)})

	var body TableResponse
	rec := do(t, s, http.MethodGet, "/api/table", &body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, []string{"Tanggal Laporan", "Jumlah Penumpang", "Status", "Kendala"}, body.Columns)
	assert.Equal(t, []string{"Jumlah Penumpang"}, body.NumericColumns)
	assert.Equal(t, "Tanggal Laporan", body.Date.Column)
	assert.False(t, body.Date.Synthesized)

	require.Len(t, body.Records, 3)
	require.NotNil(t, body.Records[0].Date)
	assert.Equal(t, "2025-12-20", *body.Records[0].Date)
	assert.Nil(t, body.Records[1].Date, "unparseable dates stay missing")
	assert.Equal(t, int64(1200), body.Records[0].Numeric["Jumlah Penumpang"])
	assert.Equal(t, "Bandara", body.Records[2].Source)
}

func TestSummary(t *testing.T) {
	s := newTestServer(&stubLoader{result: testResult(t)})

	var body SummaryResponse
	rec := do(t, s, http.MethodGet, "/api/summary", &body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, body.Records)
	assert.Equal(t, []pipeline.ColumnTotal{{Column: "Jumlah Penumpang", Total: 1275}}, body.Totals)
	assert.Equal(t, "Status", body.StatusColumn)
	require.Len(t, body.Sources, 3)
	assert.Equal(t, int64(120), body.Sources[0].DurationMS)
	assert.Equal(t, "timeout", body.Sources[2].Error)
}

func TestIssues(t *testing.T) {
	s := newTestServer(&stubLoader{result: testResult(t)})

	var body IssuesResponse
	do(t, s, http.MethodGet, "/api/issues", &body)

	require.Len(t, body.Issues, 1)
	assert.Equal(t, "Antrean panjang di loket", body.Issues[0].Text)
	assert.Equal(t, "Terminal", body.Issues[0].Source)
}

func TestOperatorLog(t *testing.T) {
	res := testResult(t)
	s := newTestServer(&stubLoader{result: res})

	var body LogResponse
	do(t, s, http.MethodGet, "/api/log", &body)
	assert.True(t, body.Configured)
	assert.Equal(t, []string{"Waktu", "Catatan"}, body.Header)
	assert.Len(t, body.Rows, 1)

	res.Log = nil
	body = LogResponse{}
	do(t, s, http.MethodGet, "/api/log", &body)
	assert.False(t, body.Configured)
	assert.Empty(t, body.Rows)
}

func TestAuthenticationFailureIsBadGateway(t *testing.T) {
	s := newTestServer(&stubLoader{err: fmt.Errorf("source %q: %w", "terminal", common.ErrAuthentication)})

	for _, path := range []string{"/api/table", "/api/summary", "/api/issues", "/api/log"} {
		t.Run(path, func(t *testing.T) {
			var body ErrorResponse
			rec := do(t, s, http.MethodGet, path, &body)
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, "AUTHENTICATION_FAILED", body.Code)
		})
	}
}

func TestOtherFailureIsUnavailable(t *testing.T) {
	s := newTestServer(&stubLoader{err: errors.New("boom")})

	var body ErrorResponse
	rec := do(t, s, http.MethodGet, "/api/table", &body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", body.Code)
}

func TestForceRefreshIsRateLimited(t *testing.T) {
	loader := &stubLoader{result: testResult(t)}
	s := newTestServer(loader)

	rec := do(t, s, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body ErrorResponse
	rec = do(t, s, http.MethodPost, "/api/refresh", &body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", body.Code)
	assert.Equal(t, 1, loader.refreshes)
	assert.Equal(t, 0, loader.gets)
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(&stubLoader{})

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "posko_records")
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	s := New(&stubLoader{}, nil, Config{Addr: "127.0.0.1:0"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_TLS(t *testing.T) {
	tlsCfg, err := certs.NewFileManager(t.TempDir()).TLSConfig()
	require.NoError(t, err)

	s := New(&stubLoader{}, nil, Config{Addr: "127.0.0.1:0", TLS: tlsCfg}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
