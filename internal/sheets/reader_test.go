package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeSheetsAPI struct {
	values    map[string][][]any
	titles    map[string]string
	requested []string
	metaCalls atomic.Int32
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"), "/", 3)
	id := parts[0]

	if id == "denied" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"error":{"code":403,"message":"The caller does not have permission","errors":[{"reason":"forbidden"}]}}`)
		return
	}
	if id == "throttled" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"error":{"code":403,"message":"quota","errors":[{"reason":"userRateLimitExceeded"}]}}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(parts) == 1 {
		f.metaCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{map[string]any{"properties": map[string]any{"title": f.titles[id]}}},
		})
		return
	}

	if r.URL.Query().Get("valueRenderOption") != "FORMATTED_VALUE" {
		http.Error(w, "unexpected render option", http.StatusBadRequest)
		return
	}
	f.requested = append(f.requested, parts[2])
	_ = json.NewEncoder(w).Encode(map[string]any{
		"range":          parts[2],
		"majorDimension": "ROWS",
		"values":         f.values[id],
	})
}

func newTestReader(t *testing.T, api *fakeSheetsAPI) *Reader {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	service, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	config := DefaultConfig()
	config.RequestsPerMinute = 6000
	return newReader(service, config, nil)
}

func TestReader_FetchFirstWorksheet(t *testing.T) {
	api := &fakeSheetsAPI{
		titles: map[string]string{"terminal": "Form Responses 1"},
		values: map[string][][]any{
			"terminal": {
				{"Timestamp", " Jumlah Penumpang ", "Status"},
				{"20/12/2025 08:00:00", "1.200", "Padat", "extra"},
				{"20/12/2025 09:00:00"},
			},
		},
	}
	reader := newTestReader(t, api)

	sheet, err := reader.Fetch(context.Background(), model.Source{
		ID: "terminal", Label: "Terminal", Backend: model.BackendSheets, SpreadsheetID: "terminal",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.metaCalls.Load())
	assert.Equal(t, []string{"'Form Responses 1'"}, api.requested)
	assert.Equal(t, "Terminal", sheet.SourceLabel)
	assert.Equal(t, []string{"Timestamp", " Jumlah Penumpang ", "Status"}, sheet.Header)
	assert.Equal(t, [][]string{
		{"20/12/2025 08:00:00", "1.200", "Padat"},
		{"20/12/2025 09:00:00", "", ""},
	}, sheet.Rows)
}

func TestReader_FetchNamedWorksheet(t *testing.T) {
	api := &fakeSheetsAPI{
		values: map[string][][]any{
			"bandara": {{"Jumlah"}, {"45"}},
		},
	}
	reader := newTestReader(t, api)

	sheet, err := reader.Fetch(context.Background(), model.Source{
		ID: "bandara", Label: "Bandara", SpreadsheetID: "bandara", Worksheet: "Rekap Harian",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(0), api.metaCalls.Load(), "named worksheet needs no metadata lookup")
	assert.Equal(t, []string{"'Rekap Harian'"}, api.requested)
	assert.Equal(t, 1, sheet.Len())
}

func TestReader_PermissionDeniedIsAuthentication(t *testing.T) {
	reader := newTestReader(t, &fakeSheetsAPI{})

	_, err := reader.Fetch(context.Background(), model.Source{ID: "x", SpreadsheetID: "denied", Worksheet: "A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAuthentication)
}

func TestReader_QuotaIsNotAuthentication(t *testing.T) {
	reader := newTestReader(t, &fakeSheetsAPI{})

	_, err := reader.Fetch(context.Background(), model.Source{ID: "x", SpreadsheetID: "throttled", Worksheet: "A"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrAuthentication)
}

func TestReader_MissingSpreadsheetID(t *testing.T) {
	reader := newTestReader(t, &fakeSheetsAPI{})

	_, err := reader.Fetch(context.Background(), model.Source{ID: "x"})
	assert.Error(t, err)
}

func TestToRawSheet(t *testing.T) {
	tests := []struct {
		name   string
		values [][]any
		want   model.RawSheet
	}{
		{
			name:   "empty",
			values: nil,
			want:   model.RawSheet{},
		},
		{
			name:   "header only",
			values: [][]any{{"Tanggal", "Jumlah"}},
			want:   model.RawSheet{},
		},
		{
			name:   "typed cells",
			values: [][]any{{"Jumlah", "Aktif", "Catatan"}, {float64(45), true, nil}},
			want: model.RawSheet{
				Header: []string{"Jumlah", "Aktif", "Catatan"},
				Rows:   [][]string{{"45", "true", ""}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToRawSheet(tt.values))
		})
	}
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "'Sheet1'", quoteSheetName("Sheet1"))
	assert.Equal(t, "'Posko''s Log'", quoteSheetName("Posko's Log"))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		wantAuth bool
	}{
		{name: "unauthorized", err: &googleapi.Error{Code: http.StatusUnauthorized}, wantAuth: true},
		{name: "forbidden", err: &googleapi.Error{Code: http.StatusForbidden}, wantAuth: true},
		{
			name: "rate limited",
			err: &googleapi.Error{
				Code:   http.StatusForbidden,
				Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}},
			},
		},
		{name: "not found", err: &googleapi.Error{Code: http.StatusNotFound}},
		{name: "token refresh", err: fmt.Errorf("get: %w", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}), wantAuth: true},
		{name: "network", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.Equal(t, tt.wantAuth, errors.Is(got, common.ErrAuthentication))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
