package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return v
}

const fullConfig = `
refresh_interval: 30s
theme: catppuccin-mocha
sources:
  - id: terminal
    label: Terminal Pulogebang
    backend: sheets
    spreadsheet_id: 1AbC
  - id: pelabuhan
    label: Pelabuhan Merak
    backend: xlsx
    path: ~/posko/merak.xlsx
    worksheet: Rekap
log_source:
  id: log
  label: Log Operator
  backend: sqlite
  path: /var/lib/posko/log.db
  table: log
keywords:
  numeric: [jumlah, muatan]
  issue_min_length: 5
occupancy:
  Padat Merayap: 95
server:
  addr: ":9000"
`

func TestLoad(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	d, err := Load(readYAML(t, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, d.RefreshInterval)
	assert.Equal(t, 10*time.Second, d.CacheTTL)
	assert.Equal(t, "catppuccin-mocha", d.Theme)
	assert.Equal(t, ":9000", d.Server.Addr)
	assert.Equal(t, "info", d.Logging.Level)

	require.Len(t, d.Sources, 2)
	assert.Equal(t, model.BackendSheets, d.Sources[0].Backend)
	assert.Equal(t, "1AbC", d.Sources[0].SpreadsheetID)
	assert.Equal(t, filepath.Join(home, "posko/merak.xlsx"), d.Sources[1].Path)
	assert.Equal(t, "Rekap", d.Sources[1].Worksheet)

	require.NotNil(t, d.LogSource)
	assert.Equal(t, "log", d.LogSource.Table)

	assert.Equal(t, []string{"jumlah", "muatan"}, d.Keywords.Numeric)
	assert.Equal(t, 5, d.Keywords.IssueMinLength)
	assert.Equal(t, []model.Backend{model.BackendSheets, model.BackendXLSX, model.BackendSQLite}, d.Backends())

	cfg, err := d.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"Terminal Pulogebang", "Pelabuhan Merak"}, cfg.Labels())
	assert.True(t, cfg.IsNumericHeader("Muatan Kapal"))
	assert.Equal(t, 95, cfg.Occupancy().Percent("padat merayap"))

	logSrc, ok := cfg.LogSource()
	assert.True(t, ok)
	assert.Equal(t, "log", logSrc.ID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		errMsg  string
		missing bool
	}{
		{
			name:    "no sources",
			doc:     "theme: default\n",
			missing: true,
		},
		{
			name: "sheets without spreadsheet",
			doc: `
sources:
  - {id: a, label: A, backend: sheets}
`,
			errMsg: "sources[0].spreadsheet_id is required",
		},
		{
			name: "sqlite without table",
			doc: `
sources:
  - {id: a, label: A, backend: sqlite, path: /tmp/a.db}
`,
			errMsg: "sources[0].table is required",
		},
		{
			name: "unknown backend",
			doc: `
sources:
  - {id: a, label: A, backend: csv}
`,
			errMsg: "must be one of: sheets, xlsx, sqlite",
		},
		{
			name: "refresh too fast",
			doc: `
refresh_interval: 100ms
sources:
  - {id: a, label: A, backend: xlsx, path: /tmp/a.xlsx}
`,
			errMsg: "refresh_interval must be at least 1s",
		},
		{
			name: "occupancy above 100",
			doc: `
occupancy: {macet: 150}
sources:
  - {id: a, label: A, backend: xlsx, path: /tmp/a.xlsx}
`,
			errMsg: "at most 100",
		},
		{
			name: "unknown theme",
			doc: `
theme: neon
sources:
  - {id: a, label: A, backend: xlsx, path: /tmp/a.xlsx}
`,
			errMsg: "theme must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(readYAML(t, tt.doc))
			require.Error(t, err)
			if tt.missing {
				assert.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPipelineConfig_DuplicateIDs(t *testing.T) {
	d, err := Load(readYAML(t, `
sources:
  - {id: a, label: A, backend: xlsx, path: /tmp/a.xlsx}
  - {id: a, label: B, backend: xlsx, path: /tmp/b.xlsx}
`))
	require.NoError(t, err)

	_, err = d.PipelineConfig()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("POSKO_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/posko.db", filepath.Join(home, "posko.db")},
		{"$POSKO_TEST_DIR/log.db", "/data/log.db"},
		{"/abs/path.xlsx", "/abs/path.xlsx"},
		{"~other/x", "~other/x"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadSheetsConfig(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_TOKEN_FILE",
	} {
		t.Setenv(key, "")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	t.Run("viper beats environment", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/env/key.json")
		v := viper.New()
		v.Set("sheets.service_account_path", "/viper/key.json")
		v.Set("sheets.requests_per_minute", 30)

		c, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/viper/key.json", c.ServiceAccountPath)
		assert.Equal(t, 30, c.RequestsPerMinute)
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "client")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")

		c, err := LoadSheetsConfig(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "client", c.ClientID)
		assert.Equal(t, "refresh", c.RefreshToken)
		assert.Empty(t, c.TokenFile)
	})

	t.Run("saved token file", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "client")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")

		c, err := LoadSheetsConfig(viper.New())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(xdg, "posko", "sheets-token.json"), c.TokenFile)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := LoadSheetsConfig(viper.New())
		assert.Error(t, err)
	})
}
