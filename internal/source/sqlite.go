package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/posko/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteFetcher reads every row of one table as a sheet. Column names form
// the header.
type SQLiteFetcher struct {
	logger *slog.Logger
}

// NewSQLiteFetcher creates a SQLite table reader.
func NewSQLiteFetcher(logger *slog.Logger) *SQLiteFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteFetcher{logger: logger}
}

// Fetch implements pipeline.Fetcher. NULL cells become empty strings.
func (s *SQLiteFetcher) Fetch(ctx context.Context, src model.Source) (model.RawSheet, error) {
	if src.Table == "" {
		return model.RawSheet{}, fmt.Errorf("source %q has no table", src.ID)
	}

	db, err := openReadOnly(src.Path)
	if err != nil {
		return model.RawSheet{}, err
	}
	defer func() { _ = db.Close() }()

	// #nosec G202 -- identifier is quoted, values are never interpolated
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(src.Table))
	if err != nil {
		return model.RawSheet{}, fmt.Errorf("failed to query table %s: %w", src.Table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return model.RawSheet{}, fmt.Errorf("failed to read columns of %s: %w", src.Table, err)
	}

	out := [][]string{columns}
	cells := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return model.RawSheet{}, fmt.Errorf("failed to scan row of %s: %w", src.Table, err)
		}
		row := make([]string, len(columns))
		for i, c := range cells {
			row[i] = cellString(c)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return model.RawSheet{}, fmt.Errorf("failed to iterate %s: %w", src.Table, err)
	}

	sheet := model.SheetFromRows(out)
	sheet.SourceLabel = src.Label

	s.logger.Debug("read table", "source", src.ID, "table", src.Table, "rows", sheet.Len())
	return sheet, nil
}

// cellString renders a driver value the way a spreadsheet shows it. REAL
// values are written without an exponent so digit sanitizing keeps their
// magnitude.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}

func openReadOnly(path string) (*sql.DB, error) {
	dsn := "file:" + uriEscaper.Replace(path) + "?mode=ro&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
