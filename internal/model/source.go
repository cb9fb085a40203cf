package model

// Backend names where a source's rows live.
type Backend string

const (
	BackendSheets Backend = "sheets"
	BackendXLSX   Backend = "xlsx"
	BackendSQLite Backend = "sqlite"
)

// Source describes one configured data feed.
type Source struct {
	ID      string  `mapstructure:"id" validate:"required"`
	Label   string  `mapstructure:"label" validate:"required"`
	Backend Backend `mapstructure:"backend" validate:"required,oneof=sheets xlsx sqlite"`

	// SpreadsheetID is required for the sheets backend.
	SpreadsheetID string `mapstructure:"spreadsheet_id" validate:"required_if=Backend sheets"`
	// Worksheet is a sheet title; empty selects the first worksheet.
	Worksheet string `mapstructure:"worksheet"`
	// Path is the workbook or database file for local backends.
	Path string `mapstructure:"path" validate:"required_if=Backend xlsx,required_if=Backend sqlite"`
	// Table is the SQLite table to read.
	Table string `mapstructure:"table" validate:"required_if=Backend sqlite"`
}
