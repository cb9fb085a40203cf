package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/posko/internal/model"
	"github.com/xuri/excelize/v2"
)

// XLSXFetcher reads a worksheet from a local workbook. The file is opened on
// every fetch so edits show up on the next refresh.
type XLSXFetcher struct {
	logger *slog.Logger
}

// NewXLSXFetcher creates a workbook reader.
func NewXLSXFetcher(logger *slog.Logger) *XLSXFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXFetcher{logger: logger}
}

// Fetch reads src.Worksheet, or the first sheet when it is empty.
func (x *XLSXFetcher) Fetch(ctx context.Context, src model.Source) (model.RawSheet, error) {
	if err := ctx.Err(); err != nil {
		return model.RawSheet{}, err
	}

	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return model.RawSheet{}, fmt.Errorf("failed to open workbook %s: %w", src.Path, err)
	}
	defer func() { _ = f.Close() }()

	sheetName := src.Worksheet
	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return model.RawSheet{}, fmt.Errorf("workbook %s has no sheets", src.Path)
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return model.RawSheet{}, fmt.Errorf("failed to read sheet %q from %s: %w", sheetName, src.Path, err)
	}

	sheet := model.SheetFromRows(rows)
	sheet.SourceLabel = src.Label

	x.logger.Debug("read workbook", "source", src.ID, "sheet", sheetName, "rows", sheet.Len())
	return sheet, nil
}
