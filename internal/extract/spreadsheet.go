package extract

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// headerScanRows bounds how deep into a sheet the header search goes.
// Spreadsheets routinely carry a title block above the table; anything
// deeper than this is treated as having no table at all.
const headerScanRows = 10

// SpreadsheetExtractor parses xlsx/xls workbooks. Only the first sheet is
// read; multi-sheet workbooks keep their extra sheets for humans.
type SpreadsheetExtractor struct {
	log zerolog.Logger
	now func() time.Time
}

func NewSpreadsheetExtractor(log zerolog.Logger) *SpreadsheetExtractor {
	return &SpreadsheetExtractor{log: log, now: time.Now}
}

func (e *SpreadsheetExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("SpreadsheetExtractor.Extract: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Result{Source: SourceSpreadsheet}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("SpreadsheetExtractor.Extract: read sheet %q: %w", sheets[0], err)
	}

	headerIdx := -1
	for i, row := range rows {
		if i >= headerScanRows {
			break
		}
		if IsHeaderRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		e.log.Warn().Str("sheet", sheets[0]).Msg("no header row found in first rows")
		return &Result{Source: SourceSpreadsheet}, nil
	}

	cols := MapColumns(rows[headerIdx])
	result := &Result{Source: SourceSpreadsheet}
	now := e.now()
	for i, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		rec, skip := buildRecord(row, cols, now)
		if skip != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d skipped: %s", headerIdx+i+2, skip))
			continue
		}
		result.Records = append(result.Records, rec)
	}

	e.log.Debug().
		Str("sheet", sheets[0]).
		Int("records", len(result.Records)).
		Int("skipped", len(result.Warnings)).
		Msg("spreadsheet extraction complete")
	return result, nil
}

var _ Extractor = (*SpreadsheetExtractor)(nil)
