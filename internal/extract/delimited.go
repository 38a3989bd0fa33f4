package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DelimitedExtractor parses CSV and TSV files. The delimiter is sniffed from
// the first line: a tab anywhere before the first comma selects TSV.
type DelimitedExtractor struct {
	log zerolog.Logger
	now func() time.Time
}

func NewDelimitedExtractor(log zerolog.Logger) *DelimitedExtractor {
	return &DelimitedExtractor{log: log, now: time.Now}
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	tab := bytes.IndexByte(line, '\t')
	comma := bytes.IndexByte(line, ',')
	if tab >= 0 && (comma < 0 || tab < comma) {
		return '\t'
	}
	return ','
}

func (e *DelimitedExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &Result{Source: SourceDelimited}
	now := e.now()
	var cols map[Field]int
	lineNo := 0
	scanned := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNo++
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d skipped: %v", lineNo, err))
			continue
		}
		if rowEmpty(row) {
			continue
		}
		if cols == nil {
			scanned++
			if IsHeaderRow(row) {
				cols = MapColumns(row)
			} else if scanned >= headerScanRows {
				break
			}
			continue
		}
		rec, skip := buildRecord(row, cols, now)
		if skip != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d skipped: %s", lineNo, skip))
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if cols == nil {
		e.log.Warn().Msg("no header row found in delimited file")
		result.Warnings = append(result.Warnings, "no header row found")
		return result, nil
	}

	e.log.Debug().
		Int("records", len(result.Records)).
		Int("skipped", len(result.Warnings)).
		Msg("delimited extraction complete")
	return result, nil
}

var _ Extractor = (*DelimitedExtractor)(nil)
