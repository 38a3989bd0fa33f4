// Package extract turns uploaded document bytes into normalized ledger
// records. One extractor exists per supported format; all of them apply the
// same validity filtering so no invalid record ever leaves this package.
package extract

import (
	"context"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// Source tags which extraction path produced a result, so callers (and
// tests) can tell a cheap text pass from a vision-model fallback.
type Source string

const (
	SourceSpreadsheet Source = "spreadsheet"
	SourceDelimited   Source = "delimited"
	SourceText        Source = "pdf-text"
	SourceVision      Source = "pdf-vision"
)

// Result is the outcome of one extraction run. Records have already passed
// the validity invariant; per-row problems are reported as warnings.
type Result struct {
	Records  []domain.Record
	Warnings []string
	Source   Source
}

// Extractor parses one document's bytes into records.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Result, error)
}
