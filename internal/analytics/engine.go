// Package analytics computes summaries, ratios, trends, comparisons,
// forecasts and anomaly flags over persisted records. Every result here is
// transient; nothing in this package writes to storage.
package analytics

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/config"
	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// RecordSource is the slice of the storage layer the engine reads.
type RecordSource interface {
	GetDocumentRecords(ctx context.Context, docID string) ([]domain.Record, error)
	GetRecordsByPeriod(ctx context.Context, period string) ([]domain.Record, error)
}

// Engine is the analytics entry point. Thresholds come from configuration at
// construction; the engine holds no mutable state.
type Engine struct {
	repo RecordSource
	cfg  config.AnalyticsConfig
	log  zerolog.Logger
}

func NewEngine(repo RecordSource, cfg config.AnalyticsConfig, log zerolog.Logger) *Engine {
	return &Engine{repo: repo, cfg: cfg, log: log}
}
