// Package storage persists documents and their extracted records. The
// production implementation is BigQuery; an in-memory implementation backs
// the CLI and the tests.
package storage

import (
	"context"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// DocumentRepository is the persistence surface the ingestion pipeline and
// the analytics engine depend on.
type DocumentRepository interface {
	// CreateDocument stores a new document row.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// UpdateDocumentStatus moves a document to the given status. Illegal
	// transitions are rejected.
	UpdateDocumentStatus(ctx context.Context, docID string, status domain.DocumentStatus) error

	// BulkInsertRecords inserts a batch of records. A zero-length batch is
	// a no-op.
	BulkInsertRecords(ctx context.Context, records []domain.Record) error

	// GetDocument returns one document by ID, or ErrDocumentNotFound.
	GetDocument(ctx context.Context, docID string) (*domain.Document, error)

	// GetDocumentRecords returns all records belonging to one document.
	GetDocumentRecords(ctx context.Context, docID string) ([]domain.Record, error)

	// GetDocumentWithRecords returns a document and its records together.
	GetDocumentWithRecords(ctx context.Context, docID string) (*domain.Document, []domain.Record, error)

	// GetRecordsByPeriod returns all records carrying the given period
	// label, across documents.
	GetRecordsByPeriod(ctx context.Context, period string) ([]domain.Record, error)

	// FindDocumentByChecksum returns the document with the given SHA-256
	// checksum, or (nil, nil) when none exists.
	FindDocumentByChecksum(ctx context.Context, checksum string) (*domain.Document, error)
}
