package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// MemoryRepository is a map-backed DocumentRepository for the CLI and the
// tests. It enforces the same status machine as the BigQuery implementation.
type MemoryRepository struct {
	mu      sync.RWMutex
	docs    map[string]*domain.Document
	records map[string][]domain.Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:    make(map[string]*domain.Document),
		records: make(map[string][]domain.Record),
	}
}

func (r *MemoryRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("CreateDocument: document %s already exists", doc.ID)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateDocumentStatus(ctx context.Context, docID string, status domain.DocumentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if !doc.Status.CanTransition(status) {
		return fmt.Errorf("UpdateDocumentStatus: illegal transition %s -> %s", doc.Status, status)
	}
	doc.Status = status
	return nil
}

func (r *MemoryRepository) BulkInsertRecords(ctx context.Context, records []domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.DocumentID] = append(r.records[rec.DocumentID], rec)
	}
	return nil
}

func (r *MemoryRepository) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[docID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *MemoryRepository) GetDocumentRecords(ctx context.Context, docID string) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Record, len(r.records[docID]))
	copy(out, r.records[docID])
	return out, nil
}

func (r *MemoryRepository) GetDocumentWithRecords(ctx context.Context, docID string) (*domain.Document, []domain.Record, error) {
	doc, err := r.GetDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	records, err := r.GetDocumentRecords(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	return doc, records, nil
}

func (r *MemoryRepository) GetRecordsByPeriod(ctx context.Context, period string) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Record
	for _, recs := range r.records {
		for _, rec := range recs {
			if rec.Period == period {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (r *MemoryRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if checksum == "" {
		return nil, nil
	}
	for _, doc := range r.docs {
		if doc.Checksum == checksum {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

var _ DocumentRepository = (*MemoryRepository)(nil)
