package ingest

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
	"github.com/dvloznov/ledger-analyzer/internal/extract"
	"github.com/dvloznov/ledger-analyzer/internal/storage"
)

// PipelineStep is a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across pipeline steps.
type PipelineState struct {
	Document  *domain.Document
	Data      []byte
	Extractor extract.Extractor
	Records   []domain.Record
	Warnings  []string
}

// CreateDocumentStep stores the document row and moves it to Processing.
type CreateDocumentStep struct {
	Repo storage.DocumentRepository
}

func (s *CreateDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Document.Status = domain.StatusUploaded
	if err := s.Repo.CreateDocument(ctx, state.Document); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := s.Repo.UpdateDocumentStatus(ctx, state.Document.ID, domain.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	state.Document.Status = domain.StatusProcessing
	return nil
}

// ExtractRecordsStep runs the chosen extractor and assigns document IDs.
type ExtractRecordsStep struct{}

func (s *ExtractRecordsStep) Execute(ctx context.Context, state *PipelineState) error {
	result, err := state.Extractor.Extract(ctx, state.Data)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	for i := range result.Records {
		result.Records[i].DocumentID = state.Document.ID
	}
	state.Records = result.Records
	state.Warnings = append(state.Warnings, result.Warnings...)
	if result.Source == extract.SourceVision {
		state.Warnings = append(state.Warnings, "used vision fallback")
	}
	return nil
}

// PersistRecordsStep bulk-inserts the extracted records. Zero records is a
// reported failure so the document ends in Error, not Analyzed-but-empty.
type PersistRecordsStep struct {
	Repo storage.DocumentRepository
}

func (s *PersistRecordsStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Records) == 0 {
		return domain.ErrNoFinancialData
	}
	if err := s.Repo.BulkInsertRecords(ctx, state.Records); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}

// FinalizeStep flips the document to Analyzed.
type FinalizeStep struct {
	Repo storage.DocumentRepository
}

func (s *FinalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.UpdateDocumentStatus(ctx, state.Document.ID, domain.StatusAnalyzed); err != nil {
		return fmt.Errorf("mark analyzed: %w", err)
	}
	state.Document.Status = domain.StatusAnalyzed
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
