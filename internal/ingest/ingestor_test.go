package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/analytics"
	"github.com/dvloznov/ledger-analyzer/internal/config"
	"github.com/dvloznov/ledger-analyzer/internal/domain"
	"github.com/dvloznov/ledger-analyzer/internal/extract"
	"github.com/dvloznov/ledger-analyzer/internal/objectstore"
	"github.com/dvloznov/ledger-analyzer/internal/storage"
)

const sampleCSV = `Account Name,Period,Amount,Category
Sales,2024-01,"$150,000.00",Revenue
Rent,2024-01,12000,Expense
`

type stubExtractor struct {
	result *extract.Result
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte) (*extract.Result, error) {
	return s.result, s.err
}

// flakyExtractor fails its first call and succeeds afterwards.
type flakyExtractor struct {
	calls  int
	result *extract.Result
}

func (f *flakyExtractor) Extract(ctx context.Context, data []byte) (*extract.Result, error) {
	f.calls++
	if f.calls == 1 {
		return nil, errors.New("transient parse failure")
	}
	return f.result, nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		MaxUploadBytes:    1 << 20,
		AllowedExtensions: []string{"xlsx", "xls", "csv", "pdf"},
	}
}

func newTestIngestor(repo storage.DocumentRepository) *Ingestor {
	return newTestIngestorWithStore(repo, nil)
}

func newTestIngestorWithStore(repo storage.DocumentRepository, store objectstore.Store) *Ingestor {
	log := zerolog.Nop()
	return New(testIngestConfig(), repo, store,
		extract.NewSpreadsheetExtractor(log),
		extract.NewDelimitedExtractor(log),
		&stubExtractor{err: errors.New("pdf extraction unavailable")},
		log)
}

func TestIngestCSVEndToEnd(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)
	ctx := context.Background()

	result := ing.Ingest(ctx, strings.NewReader(sampleCSV), "ledger.csv", "")
	if !result.Success {
		t.Fatalf("ingestion failed: %v", result.Errors)
	}
	if result.RecordsImported != 2 {
		t.Fatalf("RecordsImported = %d, want 2", result.RecordsImported)
	}

	doc, records, err := repo.GetDocumentWithRecords(ctx, result.DocumentID)
	if err != nil {
		t.Fatalf("GetDocumentWithRecords failed: %v", err)
	}
	if doc.Status != domain.StatusAnalyzed {
		t.Errorf("document status = %s, want ANALYZED", doc.Status)
	}
	if len(records) != 2 {
		t.Fatalf("got %d persisted records, want 2", len(records))
	}
	for _, rec := range records {
		if rec.DocumentID != result.DocumentID {
			t.Errorf("record %q not bound to document", rec.AccountName)
		}
	}

	engine := analytics.NewEngine(repo, config.DefaultAnalytics(), zerolog.Nop())
	summary, err := engine.Summarize(ctx, result.DocumentID)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.TotalRevenue != 150000 {
		t.Errorf("TotalRevenue = %v, want 150000", summary.TotalRevenue)
	}
	if summary.TotalExpenses != 12000 {
		t.Errorf("TotalExpenses = %v, want 12000", summary.TotalExpenses)
	}
	if summary.NetIncome != 138000 {
		t.Errorf("NetIncome = %v, want 138000", summary.NetIncome)
	}
}

func TestIngestEmptyUpload(t *testing.T) {
	ing := newTestIngestor(storage.NewMemoryRepository())

	result := ing.Ingest(context.Background(), strings.NewReader(""), "empty.csv", "")
	if result.Success {
		t.Fatal("empty upload must fail")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], domain.ErrEmptyUpload.Error()) {
		t.Errorf("errors = %v, want empty-upload error", result.Errors)
	}
}

func TestIngestTooLarge(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)
	ing.cfg.MaxUploadBytes = 16

	result := ing.Ingest(context.Background(), strings.NewReader(sampleCSV), "ledger.csv", "")
	if result.Success {
		t.Fatal("oversized upload must fail")
	}
	if !strings.Contains(result.Errors[0], domain.ErrTooLarge.Error()) {
		t.Errorf("errors = %v, want too-large error", result.Errors)
	}
}

func TestIngestDisallowedExtension(t *testing.T) {
	ing := newTestIngestor(storage.NewMemoryRepository())

	result := ing.Ingest(context.Background(), strings.NewReader(sampleCSV), "ledger.exe", "")
	if result.Success {
		t.Fatal("disallowed extension must fail")
	}
	if !strings.Contains(result.Errors[0], domain.ErrUnsupportedFormat.Error()) {
		t.Errorf("errors = %v, want unsupported-format error", result.Errors)
	}
}

func TestIngestBadSignature(t *testing.T) {
	ing := newTestIngestor(storage.NewMemoryRepository())

	// Plain text bytes behind a seekable reader, claiming to be a workbook.
	result := ing.Ingest(context.Background(), bytes.NewReader([]byte(sampleCSV)), "ledger.xlsx", "")
	if result.Success {
		t.Fatal("mismatched signature must fail")
	}
	if !strings.Contains(result.Errors[0], domain.ErrBadSignature.Error()) {
		t.Errorf("errors = %v, want bad-signature error", result.Errors)
	}
}

func TestIngestForwardOnlyReaderSkipsSignature(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)

	// bytes.Buffer is not a Seeker, so the magic-byte check cannot run and
	// the failure surfaces later, from the extractor itself.
	result := ing.Ingest(context.Background(), bytes.NewBufferString(sampleCSV), "ledger.xlsx", "")
	if result.Success {
		t.Fatal("text bytes cannot parse as a workbook")
	}
	if strings.Contains(result.Errors[0], domain.ErrBadSignature.Error()) {
		t.Errorf("forward-only stream must skip the signature check, got %v", result.Errors)
	}

	doc, err := repo.GetDocument(context.Background(), result.DocumentID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if doc.Status != domain.StatusError {
		t.Errorf("failed document status = %s, want ERROR", doc.Status)
	}
}

func TestIngestDuplicateChecksum(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)
	ctx := context.Background()

	first := ing.Ingest(ctx, strings.NewReader(sampleCSV), "ledger.csv", "")
	if !first.Success {
		t.Fatalf("first ingestion failed: %v", first.Errors)
	}

	second := ing.Ingest(ctx, strings.NewReader(sampleCSV), "ledger-copy.csv", "")
	if !second.Success {
		t.Fatalf("duplicate ingestion must succeed, got %v", second.Errors)
	}
	if second.DocumentID != first.DocumentID {
		t.Errorf("duplicate must point at the original document, got %s vs %s",
			second.DocumentID, first.DocumentID)
	}
	if second.RecordsImported != 0 {
		t.Errorf("duplicate imported %d records, want 0", second.RecordsImported)
	}
	if len(second.Warnings) == 0 || !strings.Contains(second.Warnings[0], "duplicate") {
		t.Errorf("warnings = %v, want duplicate notice", second.Warnings)
	}
}

func TestIngestRetryAfterFailedIngestion(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)
	ing.pdf = &flakyExtractor{result: &extract.Result{
		Source: extract.SourceText,
		Records: []domain.Record{{
			AccountName: "Sales",
			Amount:      100,
			Category:    "Revenue",
			Period:      "2024-03",
		}},
	}}
	ctx := context.Background()

	first := ing.Ingest(ctx, strings.NewReader("%PDF-1.7 fake"), "report.pdf", "")
	if first.Success {
		t.Fatal("first ingestion must fail")
	}
	doc, err := repo.GetDocument(ctx, first.DocumentID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if doc.Status != domain.StatusError {
		t.Fatalf("failed document status = %s, want ERROR", doc.Status)
	}

	// A byte-identical retry must run extraction again, not be treated as a
	// duplicate of the failed document.
	second := ing.Ingest(ctx, strings.NewReader("%PDF-1.7 fake"), "report.pdf", "")
	if !second.Success {
		t.Fatalf("retry failed: %v", second.Errors)
	}
	if second.RecordsImported != 1 {
		t.Errorf("retry imported %d records, want 1", second.RecordsImported)
	}
	if second.DocumentID == first.DocumentID {
		t.Error("retry must create a fresh document, not reuse the failed one")
	}
	for _, w := range second.Warnings {
		if strings.Contains(w, "duplicate") {
			t.Errorf("retry of a failed ingestion flagged as duplicate: %q", w)
		}
	}
}

// processingFailRepo rejects the move to Processing so the document is still
// Uploaded when the pipeline aborts.
type processingFailRepo struct {
	*storage.MemoryRepository
}

func (r *processingFailRepo) UpdateDocumentStatus(ctx context.Context, docID string, status domain.DocumentStatus) error {
	if status == domain.StatusProcessing {
		return errors.New("transient storage failure")
	}
	return r.MemoryRepository.UpdateDocumentStatus(ctx, docID, status)
}

func TestIngestProcessingUpdateFailureStillMarksError(t *testing.T) {
	repo := &processingFailRepo{MemoryRepository: storage.NewMemoryRepository()}
	ing := newTestIngestor(repo)

	result := ing.Ingest(context.Background(), strings.NewReader(sampleCSV), "ledger.csv", "")
	if result.Success {
		t.Fatal("ingestion must fail when the status update fails")
	}

	doc, err := repo.GetDocument(context.Background(), result.DocumentID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if doc.Status != domain.StatusError {
		t.Errorf("document status = %s, want ERROR (must not strand in UPLOADED)", doc.Status)
	}
}

func TestIngestRetainsRawBytes(t *testing.T) {
	repo := storage.NewMemoryRepository()
	store := objectstore.NewMemoryStore()
	ing := newTestIngestorWithStore(repo, store)
	ctx := context.Background()

	result := ing.Ingest(ctx, strings.NewReader(sampleCSV), "ledger.csv", "")
	if !result.Success {
		t.Fatalf("ingestion failed: %v", result.Errors)
	}

	doc, err := repo.GetDocument(ctx, result.DocumentID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if !strings.HasPrefix(doc.StorageURI, "mem://") {
		t.Fatalf("StorageURI = %q, want a store locator", doc.StorageURI)
	}

	data, err := store.Fetch(ctx, doc.StorageURI)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != sampleCSV {
		t.Error("retained bytes differ from the upload")
	}
}

func TestIngestExtractorFailureMarksError(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)

	result := ing.Ingest(context.Background(), strings.NewReader("%PDF-1.7 fake"), "report.pdf", "")
	if result.Success {
		t.Fatal("failing extractor must fail the ingestion")
	}
	if result.DocumentID == "" {
		t.Fatal("result must still carry the document id")
	}

	doc, err := repo.GetDocument(context.Background(), result.DocumentID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if doc.Status != domain.StatusError {
		t.Errorf("document status = %s, want ERROR", doc.Status)
	}
}

func TestIngestNoFinancialData(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)
	ing.pdf = &stubExtractor{result: &extract.Result{Source: extract.SourceText}}

	result := ing.Ingest(context.Background(), strings.NewReader("%PDF-1.7 fake"), "report.pdf", "")
	if result.Success {
		t.Fatal("zero extracted records must fail the ingestion")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, domain.ErrNoFinancialData.Error()) {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want no-financial-data error", result.Errors)
	}
}

func TestIngestVisionFallbackWarning(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)
	ing.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	ing.pdf = &stubExtractor{result: &extract.Result{
		Source: extract.SourceVision,
		Records: []domain.Record{{
			AccountName: "Sales",
			Amount:      100,
			Category:    "Revenue",
			Period:      "2024-03",
		}},
	}}

	result := ing.Ingest(context.Background(), strings.NewReader("%PDF-1.7 fake"), "report.pdf", "")
	if !result.Success {
		t.Fatalf("ingestion failed: %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "vision") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want vision fallback notice", result.Warnings)
	}
}

func TestIngestDeclaredFormatOverridesExtension(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ing := newTestIngestor(repo)

	// A .xls extension with a declared delimited format routes to the CSV
	// extractor; the signature check passes because delimited text has none.
	result := ing.Ingest(context.Background(), strings.NewReader(sampleCSV), "export.xls", "DELIMITED_TEXT")
	if !result.Success {
		t.Fatalf("ingestion failed: %v", result.Errors)
	}
	if result.RecordsImported != 2 {
		t.Errorf("RecordsImported = %d, want 2", result.RecordsImported)
	}
}
