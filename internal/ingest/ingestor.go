// Package ingest orchestrates one document's journey from raw bytes to
// persisted records: validation, format dispatch, extraction, persistence
// and status bookkeeping.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/config"
	"github.com/dvloznov/ledger-analyzer/internal/domain"
	"github.com/dvloznov/ledger-analyzer/internal/extract"
	"github.com/dvloznov/ledger-analyzer/internal/objectstore"
	"github.com/dvloznov/ledger-analyzer/internal/storage"
)

// Ingestor validates uploads, dispatches to extractors, and persists the
// document-and-records unit. One call processes one document end-to-end.
type Ingestor struct {
	cfg         config.IngestConfig
	repo        storage.DocumentRepository
	store       objectstore.Store
	spreadsheet extract.Extractor
	delimited   extract.Extractor
	pdf         extract.Extractor
	log         zerolog.Logger
	now         func() time.Time
	newID       func() string
}

// New wires an Ingestor. The object store may be nil, in which case raw
// bytes are not retained.
func New(cfg config.IngestConfig, repo storage.DocumentRepository, store objectstore.Store,
	spreadsheet, delimited, pdf extract.Extractor, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		cfg:         cfg,
		repo:        repo,
		store:       store,
		spreadsheet: spreadsheet,
		delimited:   delimited,
		pdf:         pdf,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Ingest processes one upload. Expected failures come back inside the
// result with Success=false; the error return is reserved for invariant
// violations in the ingestor itself and is always nil today.
func (ing *Ingestor) Ingest(ctx context.Context, r io.Reader, filename, declaredFormat string) *domain.ExtractionResult {
	start := ing.now()
	result := &domain.ExtractionResult{}
	fail := func(err error) *domain.ExtractionResult {
		result.Errors = append(result.Errors, err.Error())
		result.ElapsedMS = time.Since(start).Milliseconds()
		ing.log.Warn().Str("filename", filename).Err(err).Msg("ingestion failed")
		return result
	}

	format, err := ing.resolveFormat(filename, declaredFormat)
	if err != nil {
		return fail(err)
	}

	if seeker, ok := r.(io.Seeker); ok {
		if err := checkSignature(r, seeker, format); err != nil {
			return fail(err)
		}
	}
	// Forward-only streams skip signature validation. Degraded but accepted.

	data, err := io.ReadAll(io.LimitReader(r, ing.cfg.MaxUploadBytes+1))
	if err != nil {
		return fail(fmt.Errorf("reading upload: %w", err))
	}
	if len(data) == 0 {
		return fail(domain.ErrEmptyUpload)
	}
	if int64(len(data)) > ing.cfg.MaxUploadBytes {
		return fail(domain.ErrTooLarge)
	}

	checksum := sha256.Sum256(data)
	checksumHex := hex.EncodeToString(checksum[:])
	// Only a fully analyzed document counts as a duplicate. A document that
	// failed ingestion keeps its checksum, and re-uploading the same bytes
	// must retry extraction, not point the caller at the failed document.
	if existing, err := ing.repo.FindDocumentByChecksum(ctx, checksumHex); err == nil && existing != nil &&
		existing.Status == domain.StatusAnalyzed {
		result.Success = true
		result.DocumentID = existing.ID
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("duplicate of document %s (%s), skipped", existing.ID, existing.Filename))
		result.ElapsedMS = time.Since(start).Milliseconds()
		ing.log.Info().Str("filename", filename).Str("document_id", existing.ID).Msg("duplicate upload")
		return result
	}

	doc := &domain.Document{
		ID:         ing.newID(),
		Filename:   filename,
		Format:     format,
		Status:     domain.StatusUploaded,
		SizeBytes:  int64(len(data)),
		Checksum:   checksumHex,
		UploadedAt: ing.now().UTC(),
	}

	if ing.store != nil {
		uri, err := ing.store.Upload(ctx, doc.ID+"/"+filename, data)
		if err != nil {
			// Raw-byte retention is best effort; the upload itself
			// still proceeds.
			result.Warnings = append(result.Warnings, fmt.Sprintf("raw byte retention failed: %v", err))
			ing.log.Warn().Err(err).Msg("object store upload failed")
		} else {
			doc.StorageURI = uri
		}
	}

	extractor, err := ing.extractorFor(format)
	if err != nil {
		return fail(err)
	}

	state := &PipelineState{Document: doc, Data: data, Extractor: extractor}
	pipeline := NewPipeline(
		&CreateDocumentStep{Repo: ing.repo},
		&ExtractRecordsStep{},
		&PersistRecordsStep{Repo: ing.repo},
		&FinalizeStep{Repo: ing.repo},
	)
	if err := pipeline.Execute(ctx, state); err != nil {
		ing.markError(ctx, doc)
		result.DocumentID = doc.ID
		result.Warnings = append(result.Warnings, state.Warnings...)
		return fail(err)
	}

	result.Success = true
	result.DocumentID = doc.ID
	result.RecordsImported = len(state.Records)
	result.Warnings = append(result.Warnings, state.Warnings...)
	result.ElapsedMS = time.Since(start).Milliseconds()
	ing.log.Info().
		Str("filename", filename).
		Str("document_id", doc.ID).
		Int("records", result.RecordsImported).
		Int64("elapsed_ms", result.ElapsedMS).
		Msg("ingestion complete")
	return result
}

func (ing *Ingestor) resolveFormat(filename, declaredFormat string) (domain.Format, error) {
	ext := domain.NormalizeExt(filepath.Ext(filename))
	allowed := false
	for _, a := range ing.cfg.AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.FormatUnknown, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFormat)
	}

	if format := domain.ParseFormat(declaredFormat); format != domain.FormatUnknown {
		return format, nil
	}
	format := domain.DetectFormat(filename)
	if format == domain.FormatUnknown {
		return domain.FormatUnknown, domain.ErrUnsupportedFormat
	}
	return format, nil
}

func (ing *Ingestor) extractorFor(format domain.Format) (extract.Extractor, error) {
	switch format {
	case domain.FormatSpreadsheet:
		return ing.spreadsheet, nil
	case domain.FormatDelimitedText:
		return ing.delimited, nil
	case domain.FormatPDF:
		return ing.pdf, nil
	default:
		return nil, domain.ErrUnsupportedFormat
	}
}

// markError moves the document to Error on a detached context so a
// cancelled ingestion never strands a document in Processing.
func (ing *Ingestor) markError(ctx context.Context, doc *domain.Document) {
	detached := context.WithoutCancel(ctx)
	if err := ing.repo.UpdateDocumentStatus(detached, doc.ID, domain.StatusError); err != nil {
		ing.log.Error().Str("document_id", doc.ID).Err(err).Msg("failed to mark document as error")
	}
}

// checkSignature reads the first 8 bytes, verifies them against the format's
// magic-number table, and seeks back to the start.
func checkSignature(r io.Reader, seeker io.Seeker, format domain.Format) error {
	head := make([]byte, 8)
	n, err := io.ReadFull(r, head)
	if err == io.EOF {
		// Leave emptiness to the size check after the rewind.
		n = 0
	} else if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("reading signature: %w", err)
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding stream: %w", err)
	}
	if n > 0 && !domain.MatchesSignature(format, head[:n]) {
		return domain.ErrBadSignature
	}
	return nil
}
