// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/api/middleware"
	"github.com/dvloznov/ledger-analyzer/internal/domain"
	"github.com/dvloznov/ledger-analyzer/internal/jobs"
	"github.com/dvloznov/ledger-analyzer/internal/objectstore"
	"github.com/dvloznov/ledger-analyzer/internal/storage"
)

// DocumentsHandler handles document upload and retrieval endpoints.
type DocumentsHandler struct {
	repo      storage.DocumentRepository
	store     objectstore.Store
	publisher jobs.Publisher
	maxBytes  int64
	log       zerolog.Logger
}

func NewDocumentsHandler(repo storage.DocumentRepository, store objectstore.Store,
	publisher jobs.Publisher, maxBytes int64, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		repo:      repo,
		store:     store,
		publisher: publisher,
		maxBytes:  maxBytes,
		log:       log,
	}
}

// Upload handles POST /api/documents. The multipart file is staged to the
// object store and an ingestion job is enqueued; the response is 202 with
// the job ID so the caller can poll.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, domain.ErrTooLarge.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, domain.ErrEmptyUpload.Error())
		return
	}

	objectName := fmt.Sprintf("uploads/%s/%s-%s",
		time.Now().UTC().Format("2006/01/02"), uuid.New().String(), header.Filename)
	uri, err := h.store.Upload(ctx, objectName, data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to stage upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to stage upload")
		return
	}

	job := &jobs.IngestDocumentJob{
		ObjectURI:      uri,
		Filename:       header.Filename,
		DeclaredFormat: r.FormValue("format"),
	}
	if err := h.publisher.PublishIngestDocument(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("filename", header.Filename).
		Int("bytes", len(data)).
		Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"object_uri": uri,
		"status":     string(job.Status),
	})
}

// Get handles GET /api/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request, documentID string) {
	ctx := r.Context()

	doc, records, err := h.repo.GetDocumentWithRecords(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.log.Error().Err(err).Str("document_id", documentID).Msg("Failed to get document")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get document")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document":     doc,
		"records":      records,
		"record_count": len(records),
	})
}
