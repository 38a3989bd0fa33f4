package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-analyzer/internal/analytics"
	"github.com/dvloznov/ledger-analyzer/internal/api/handlers"
	"github.com/dvloznov/ledger-analyzer/internal/api/middleware"
	"github.com/dvloznov/ledger-analyzer/internal/config"
	"github.com/dvloznov/ledger-analyzer/internal/extract"
	"github.com/dvloznov/ledger-analyzer/internal/ingest"
	"github.com/dvloznov/ledger-analyzer/internal/jobs"
	"github.com/dvloznov/ledger-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/ledger-analyzer/internal/logger"
	"github.com/dvloznov/ledger-analyzer/internal/objectstore"
	"github.com/dvloznov/ledger-analyzer/internal/storage"
	"github.com/dvloznov/ledger-analyzer/internal/vision"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	if cfg.Storage.ProjectID == "" {
		log.Fatal().Msg("GCP_PROJECT must be set")
	}
	if cfg.Storage.Bucket == "" {
		log.Fatal().Msg("GCS_BUCKET must be set")
	}

	ctx := context.Background()

	repo, err := storage.NewBigQueryRepository(ctx, cfg.Storage.ProjectID, cfg.Storage.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer repo.Close()

	store, err := objectstore.NewGCSStore(ctx, cfg.Storage.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object store")
	}
	defer store.Close()

	analyzer, err := vision.NewGeminiAnalyzer(ctx, cfg.Ingest.VisionModel, logger.WithComponent(log, "vision"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create vision analyzer")
	}

	ingestor := buildIngestor(cfg, repo, store, analyzer, log)
	engine := analytics.NewEngine(repo, cfg.Analytics, logger.WithComponent(log, "analytics"))

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 2, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestDocumentJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("object_uri", ingestJob.ObjectURI).
			Msg("Processing ingestion job")

		data, err := store.Fetch(ctx, ingestJob.ObjectURI)
		if err != nil {
			return fmt.Errorf("fetching staged upload: %w", err)
		}

		result := ingestor.Ingest(ctx, bytes.NewReader(data), ingestJob.Filename, ingestJob.DeclaredFormat)
		ingestJob.DocumentID = result.DocumentID
		if !result.Success {
			return fmt.Errorf("ingestion failed: %s", strings.Join(result.Errors, "; "))
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("document_id", result.DocumentID).
			Int("records", result.RecordsImported).
			Msg("Ingestion job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	documentsHandler := handlers.NewDocumentsHandler(repo, store, jobQueue, cfg.Ingest.MaxUploadBytes, log)
	analyticsHandler := handlers.NewAnalyticsHandler(engine, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			documentsHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/documents/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		documentID := strings.TrimPrefix(r.URL.Path, "/api/documents/")
		if documentID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Document ID is required")
			return
		}
		documentsHandler.Get(w, r, documentID)
	})

	// Analytics endpoints keyed by document, path style /api/analytics/<op>/<id>
	docScoped := map[string]func(http.ResponseWriter, *http.Request, string){
		"summary":   analyticsHandler.Summary,
		"ratios":    analyticsHandler.Ratios,
		"anomalies": analyticsHandler.Anomalies,
	}
	for op, handler := range docScoped {
		prefix := "/api/analytics/" + op + "/"
		h := handler
		mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			documentID := strings.TrimPrefix(r.URL.Path, prefix)
			if documentID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Document ID is required")
				return
			}
			h(w, r, documentID)
		})
	}

	mux.HandleFunc("/api/analytics/trends", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analyticsHandler.Trends(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analytics/comparison", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analyticsHandler.Comparison(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analytics/forecast", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analyticsHandler.Forecast(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Job queue shutdown error")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}

func buildIngestor(cfg *config.Config, repo storage.DocumentRepository, store objectstore.Store,
	analyzer vision.Analyzer, log zerolog.Logger) *ingest.Ingestor {
	runner := extract.NewExecRunner(logger.WithComponent(log, "exec"))
	pdfCfg := extract.PDFConfig{
		PdftotextBin: cfg.Ingest.PdftotextBin,
		PdftoppmBin:  cfg.Ingest.PdftoppmBin,
		RasterDPI:    cfg.Ingest.RasterDPI,
		PageTimeout:  cfg.Ingest.VisionPageTimeout,
	}
	return ingest.New(cfg.Ingest, repo, store,
		extract.NewSpreadsheetExtractor(logger.WithComponent(log, "spreadsheet")),
		extract.NewDelimitedExtractor(logger.WithComponent(log, "delimited")),
		extract.NewPDFExtractor(pdfCfg, runner, analyzer, logger.WithComponent(log, "pdf")),
		logger.WithComponent(log, "ingest"),
	)
}
