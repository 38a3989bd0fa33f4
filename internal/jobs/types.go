// Package jobs defines the asynchronous ingestion job model and the queue
// abstractions the API server uses to process uploads off the request path.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestDocument represents a document ingestion job.
	JobTypeIngestDocument JobType = "ingest_document"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// IngestDocumentJob carries one queued ingestion. The raw bytes live in the
// object store; the job references them by URI.
type IngestDocumentJob struct {
	JobID string `json:"job_id"`

	// ObjectURI locates the uploaded bytes in the object store.
	ObjectURI string `json:"object_uri"`

	Filename       string `json:"filename"`
	DeclaredFormat string `json:"declared_format,omitempty"`

	// DocumentID is filled in once ingestion has created the document.
	DocumentID string `json:"document_id,omitempty"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *IngestDocumentJob) GetID() string        { return j.JobID }
func (j *IngestDocumentJob) GetType() JobType     { return JobTypeIngestDocument }
func (j *IngestDocumentJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations.
type Publisher interface {
	// PublishIngestDocument publishes a document ingestion job.
	PublishIngestDocument(ctx context.Context, job *IngestDocumentJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A non-nil error marks the job for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore stores and retrieves job state so callers can poll progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *IngestDocumentJob) error
	GetJob(ctx context.Context, jobID string) (*IngestDocumentJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestDocumentJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	DocumentID string
	Status     JobStatus
	Limit      int
	Offset     int
}
