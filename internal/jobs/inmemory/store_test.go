package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/ledger-analyzer/internal/jobs"
)

func seedJob(id, docID string, status jobs.JobStatus, created time.Time) *jobs.IngestDocumentJob {
	return &jobs.IngestDocumentJob{
		JobID:      id,
		DocumentID: docID,
		Filename:   id + ".csv",
		Status:     status,
		CreatedAt:  created,
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := seedJob("job-1", "doc-1", jobs.JobStatusPending, time.Now())
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Filename != "job-1.csv" || got.Status != jobs.JobStatusPending {
		t.Errorf("got %+v", got)
	}

	// The store must hold a copy, not the caller's pointer.
	job.Status = jobs.JobStatusFailed
	got, _ = store.GetJob(ctx, "job-1")
	if got.Status != jobs.JobStatusPending {
		t.Error("store leaked the caller's pointer")
	}

	if err := store.SaveJob(ctx, &jobs.IngestDocumentJob{}); err == nil {
		t.Error("SaveJob must reject a missing job ID")
	}
	if _, err := store.GetJob(ctx, "nope"); err == nil {
		t.Error("GetJob must fail for unknown IDs")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	store.SaveJob(ctx, seedJob("job-1", "doc-1", jobs.JobStatusCompleted, base))
	store.SaveJob(ctx, seedJob("job-2", "doc-2", jobs.JobStatusFailed, base.Add(time.Minute)))
	store.SaveJob(ctx, seedJob("job-3", "doc-1", jobs.JobStatusCompleted, base.Add(2*time.Minute)))

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d jobs, want 3", len(all))
	}
	if all[0].JobID != "job-3" {
		t.Errorf("newest first, got %s", all[0].JobID)
	}

	byDoc, _ := store.ListJobs(ctx, jobs.JobFilter{DocumentID: "doc-1"})
	if len(byDoc) != 2 {
		t.Errorf("document filter returned %d jobs, want 2", len(byDoc))
	}

	failed, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if len(failed) != 1 || failed[0].JobID != "job-2" {
		t.Errorf("status filter returned %+v", failed)
	}

	page, _ := store.ListJobs(ctx, jobs.JobFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].JobID != "job-2" {
		t.Errorf("pagination returned %+v", page)
	}

	empty, _ := store.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	if len(empty) != 0 {
		t.Errorf("out-of-range offset returned %d jobs", len(empty))
	}
}
