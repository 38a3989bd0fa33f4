package domain

import (
	"time"
)

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

// Status values move strictly forward; Analyzed and Error are terminal.
const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusAnalyzed   DocumentStatus = "ANALYZED"
	StatusError      DocumentStatus = "ERROR"
)

// CanTransition reports whether moving from s to next is a legal forward
// transition. Terminal states accept nothing.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch s {
	case StatusUploaded:
		// Uploaded may fail straight to Error when the move to Processing
		// itself could not be recorded.
		return next == StatusProcessing || next == StatusError
	case StatusProcessing:
		return next == StatusAnalyzed || next == StatusError
	default:
		return false
	}
}

// Terminal reports whether the status is an end state.
func (s DocumentStatus) Terminal() bool {
	return s == StatusAnalyzed || s == StatusError
}

// Document is one uploaded artifact. Its records are owned exclusively by it
// and cascade with it at the storage layer.
type Document struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	Format     Format         `json:"format"`
	Status     DocumentStatus `json:"status"`
	SizeBytes  int64          `json:"size_bytes"`
	StorageURI string         `json:"storage_uri,omitempty"`
	Checksum   string         `json:"checksum_sha256,omitempty"`
	OwnerID    string         `json:"owner_id,omitempty"`
	UploadedAt time.Time      `json:"uploaded_at"`
}
