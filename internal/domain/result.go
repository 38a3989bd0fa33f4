package domain

// ExtractionResult is the structured outcome of one ingestion call. It is
// returned to the caller and never persisted.
type ExtractionResult struct {
	Success         bool     `json:"success"`
	DocumentID      string   `json:"document_id,omitempty"`
	RecordsImported int      `json:"records_imported"`
	Errors          []string `json:"errors,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	ElapsedMS       int64    `json:"elapsed_ms"`
}
