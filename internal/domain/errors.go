package domain

import "errors"

// Sentinel errors for the expected failure modes. Callers receive these
// inside a structured ExtractionResult or as a wrapped error from the
// analytics engine; they are never raised as panics.
var (
	// ErrEmptyUpload means the upload stream had zero bytes.
	ErrEmptyUpload = errors.New("upload is empty")

	// ErrTooLarge means the upload exceeded the configured maximum size.
	ErrTooLarge = errors.New("upload exceeds maximum size")

	// ErrUnsupportedFormat means the filename extension is not allowed or
	// the format could not be determined.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrBadSignature means the stream's magic bytes contradict the
	// declared format.
	ErrBadSignature = errors.New("file signature does not match format")

	// ErrNoFinancialData means an extractor ran but produced zero valid
	// records.
	ErrNoFinancialData = errors.New("no financial data found")

	// ErrInsufficientData means an analytics operation was asked to work
	// on fewer data points than its minimum.
	ErrInsufficientData = errors.New("insufficient data points")

	// ErrDocumentNotFound means the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
)
