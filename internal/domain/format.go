package domain

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format identifies the upload format an extractor can handle.
type Format string

const (
	FormatSpreadsheet   Format = "SPREADSHEET"
	FormatDelimitedText Format = "DELIMITED_TEXT"
	FormatPDF           Format = "PDF"
	FormatUnknown       Format = "UNKNOWN"
)

// DetectFormat maps a filename extension to a Format. Unknown extensions map
// to FormatUnknown; the orchestrator rejects those.
func DetectFormat(filename string) Format {
	switch NormalizeExt(filepath.Ext(filename)) {
	case "xlsx", "xls":
		return FormatSpreadsheet
	case "csv", "tsv":
		return FormatDelimitedText
	case "pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// ParseFormat converts a caller-declared format string to a Format.
// Empty or unrecognized input yields FormatUnknown so the caller can fall
// back to extension detection.
func ParseFormat(s string) Format {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(FormatSpreadsheet):
		return FormatSpreadsheet
	case string(FormatDelimitedText):
		return FormatDelimitedText
	case string(FormatPDF):
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

var (
	// xlsx is a ZIP container; xls is a legacy OLE compound file.
	sigZIP = []byte{0x50, 0x4B, 0x03, 0x04}
	sigOLE = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	sigPDF = []byte("%PDF")
)

// MatchesSignature checks the first bytes of a stream against the magic
// numbers expected for the format. Delimited text has no signature and always
// passes. head should contain at least the first 8 bytes of the stream.
func MatchesSignature(format Format, head []byte) bool {
	switch format {
	case FormatSpreadsheet:
		return bytes.HasPrefix(head, sigZIP) || bytes.HasPrefix(head, sigOLE)
	case FormatPDF:
		return bytes.HasPrefix(head, sigPDF)
	case FormatDelimitedText:
		return true
	default:
		return false
	}
}
