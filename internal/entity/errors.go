package entity

import "errors"

// Domain errors
var (
	// Ingestion errors
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExtractionFailed    = errors.New("text extraction failed")
	ErrEmptyDocument       = errors.New("document has no extractable text")
	ErrFileTooLarge        = errors.New("file too large")

	// Document errors
	ErrDocumentNotFound = errors.New("document not found")

	// Chat errors
	ErrQuestionEmpty   = errors.New("question is empty")
	ErrQuestionTooLong = errors.New("question exceeds token limit")

	// Export errors
	ErrUnknownExportFormat = errors.New("unknown export format")

	// Validation errors
	ErrMissingField  = errors.New("required field is missing")
	ErrInvalidVector = errors.New("invalid embedding vector")
)
