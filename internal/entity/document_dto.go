package entity

import "time"

// DocumentResponse is the API representation of a document.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ListDocumentsResponse wraps the document listing.
type ListDocumentsResponse struct {
	Items []DocumentResponse `json:"items"`
}

// UploadResponse is returned for an accepted upload.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ExportFormat selects the download rendering of a document.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatPDF      ExportFormat = "pdf"
	FormatDOCX     ExportFormat = "docx"
)

// ChatRequest carries a user question.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse carries the generated answer.
type ChatResponse struct {
	Answer string `json:"answer"`
}
