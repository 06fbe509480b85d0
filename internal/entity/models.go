package entity

import (
	"strings"
	"time"
)

// EmbeddingDimensions is the dimensionality of every stored vector.
// It matches the output size of the text-embedding-3-small model and
// the vector(1536) column in the database schema.
const EmbeddingDimensions = 1536

// Document is one ingested file (or one file extracted from an archive).
// Documents are immutable after creation; deleting one cascades to its
// sections.
type Document struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// DocumentSection is a bounded-size slice of a document's text together
// with its embedding. A section is inserted only after its embedding
// has been computed, so a partially ingested document simply has fewer
// sections than intended.
type DocumentSection struct {
	ID         string
	DocumentID string
	Content    string
	Embedding  []float32
}

// RetrievalCandidate is a section returned by similarity search, paired
// with its similarity score. Candidates are read-only projections used
// only during context assembly.
type RetrievalCandidate struct {
	Content    string
	Similarity float64
}

// FileType identifies the declared format of an uploaded file.
type FileType string

const (
	FileTypePNG  FileType = "png"
	FileTypeJPG  FileType = "jpg"
	FileTypeJPEG FileType = "jpeg"
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeZIP  FileType = "zip"
)

// FileTypeFromName derives the file type from the file name extension.
func FileTypeFromName(name string) FileType {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return FileType(strings.ToLower(name[idx+1:]))
}

// IsSupported reports whether the type can be ingested.
func (t FileType) IsSupported() bool {
	switch t {
	case FileTypePNG, FileTypeJPG, FileTypeJPEG, FileTypePDF, FileTypeDOCX, FileTypeZIP:
		return true
	default:
		return false
	}
}

// IsImage reports whether the type is one of the supported raster
// image formats.
func (t FileType) IsImage() bool {
	switch t {
	case FileTypePNG, FileTypeJPG, FileTypeJPEG:
		return true
	default:
		return false
	}
}
