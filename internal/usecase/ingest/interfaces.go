package ingest

import (
	"context"

	"github.com/askdocs/askdocs-backend/internal/entity"
)

// TextExtractor turns file bytes into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, fileType entity.FileType, data []byte) (string, error)
}

// Embedder computes embedding vectors.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore persists documents.
type DocumentStore interface {
	Create(ctx context.Context, name string) (*entity.Document, error)
}

// SectionStore persists embedded sections.
type SectionStore interface {
	Insert(ctx context.Context, documentID, content string, embedding []float32) (*entity.DocumentSection, error)
}
