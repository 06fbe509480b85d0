package documents

import (
	"context"

	"github.com/askdocs/askdocs-backend/internal/entity"
)

// DocumentStore reads and deletes stored documents.
type DocumentStore interface {
	Get(ctx context.Context, documentID string) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	Delete(ctx context.Context, documentID string) error
}

// SectionStore lists the stored sections of a document.
type SectionStore interface {
	ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentSection, error)
}
