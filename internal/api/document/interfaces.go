package document

import (
	"context"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/usecase/documents"
)

type IngestUsecase interface {
	IngestFileWait(ctx context.Context, name string, data []byte) error
}

type DocumentsUsecase interface {
	List(ctx context.Context) ([]*entity.Document, error)
	Delete(ctx context.Context, documentID string) error
	ExportDocument(ctx context.Context, documentID string, format entity.ExportFormat) (*documents.Export, error)
}
