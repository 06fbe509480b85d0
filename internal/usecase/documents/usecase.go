// Package documents covers document management: listing, deletion and
// export of the stored text in downloadable formats.
package documents

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/formatter"
)

// Export is a rendered document ready for download.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DocumentsUsecase implements document management operations.
type DocumentsUsecase struct {
	documentStore DocumentStore
	sectionStore  SectionStore
	formats       *formatter.Factory
	logger        *zap.Logger
}

// NewUsecase creates a new documents use case
func NewUsecase(
	documentStore DocumentStore,
	sectionStore SectionStore,
	formats *formatter.Factory,
	logger *zap.Logger,
) *DocumentsUsecase {
	return &DocumentsUsecase{
		documentStore: documentStore,
		sectionStore:  sectionStore,
		formats:       formats,
		logger:        logger,
	}
}

// List returns all stored documents.
func (uc *DocumentsUsecase) List(ctx context.Context) ([]*entity.Document, error) {
	return uc.documentStore.List(ctx)
}

// Delete removes a document. Its sections go with it through the
// cascading foreign key.
func (uc *DocumentsUsecase) Delete(ctx context.Context, documentID string) error {
	if err := uc.documentStore.Delete(ctx, documentID); err != nil {
		return err
	}

	ctxzap.Info(ctx, "document deleted", zap.String("document_id", documentID))
	return nil
}

// ExportDocument renders a document's stored sections in the requested
// format. Adjacent sections overlap by construction, so the rendered
// text is a readable transcript, not a byte-exact reconstruction of the
// original file.
func (uc *DocumentsUsecase) ExportDocument(ctx context.Context, documentID string, format entity.ExportFormat) (*Export, error) {
	doc, err := uc.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sections, err := uc.sectionStore.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		parts = append(parts, section.Content)
	}

	f, err := uc.formats.Create(format)
	if err != nil {
		return nil, err
	}

	data, err := f.Format(doc.Name, strings.Join(parts, "\n\n"))
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}

	ctxzap.Info(ctx, "document exported",
		zap.String("document_id", documentID),
		zap.String("format", string(format)),
		zap.Int("sections", len(sections)),
	)

	return &Export{
		FileName:    exportFileName(doc.Name, f.FileExtension()),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// exportFileName swaps the stored name's extension for the export
// format's one.
func exportFileName(name, extension string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "document"
	}
	return base + extension
}
