// Package extractor turns uploaded file bytes into raw text. Images go
// through tesseract OCR, PDFs through poppler's pdftotext plus OCR of
// embedded images, DOCX through the document body plus OCR of embedded
// images.
package extractor

import (
	"context"
	"fmt"
	"os"

	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/entity"
	"go.uber.org/zap"
)

// Extractor dispatches extraction by declared file type.
type Extractor struct {
	cfg    config.IngestConfig
	logger *zap.Logger
}

func NewExtractor(cfg config.IngestConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger,
	}
}

// Extract returns the raw text of the file, or
// entity.ErrUnsupportedFileType for formats it does not know.
func (e *Extractor) Extract(ctx context.Context, fileType entity.FileType, data []byte) (string, error) {
	switch {
	case fileType.IsImage():
		return e.extractImage(ctx, data)
	case fileType == entity.FileTypePDF:
		return e.extractPDF(ctx, data)
	case fileType == entity.FileTypeDOCX:
		return e.extractDOCX(ctx, data)
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedFileType, fileType)
	}
}

// tempFile writes data to a temporary file and returns its path with a
// cleanup func.
func tempFile(pattern string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return path, cleanup, nil
}
