package extractor

import (
	"context"
	"fmt"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockExtractor returns the input bytes as text for supported types.
// Useful for local development without the OCR toolchain installed.
type MockExtractor struct {
	logger *zap.Logger
}

func NewMockExtractor(logger *zap.Logger) *MockExtractor {
	return &MockExtractor{logger: logger}
}

func (m *MockExtractor) Extract(ctx context.Context, fileType entity.FileType, data []byte) (string, error) {
	switch {
	case fileType.IsImage(), fileType == entity.FileTypePDF, fileType == entity.FileTypeDOCX:
		ctxzap.Debug(ctx, "[MOCK] extracting text", zap.String("type", string(fileType)))
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrUnsupportedFileType, fileType)
	}
}
