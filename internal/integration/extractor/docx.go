package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
	"go.uber.org/zap"
)

// extractDOCX reads the document body text and OCRs any embedded
// images.
func (e *Extractor) extractDOCX(ctx context.Context, data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}

	for _, img := range doc.Images {
		// unioffice materializes embedded images as temp files.
		if img.Path() == "" {
			continue
		}

		text, err := e.ocrFile(ctx, img.Path())
		if err != nil {
			e.logger.Warn("docx embedded image OCR failed",
				zap.String("image", img.RelID()),
				zap.Error(err),
			)
			continue
		}

		sb.WriteString(" ")
		sb.WriteString(text)
	}

	return sb.String(), nil
}
