package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// extractPDF combines the PDF's layout text with OCR of its embedded
// images, so scanned documents and mixed documents both yield text.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	path, cleanup, err := tempFile("askdocs-*.pdf", data)
	if err != nil {
		return "", err
	}
	defer cleanup()

	text, err := e.pdfLayoutText(ctx, path)
	if err != nil {
		return "", err
	}

	imageText, err := e.pdfImageText(ctx, path)
	if err != nil {
		// Image OCR is best effort; the layout text alone is still a
		// usable extraction.
		e.logger.Warn("pdf embedded-image OCR failed", zap.Error(err))
		return text, nil
	}

	return text + " " + imageText, nil
}

func (e *Extractor) pdfLayoutText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, e.cfg.PDFToTextBinary, "-layout", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, stderr.String())
	}

	return stdout.String(), nil
}

// pdfImageText extracts embedded images with pdfimages and OCRs each.
func (e *Extractor) pdfImageText(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp("", "askdocs-pdfimages-*")
	if err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cmd := exec.CommandContext(ctx, e.cfg.PDFImagesBinary, "-png", path, filepath.Join(dir, "img"))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdfimages: %w: %s", err, stderr.String())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read image dir: %w", err)
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		text, err := e.ocrFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			e.logger.Warn("embedded image OCR failed",
				zap.String("image", entry.Name()),
				zap.Error(err),
			)
			continue
		}

		sb.WriteString(text)
		sb.WriteString(" ")
	}

	return sb.String(), nil
}
