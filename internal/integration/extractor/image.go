package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// extractImage OCRs a standalone raster image.
func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	path, cleanup, err := tempFile("askdocs-image-*", data)
	if err != nil {
		return "", err
	}
	defer cleanup()

	return e.ocrFile(ctx, path)
}

// ocrFile runs tesseract over an image file and returns the recognized
// text.
func (e *Extractor) ocrFile(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, e.cfg.TesseractBinary, path, "stdout", "-l", e.cfg.OCRLanguages)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, stderr.String())
	}

	e.logger.Debug("image OCR completed",
		zap.String("path", path),
		zap.Int("text_length", stdout.Len()),
	)

	return stdout.String(), nil
}
