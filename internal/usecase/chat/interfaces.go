package chat

import (
	"context"

	"github.com/askdocs/askdocs-backend/internal/entity"
)

// AIConnector provides question embedding and answer generation.
type AIConnector interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Answer(ctx context.Context, prompt string) (string, error)
}

// SectionSearcher runs similarity search over stored sections.
type SectionSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, maxDistance float64, limit int) ([]entity.RetrievalCandidate, error)
}
