package openai

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is a deterministic stand-in for local development and
// tests without API access.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

// EmbedText returns a deterministic unit-length vector derived from the
// text, so identical texts get identical embeddings.
func (m *MockConnector) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("length", len(text)))

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, entity.EmbeddingDimensions)
	var norm float64
	for i := range embedding {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>11))/float64(1<<52) - 1
		embedding[i] = float32(v)
		norm += v * v
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range embedding {
		embedding[i] *= scale
	}

	return embedding, nil
}

// Answer echoes a canned reply.
func (m *MockConnector) Answer(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] answering question", zap.Int("prompt_length", len(prompt)))
	return "[mock] no real model behind this answer", nil
}
