// Package chat answers user questions from the ingested documents:
// embed the question, retrieve the most similar sections, assemble a
// token-budgeted prompt and generate the reply.
package chat

import (
	"context"
	"fmt"

	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/textutil"
	"github.com/askdocs/askdocs-backend/internal/pkg/tokenizer"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ChatUsecase implements the question-answering flow.
type ChatUsecase struct {
	ai             AIConnector
	sections       SectionSearcher
	assembler      *ContextAssembler
	tok            tokenizer.Tokenizer
	cfg            config.RetrievalConfig
	embeddingCache *gocache.Cache
	logger         *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	ai AIConnector,
	sections SectionSearcher,
	tok tokenizer.Tokenizer,
	cfg config.RetrievalConfig,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		ai:             ai,
		sections:       sections,
		assembler:      NewContextAssembler(tok, cfg.ContextTokenBudget),
		tok:            tok,
		cfg:            cfg,
		embeddingCache: gocache.New(cfg.EmbeddingCacheTTL, 2*cfg.EmbeddingCacheTTL),
		logger:         logger,
	}
}

// Ask answers a single question against the ingested documents.
func (uc *ChatUsecase) Ask(ctx context.Context, question string) (string, error) {
	question = textutil.Clean(question)
	if question == "" {
		return "", entity.ErrQuestionEmpty
	}

	if count := uc.tok.Count(question); count > uc.cfg.QuestionMaxTokens {
		ctxzap.Warn(ctx, "question over token limit", zap.Int("tokens", count))
		return "", entity.ErrQuestionTooLong
	}

	embedding, err := uc.questionEmbedding(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	candidates, err := uc.sections.SearchSimilar(ctx, embedding,
		uc.cfg.MaxDistance, uc.cfg.MaxCandidates)
	if err != nil {
		return "", fmt.Errorf("similarity search: %w", err)
	}

	ctxzap.Info(ctx, "retrieved candidates", zap.Int("count", len(candidates)))

	prompt := uc.assembler.Assemble(candidates, question)

	answer, err := uc.ai.Answer(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return answer, nil
}

// questionEmbedding embeds the question, reusing a cached vector when
// the same question was asked recently.
func (uc *ChatUsecase) questionEmbedding(ctx context.Context, question string) ([]float32, error) {
	if cached, ok := uc.embeddingCache.Get(question); ok {
		return cached.([]float32), nil
	}

	embedding, err := uc.ai.EmbedText(ctx, question)
	if err != nil {
		return nil, err
	}

	uc.embeddingCache.SetDefault(question, embedding)
	return embedding, nil
}
