package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	pkghttp "github.com/askdocs/askdocs-backend/pkg/http"
)

// Connector talks to the OpenAI API for embeddings and chat
// completions. Transient failures are retried here; callers above the
// task pool never retry on their own.
type Connector struct {
	client *openai.Client
	config config.OpenAIConfig
	logger *zap.Logger
}

func NewConnector(cfg config.OpenAIConfig, logger *zap.Logger) *Connector {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = pkghttp.NewClient(
		pkghttp.WithRequestTimeout(cfg.RequestTimeout),
		pkghttp.WithRequestLogging(),
	)

	return &Connector{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger,
	}
}

// EmbedText computes the embedding vector for a single text.
func (c *Connector) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	err := retry.Do(func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.config.EmbeddingModel),
		})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}

		if len(resp.Data) == 0 {
			return errors.New("embedding response is empty")
		}

		embedding = resp.Data[0].Embedding
		return nil
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)

	if err != nil {
		ctxzap.Error(ctx, "embedding call failed", zap.Error(err))
		return nil, err
	}

	if len(embedding) != entity.EmbeddingDimensions {
		return nil, fmt.Errorf("%w: model returned %d dimensions",
			entity.ErrInvalidVector, len(embedding))
	}

	return embedding, nil
}

// Answer generates a chat completion for the assembled prompt. The
// prompt already carries the instructions, the document excerpts and
// the user's question.
func (c *Connector) Answer(ctx context.Context, prompt string) (string, error) {
	var answer string

	err := retry.Do(func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.config.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("create chat completion: %w", err)
		}

		if len(resp.Choices) == 0 {
			return errors.New("no response generated")
		}

		answer = resp.Choices[0].Message.Content
		return nil
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)

	if err != nil {
		ctxzap.Error(ctx, "chat completion failed", zap.Error(err))
		return "", err
	}

	return answer, nil
}
