package ingest

import (
	"fmt"

	"github.com/askdocs/askdocs-backend/internal/pkg/tokenizer"
)

// Chunker splits cleaned text into overlapping, token-bounded chunks.
// Adjacent chunks share exactly the configured overlap, so content at a
// chunk boundary is always embedded with surrounding context.
type Chunker struct {
	tok       tokenizer.Tokenizer
	maxTokens int
	overlap   int
}

// NewChunker validates the parameters: maxTokens must be positive and
// the overlap strictly smaller.
func NewChunker(tok tokenizer.Tokenizer, maxTokens, overlap int) (*Chunker, error) {
	if maxTokens < 1 {
		return nil, fmt.Errorf("max tokens must be at least 1, got %d", maxTokens)
	}
	if overlap < 0 || overlap >= maxTokens {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", maxTokens, overlap)
	}
	return &Chunker{
		tok:       tok,
		maxTokens: maxTokens,
		overlap:   overlap,
	}, nil
}

// Split tokenizes the text once and cuts token windows of maxTokens,
// stepping by maxTokens-overlap. The final chunk may be shorter; short
// final chunks are kept, never trimmed. Empty text yields no chunks.
func (c *Chunker) Split(text string) []string {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.maxTokens - c.overlap
	chunks := make([]string, 0, (len(tokens)+step-1)/step)

	for i := 0; i < len(tokens); i += step {
		end := i + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, c.tok.Decode(tokens[i:end]))

		if end == len(tokens) {
			break
		}
	}

	return chunks
}
