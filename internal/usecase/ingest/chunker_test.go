package ingest

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer treats whitespace-separated words as tokens. It keeps
// the real tokenizer's contract (deterministic encode, lossless decode
// for cleaned text) while making token counts easy to reason about.
type wordTokenizer struct {
	mu    sync.Mutex
	words []string
	index map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{index: make(map[string]int)}
}

func (w *wordTokenizer) Encode(text string) []int {
	w.mu.Lock()
	defer w.mu.Unlock()

	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	for i, field := range fields {
		id, ok := w.index[field]
		if !ok {
			id = len(w.words)
			w.words = append(w.words, field)
			w.index[field] = id
		}
		tokens[i] = id
	}
	return tokens
}

func (w *wordTokenizer) Decode(tokens []int) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	fields := make([]string, len(tokens))
	for i, id := range tokens {
		fields[i] = w.words[id]
	}
	return strings.Join(fields, " ")
}

func (w *wordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitCoversAllTokensWithExactOverlap(t *testing.T) {
	tok := newWordTokenizer()
	chunker, err := NewChunker(tok, 8, 3)
	require.NoError(t, err)

	text := numberedWords(20)
	chunks := chunker.Split(text)

	// ceil((20-3)/(8-3)) = 4 chunks
	require.Len(t, chunks, 4)

	// Every chunk starts where the previous one left off minus the
	// overlap, so the union of token ranges covers [0, 20) gap-free.
	step := 8 - 3
	seen := make(map[string]bool)
	for i, chunk := range chunks {
		fields := strings.Fields(chunk)
		assert.Equal(t, fmt.Sprintf("w%d", i*step), fields[0])
		if i < len(chunks)-1 {
			assert.Len(t, fields, 8)
			// Adjacent chunks share exactly the overlap.
			next := strings.Fields(chunks[i+1])
			assert.Equal(t, fields[len(fields)-3:], next[:3])
		}
		for _, f := range fields {
			seen[f] = true
		}
	}
	assert.Len(t, seen, 20)
}

func TestSplitChunkCountFormula(t *testing.T) {
	tests := []struct {
		tokens  int
		max     int
		overlap int
		want    int
	}{
		{tokens: 2000, max: 800, overlap: 400, want: 4},
		{tokens: 800, max: 800, overlap: 400, want: 1},
		{tokens: 801, max: 800, overlap: 400, want: 2},
		{tokens: 1, max: 800, overlap: 400, want: 1},
		{tokens: 100, max: 10, overlap: 0, want: 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_tokens_%d_max_%d_overlap", tt.tokens, tt.max, tt.overlap), func(t *testing.T) {
			chunker, err := NewChunker(newWordTokenizer(), tt.max, tt.overlap)
			require.NoError(t, err)

			chunks := chunker.Split(numberedWords(tt.tokens))
			assert.Len(t, chunks, tt.want)
		})
	}
}

func TestSplitKeepsShortFinalChunk(t *testing.T) {
	chunker, err := NewChunker(newWordTokenizer(), 8, 3)
	require.NoError(t, err)

	chunks := chunker.Split(numberedWords(12))
	require.Len(t, chunks, 2)
	assert.Len(t, strings.Fields(chunks[1]), 7) // tokens [5, 12)
}

func TestSplitIsDeterministic(t *testing.T) {
	tok := newWordTokenizer()
	chunker, err := NewChunker(tok, 10, 4)
	require.NoError(t, err)

	text := numberedWords(57)
	assert.Equal(t, chunker.Split(text), chunker.Split(text))
}

func TestSplitEmptyTextYieldsNoChunks(t *testing.T) {
	chunker, err := NewChunker(newWordTokenizer(), 8, 3)
	require.NoError(t, err)

	assert.Empty(t, chunker.Split(""))
	assert.Empty(t, chunker.Split("   "))
}

func TestNewChunkerRejectsBadParameters(t *testing.T) {
	tok := newWordTokenizer()

	_, err := NewChunker(tok, 0, 0)
	assert.Error(t, err)

	_, err = NewChunker(tok, 8, 8)
	assert.Error(t, err)

	_, err = NewChunker(tok, 8, -1)
	assert.Error(t, err)
}
