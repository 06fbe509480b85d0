package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/pool"
)

type memoryDocumentStore struct {
	mu   sync.Mutex
	docs []*entity.Document
}

func (s *memoryDocumentStore) Create(_ context.Context, name string) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &entity.Document{ID: uuid.NewString(), Name: name}
	s.docs = append(s.docs, doc)
	return doc, nil
}

type memorySectionStore struct {
	mu       sync.Mutex
	sections []*entity.DocumentSection
}

func (s *memorySectionStore) Insert(_ context.Context, documentID, content string, embedding []float32) (*entity.DocumentSection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	section := &entity.DocumentSection{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Content:    content,
		Embedding:  embedding,
	}
	s.sections = append(s.sections, section)
	return section, nil
}

type stubExtractor struct {
	err error
}

func (e *stubExtractor) Extract(_ context.Context, _ entity.FileType, data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return string(data), nil
}

type countingEmbedder struct {
	mu      sync.Mutex
	calls   int
	failOn  string
	failErr error
}

func (e *countingEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, e.failErr
	}
	return []float32{1, 0, 0}, nil
}

func (e *countingEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestUsecase(t *testing.T, extractor TextExtractor, embedder Embedder, maxTokens, overlap int) (*IngestUsecase, *memoryDocumentStore, *memorySectionStore) {
	t.Helper()

	docs := &memoryDocumentStore{}
	sections := &memorySectionStore{}

	taskPool, err := pool.New(pool.Config{Concurrency: 4, RatePerMinute: 10000})
	require.NoError(t, err)
	t.Cleanup(taskPool.Close)

	chunker, err := NewChunker(newWordTokenizer(), maxTokens, overlap)
	require.NoError(t, err)

	uc := NewUsecase(docs, sections, extractor, embedder, taskPool, chunker, zap.NewNop())
	return uc, docs, sections
}

func TestIngestFileWaitEmbedsEveryChunk(t *testing.T) {
	embedder := &countingEmbedder{}
	uc, docs, sections := newTestUsecase(t, &stubExtractor{}, embedder, 800, 400)

	// 2000 tokens with an 800/400 window yields 4 chunks.
	err := uc.IngestFileWait(context.Background(), "report.pdf", []byte(numberedWords(2000)))
	require.NoError(t, err)

	require.Len(t, docs.docs, 1)
	assert.Equal(t, "report.pdf", docs.docs[0].Name)
	assert.Equal(t, 4, embedder.callCount())

	require.Len(t, sections.sections, 4)
	for _, section := range sections.sections {
		assert.Equal(t, docs.docs[0].ID, section.DocumentID)
		assert.NotEmpty(t, section.Content)
		assert.NotEmpty(t, section.Embedding)
	}
}

func TestIngestFileWaitSkipsEmptyDocument(t *testing.T) {
	uc, docs, sections := newTestUsecase(t, &stubExtractor{}, &countingEmbedder{}, 800, 400)

	err := uc.IngestFileWait(context.Background(), "blank.pdf", []byte("   \t\n "))
	require.ErrorIs(t, err, entity.ErrEmptyDocument)

	assert.Empty(t, docs.docs)
	assert.Empty(t, sections.sections)
}

func TestIngestFileWaitPropagatesExtractionFailure(t *testing.T) {
	extractErr := fmt.Errorf("%w: broken file", entity.ErrExtractionFailed)
	uc, docs, _ := newTestUsecase(t, &stubExtractor{err: extractErr}, &countingEmbedder{}, 800, 400)

	err := uc.IngestFileWait(context.Background(), "broken.pdf", []byte("data"))
	require.ErrorIs(t, err, entity.ErrExtractionFailed)
	assert.Empty(t, docs.docs)
}

func TestIngestFileWaitToleratesFailedChunk(t *testing.T) {
	embedder := &countingEmbedder{failOn: "w0", failErr: errors.New("embedding backend down")}
	uc, docs, sections := newTestUsecase(t, &stubExtractor{}, embedder, 10, 0)

	// 30 tokens in 10-token windows: the first chunk fails to embed,
	// the other two still land.
	err := uc.IngestFileWait(context.Background(), "partial.pdf", []byte(numberedWords(30)))
	require.NoError(t, err)

	require.Len(t, docs.docs, 1)
	require.Len(t, sections.sections, 2)
	for _, section := range sections.sections {
		assert.NotContains(t, section.Content, "w0 ")
	}
}

func TestIngestFileReturnsBeforeEmbeddingFinishes(t *testing.T) {
	release := make(chan struct{})
	embedder := &blockingEmbedder{release: release}
	uc, docs, sections := newTestUsecase(t, &stubExtractor{}, embedder, 800, 400)

	err := uc.IngestFile(context.Background(), "slow.pdf", []byte(numberedWords(100)))
	require.NoError(t, err)

	// The document record exists even though no embedding has
	// completed yet.
	assert.Len(t, docs.docs, 1)
	assert.Empty(t, sections.sections)

	close(release)
}

type blockingEmbedder struct {
	release chan struct{}
}

func (e *blockingEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	<-e.release
	return []float32{1}, nil
}
