// Package ingest runs the document ingestion pipeline: extract text,
// clean it, chunk it, persist the document and embed each chunk through
// the shared task pool.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/askdocs/askdocs-backend/internal/pkg/logger"
	"github.com/askdocs/askdocs-backend/internal/pkg/pool"
	"github.com/askdocs/askdocs-backend/internal/pkg/textutil"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// IngestUsecase implements the ingestion pipeline for one uploaded
// file. Archives are expanded and each entry runs as an independent
// pipeline invocation sharing the same pool.
type IngestUsecase struct {
	documentStore DocumentStore
	sectionStore  SectionStore
	extractor     TextExtractor
	embedder      Embedder
	taskPool      *pool.Pool
	chunker       *Chunker
	logger        *zap.Logger
}

// NewUsecase creates a new ingestion use case
func NewUsecase(
	documentStore DocumentStore,
	sectionStore SectionStore,
	extractor TextExtractor,
	embedder Embedder,
	taskPool *pool.Pool,
	chunker *Chunker,
	logger *zap.Logger,
) *IngestUsecase {
	return &IngestUsecase{
		documentStore: documentStore,
		sectionStore:  sectionStore,
		extractor:     extractor,
		embedder:      embedder,
		taskPool:      taskPool,
		chunker:       chunker,
		logger:        logger,
	}
}

// IngestFile processes one uploaded file. Embedding tasks are submitted
// to the pool and complete in the background; the call returns once the
// document record exists and all tasks are queued.
func (uc *IngestUsecase) IngestFile(ctx context.Context, name string, data []byte) error {
	_, err := uc.ingest(ctx, name, data)
	return err
}

// IngestFileWait processes one uploaded file and blocks until every
// embedding task has completed. Per-chunk failures are logged, not
// returned: a chunk that failed to embed is simply missing from the
// document.
func (uc *IngestUsecase) IngestFileWait(ctx context.Context, name string, data []byte) error {
	handles, err := uc.ingest(ctx, name, data)
	if err != nil {
		return err
	}

	for _, h := range handles {
		if werr := h.Wait(ctx); werr != nil {
			ctxzap.Warn(ctx, "chunk embedding failed", zap.String("file", name), zap.Error(werr))
		}
	}

	return nil
}

func (uc *IngestUsecase) ingest(ctx context.Context, name string, data []byte) ([]*pool.Handle, error) {
	fileType := entity.FileTypeFromName(name)
	if fileType == entity.FileTypeZIP {
		return uc.ingestArchive(ctx, name, data)
	}
	return uc.ingestSingle(ctx, name, fileType, data)
}

// ingestSingle runs extract -> clean -> chunk -> persist -> submit.
// The document record is created before any embedding task is
// submitted, so partial failures still leave a queryable document with
// whatever sections succeeded.
func (uc *IngestUsecase) ingestSingle(ctx context.Context, name string, fileType entity.FileType, data []byte) ([]*pool.Handle, error) {
	content, err := uc.extractor.Extract(ctx, fileType, data)
	if err != nil {
		ctxzap.Error(ctx, "text extraction failed",
			zap.String("file", name),
			zap.String("type", string(fileType)),
			zap.Error(err),
		)
		return nil, err
	}

	cleaned := textutil.Clean(content)
	chunks := uc.chunker.Split(cleaned)
	if len(chunks) == 0 {
		ctxzap.Warn(ctx, "no extractable text, skipping document", zap.String("file", name))
		return nil, entity.ErrEmptyDocument
	}

	doc, err := uc.documentStore.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	ctx = logger.WithDocument(ctx, doc.ID)
	ctxzap.Info(ctx, "document created, submitting embedding tasks",
		zap.String("file", name),
		zap.Int("chunks", len(chunks)),
	)

	handles := make([]*pool.Handle, 0, len(chunks))
	for i, chunk := range chunks {
		i, chunk := i, chunk
		h, err := uc.taskPool.SubmitWait(func(taskCtx context.Context) error {
			embedding, err := uc.embedder.EmbedText(taskCtx, chunk)
			if err != nil {
				return fmt.Errorf("embed chunk %d of %s: %w", i, doc.ID, err)
			}

			if _, err := uc.sectionStore.Insert(taskCtx, doc.ID, chunk, embedding); err != nil {
				return fmt.Errorf("insert chunk %d of %s: %w", i, doc.ID, err)
			}

			return nil
		})
		if err != nil {
			return handles, fmt.Errorf("submit embedding task: %w", err)
		}
		handles = append(handles, h)
	}

	return handles, nil
}

// ingestArchive expands a zip container and ingests each contained
// file concurrently. Entries are independent: one failing is logged
// and does not affect the others.
func (uc *IngestUsecase) ingestArchive(ctx context.Context, name string, data []byte) ([]*pool.Handle, error) {
	entries, err := readArchive(data)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", name, err)
	}

	ctxzap.Info(ctx, "expanding archive",
		zap.String("file", name),
		zap.Int("entries", len(entries)),
	)

	var mu sync.Mutex
	var handles []*pool.Handle
	var wg sync.WaitGroup

	for _, entry := range entries {
		entry := entry
		wg.Add(1)
		go func() {
			defer wg.Done()

			hs, err := uc.ingestSingle(ctx, entry.name, entity.FileTypeFromName(entry.name), entry.data)
			if err != nil {
				ctxzap.Error(ctx, "archive entry ingestion failed",
					zap.String("archive", name),
					zap.String("entry", entry.name),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			handles = append(handles, hs...)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return handles, nil
}
