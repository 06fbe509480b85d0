package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// settleDelay is how long a file must be unmodified before it is
// considered fully written and safe to ingest.
const settleDelay = 2 * time.Second

// Watcher ingests files dropped into the upload directory. Filesystem
// events trigger a sweep; a periodic sweep also runs so files that
// settled while no event fired are not left behind. Successfully
// processed files are removed; failed ones stay for the next restart.
type Watcher struct {
	usecase *IngestUsecase
	dir     string
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewWatcher(usecase *IngestUsecase, dir string, logger *zap.Logger) *Watcher {
	return &Watcher{
		usecase:  usecase,
		dir:      dir,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.logger.Info("watching upload directory", zap.String("dir", w.dir))

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	// Pick up files left over from a previous run.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				// Let the file settle before sweeping it up.
				time.AfterFunc(settleDelay, func() { w.sweep(ctx) })
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep processes every settled file in the directory that is not
// already being worked on.
func (w *Watcher) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("read upload dir", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}

		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < settleDelay {
			continue
		}

		path := filepath.Join(w.dir, entry.Name())
		if !w.claim(path) {
			continue
		}

		go func(path, name string) {
			defer w.release(path)
			w.process(ctx, path, name)
		}(path, entry.Name())
	}
}

func (w *Watcher) process(ctx context.Context, path, name string) {
	ctx = ctxzap.ToContext(ctx, w.logger.With(zap.String("file", name)))

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Error("read uploaded file", zap.String("file", name), zap.Error(err))
		return
	}

	if err := w.usecase.IngestFileWait(ctx, name, data); err != nil {
		w.logger.Error("file ingestion failed", zap.String("file", name), zap.Error(err))
		return
	}

	if err := os.Remove(path); err != nil {
		w.logger.Warn("remove processed file", zap.String("file", name), zap.Error(err))
		return
	}

	w.logger.Info("file processed", zap.String("file", name))
}

func (w *Watcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inFlight[path]; busy {
		return false
	}
	w.inFlight[path] = struct{}{}
	return true
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, path)
}
