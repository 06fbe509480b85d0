package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/api"
	chatapi "github.com/askdocs/askdocs-backend/internal/api/chat"
	documentapi "github.com/askdocs/askdocs-backend/internal/api/document"
	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/integration/extractor"
	"github.com/askdocs/askdocs-backend/internal/integration/openai"
	"github.com/askdocs/askdocs-backend/internal/pkg/formatter"
	"github.com/askdocs/askdocs-backend/internal/pkg/pool"
	"github.com/askdocs/askdocs-backend/internal/pkg/tokenizer"
	"github.com/askdocs/askdocs-backend/internal/repository"
	"github.com/askdocs/askdocs-backend/internal/telegram"
	"github.com/askdocs/askdocs-backend/internal/usecase/chat"
	"github.com/askdocs/askdocs-backend/internal/usecase/documents"
	"github.com/askdocs/askdocs-backend/internal/usecase/ingest"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	documentRepo := repository.NewDocumentPostgres(db)
	sectionRepo := repository.NewSectionPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var aiConnector chat.AIConnector
	var textExtractor ingest.TextExtractor

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		aiConnector = openai.NewMockConnector(logger)
		textExtractor = extractor.NewMockExtractor(logger)
	} else {
		logger.Info("Using real connectors for external services")
		aiConnector = openai.NewConnector(cfg.OpenAICfg, logger)
		textExtractor = extractor.NewExtractor(cfg.IngestCfg, logger)
	}

	// Initialize tokenizer and chunker
	tok, err := tokenizer.NewTiktoken()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize tokenizer: %w", err)
	}

	chunker, err := ingest.NewChunker(tok, cfg.IngestCfg.ChunkMaxTokens, cfg.IngestCfg.ChunkOverlap)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize chunker: %w", err)
	}

	// Initialize embedding task pool
	taskPool, err := pool.New(pool.Config{
		Concurrency:   cfg.PoolCfg.Concurrency,
		RatePerMinute: cfg.PoolCfg.RatePerMinute,
		MemoryLimitMB: cfg.PoolCfg.MemoryLimitMB,
		TaskTimeout:   cfg.PoolCfg.TaskTimeout,
	}, pool.WithLogger(logger))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize task pool: %w", err)
	}
	logger.Info("Embedding task pool initialized",
		zap.Int("concurrency", cfg.PoolCfg.Concurrency),
		zap.Int("rate_per_minute", cfg.PoolCfg.RatePerMinute),
	)

	// Initialize use cases
	ingestUC := ingest.NewUsecase(
		documentRepo,
		sectionRepo,
		textExtractor,
		aiConnector,
		taskPool,
		chunker,
		logger,
	)

	documentsUC := documents.NewUsecase(
		documentRepo,
		sectionRepo,
		formatter.NewFactory(),
		logger,
	)

	chatUC := chat.NewUsecase(
		aiConnector,
		sectionRepo,
		tok,
		cfg.RetrievalCfg,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(ingestUC, documentsUC, cfg.IngestCfg)
	chatHandler := chatapi.NewHandler(chatUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, chatHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup upload directory watcher
	var watcher *ingest.Watcher
	if cfg.IngestCfg.WatchUploadDir {
		watcher = ingest.NewWatcher(ingestUC, cfg.IngestCfg.UploadDir, logger)
		logger.Info("Upload directory watcher configured",
			zap.String("dir", cfg.IngestCfg.UploadDir),
		)
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:  server,
		db:      db,
		pool:    taskPool,
		watcher: watcher,
		logger:  logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	sectionRepo := repository.NewSectionPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize connectors
	var aiConnector chat.AIConnector
	if cfg.EnableMocks {
		logger.Info("Using mock connector for OpenAI")
		aiConnector = openai.NewMockConnector(logger)
	} else {
		aiConnector = openai.NewConnector(cfg.OpenAICfg, logger)
	}

	tok, err := tokenizer.NewTiktoken()
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize tokenizer: %w", err)
	}

	chatUC := chat.NewUsecase(
		aiConnector,
		sectionRepo,
		tok,
		cfg.RetrievalCfg,
		logger,
	)
	logger.Info("Use cases initialized")

	// Initialize Telegram bot
	bot, err := telegram.NewBot(&cfg.TelegramCfg, chatUC, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}
