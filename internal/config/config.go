package config

import (
	"flag"
	"fmt"
	"time"

	pkgRetry "github.com/askdocs/askdocs-backend/internal/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configuration
	OpenAICfg OpenAIConfig `envPrefix:"OPENAI_"`

	// Embedding task pool configuration
	PoolCfg PoolConfig `envPrefix:"POOL_"`

	// Ingestion configuration
	IngestCfg IngestConfig `envPrefix:"INGEST_"`

	// Retrieval configuration
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// OpenAIConfig holds OpenAI client configuration
type OpenAIConfig struct {
	APIKey         string               `env:"API_KEY"`
	BaseURL        string               `env:"BASE_URL"`
	EmbeddingModel string               `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	ChatModel      string               `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	RequestTimeout time.Duration        `env:"TIMEOUT" envDefault:"90s"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// PoolConfig holds the embedding task pool limits
type PoolConfig struct {
	Concurrency   int           `env:"CONCURRENCY" envDefault:"10"`
	RatePerMinute int           `env:"RATE_PER_MINUTE" envDefault:"2950"`
	MemoryLimitMB int           `env:"MEMORY_LIMIT_MB" envDefault:"512"`
	TaskTimeout   time.Duration `env:"TASK_TIMEOUT" envDefault:"2m"` // 0 disables the per-task timeout
}

// IngestConfig holds chunking, extraction and upload settings
type IngestConfig struct {
	UploadDir       string `env:"UPLOAD_DIR" envDefault:"uploads"`
	WatchUploadDir  bool   `env:"WATCH_UPLOAD_DIR" envDefault:"true"`
	MaxUploadSize   int64  `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB
	ChunkMaxTokens  int    `env:"CHUNK_MAX_TOKENS" envDefault:"800"`
	ChunkOverlap    int    `env:"CHUNK_OVERLAP_TOKENS" envDefault:"400"`
	OCRLanguages    string `env:"OCR_LANGUAGES" envDefault:"ukr+eng"`
	PDFToTextBinary string `env:"PDFTOTEXT_BIN" envDefault:"pdftotext"`
	PDFImagesBinary string `env:"PDFIMAGES_BIN" envDefault:"pdfimages"`
	TesseractBinary string `env:"TESSERACT_BIN" envDefault:"tesseract"`
}

// RetrievalConfig holds query-time limits
type RetrievalConfig struct {
	ContextTokenBudget int `env:"CONTEXT_TOKEN_BUDGET" envDefault:"3000"`
	// MaxDistance caps the pgvector negative inner product between the
	// question and a section. Normalized embeddings put the operator in
	// [-1, 1] with smaller meaning closer, so 0.8 admits everything but
	// strongly dissimilar sections and leaves ordering to the ranking.
	MaxDistance       float64       `env:"MAX_DISTANCE" envDefault:"0.8"`
	MaxCandidates     int           `env:"MAX_CANDIDATES" envDefault:"5"`
	QuestionMaxTokens int           `env:"QUESTION_MAX_TOKENS" envDefault:"150"`
	EmbeddingCacheTTL time.Duration `env:"EMBEDDING_CACHE_TTL" envDefault:"10m"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"30"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"` // seconds
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.PoolCfg.Concurrency < 1 {
		return fmt.Errorf("POOL_CONCURRENCY must be at least 1, got %d", cfg.PoolCfg.Concurrency)
	}

	if cfg.PoolCfg.RatePerMinute < 1 {
		return fmt.Errorf("POOL_RATE_PER_MINUTE must be at least 1, got %d", cfg.PoolCfg.RatePerMinute)
	}

	if cfg.IngestCfg.ChunkMaxTokens < 1 {
		return fmt.Errorf("INGEST_CHUNK_MAX_TOKENS must be at least 1, got %d", cfg.IngestCfg.ChunkMaxTokens)
	}

	if cfg.IngestCfg.ChunkOverlap < 0 || cfg.IngestCfg.ChunkOverlap >= cfg.IngestCfg.ChunkMaxTokens {
		return fmt.Errorf("INGEST_CHUNK_OVERLAP_TOKENS must be in [0, INGEST_CHUNK_MAX_TOKENS), got %d", cfg.IngestCfg.ChunkOverlap)
	}

	if cfg.RetrievalCfg.MaxDistance <= -1 || cfg.RetrievalCfg.MaxDistance > 1 {
		return fmt.Errorf("RETRIEVAL_MAX_DISTANCE must be in (-1, 1], got %f", cfg.RetrievalCfg.MaxDistance)
	}

	if cfg.RetrievalCfg.ContextTokenBudget < cfg.RetrievalCfg.QuestionMaxTokens {
		return fmt.Errorf("RETRIEVAL_CONTEXT_TOKEN_BUDGET (%d) must not be smaller than RETRIEVAL_QUESTION_MAX_TOKENS (%d)",
			cfg.RetrievalCfg.ContextTokenBudget, cfg.RetrievalCfg.QuestionMaxTokens)
	}

	if !cfg.EnableMocks && cfg.OpenAICfg.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required unless ENABLE_MOCKS is set")
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
