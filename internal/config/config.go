package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"bibliophage/internal/domain"
)

// Document store backends.
const (
	DocStoreSQLite = "sqlite"
	DocStoreMongo  = "mongo"
)

// Vector index backends.
const (
	VectorPGVector = "pgvector"
	VectorQdrant   = "qdrant"
	VectorMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	DBPath    string
	DocStore  string
	DocDBURL  string
	DocDBName string

	VectorBackend    string
	VectorDBURL      string
	QdrantURL        string
	QdrantCollection string

	EmbeddingBaseURL     string
	EmbeddingModelName   string
	EmbeddingAPIKey      string
	EmbeddingDimensions  int
	EmbeddingBatchSize   int
	EmbeddingMaxRetries  int
	EmbeddingConcurrency int
	EmbeddingRPS         float64
	EmbeddingTimeout     time.Duration

	Chunking domain.ChunkingConfig

	IngestWorkers       int
	MaxUploadBytes      int64
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or up to five parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DBPath:             getEnv("DB_PATH", "./data/bibliophage.db"),
		DocStore:           strings.ToLower(getEnv("DOC_STORE", DocStoreSQLite)),
		DocDBURL:           getEnv("DOC_DB_URL", ""),
		DocDBName:          getEnv("DOC_DB_NAME", "bibliophage"),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", VectorPGVector)),
		VectorDBURL:        getEnv("VECTOR_DB_URL", ""),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "chunks"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "BAAI/bge-large-en-v1.5"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
	}

	var p parser
	cfg.LogLevel = p.level("LOG_LEVEL", slog.LevelInfo)
	cfg.EmbeddingDimensions = p.requiredInt("EMBEDDING_DIMENSIONS")
	cfg.EmbeddingBatchSize = p.int("EMBEDDING_BATCH_SIZE", 32)
	cfg.EmbeddingMaxRetries = p.int("EMBEDDING_MAX_RETRIES", 4)
	cfg.EmbeddingConcurrency = p.int("EMBEDDING_CONCURRENCY", 2)
	cfg.EmbeddingRPS = p.float("EMBEDDING_RPS", 0)
	cfg.EmbeddingTimeout = p.duration("EMBEDDING_TIMEOUT", 30*time.Second)
	cfg.Chunking = domain.ChunkingConfig{
		ChunkSize:    p.int("CHUNK_SIZE", domain.DefaultChunkSize),
		ChunkOverlap: p.int("CHUNK_OVERLAP", domain.DefaultChunkOverlap),
	}
	cfg.IngestWorkers = p.int("INGEST_WORKERS", 4)
	cfg.MaxUploadBytes = int64(p.int("MAX_UPLOAD_BYTES", 200<<20))
	cfg.ReconcileInterval = p.duration("RECONCILE_INTERVAL", 10*time.Minute)
	cfg.ReconcileStaleAfter = p.duration("RECONCILE_STALE_AFTER", 30*time.Minute)
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be greater than 0")
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be greater than 0")
	}
	if c.EmbeddingMaxRetries < 0 {
		return fmt.Errorf("EMBEDDING_MAX_RETRIES must not be negative")
	}
	if c.EmbeddingConcurrency <= 0 {
		return fmt.Errorf("EMBEDDING_CONCURRENCY must be greater than 0")
	}
	if c.EmbeddingRPS < 0 {
		return fmt.Errorf("EMBEDDING_RPS must not be negative")
	}
	if c.IngestWorkers <= 0 {
		return fmt.Errorf("INGEST_WORKERS must be greater than 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be greater than 0")
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("CHUNK_SIZE/CHUNK_OVERLAP: %w", err)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	switch c.DocStore {
	case DocStoreSQLite:
	case DocStoreMongo:
		if c.DocDBURL == "" {
			return fmt.Errorf("DOC_DB_URL is required when DOC_STORE=mongo")
		}
	default:
		return fmt.Errorf("DOC_STORE must be sqlite or mongo, got %q", c.DocStore)
	}

	switch c.VectorBackend {
	case VectorPGVector:
		if c.VectorDBURL == "" {
			return fmt.Errorf("VECTOR_DB_URL is required when VECTOR_BACKEND=pgvector")
		}
	case VectorQdrant, VectorMemory:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be pgvector, qdrant or memory, got %q", c.VectorBackend)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value, want string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s must be %s, got %q: %w", key, want, value, err)
	}
}

func (p *parser) int(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, "a valid integer", err)
		return def
	}
	return v
}

func (p *parser) requiredInt(key string) int {
	if getEnv(key, "") == "" {
		if p.err == nil {
			p.err = fmt.Errorf("%s is required", key)
		}
		return 0
	}
	return p.int(key, 0)
}

func (p *parser) float(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, "a number", err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, "a duration", err)
		return def
	}
	return v
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		p.fail(key, raw, "debug, info, warn or error", err)
		return def
	}
	return lvl
}
