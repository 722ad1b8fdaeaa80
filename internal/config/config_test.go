package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "DB_PATH",
	"DOC_STORE", "DOC_DB_URL", "DOC_DB_NAME",
	"VECTOR_BACKEND", "VECTOR_DB_URL", "QDRANT_URL", "QDRANT_COLLECTION",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_API_KEY",
	"EMBEDDING_DIMENSIONS", "EMBEDDING_BATCH_SIZE", "EMBEDDING_MAX_RETRIES",
	"EMBEDDING_CONCURRENCY", "EMBEDDING_RPS", "EMBEDDING_TIMEOUT",
	"CHUNK_SIZE", "CHUNK_OVERLAP", "INGEST_WORKERS", "MAX_UPLOAD_BYTES",
	"RECONCILE_INTERVAL", "RECONCILE_STALE_AFTER",
}

// isolate clears every known variable and moves into a directory without a .env file.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "test.db"))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     string
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"EMBEDDING_DIMENSIONS": "1024", "VECTOR_DB_URL": "postgres://localhost/bib"},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.APIPort != "9000" || cfg.LogFormat != "text" || cfg.LogLevel != slog.LevelInfo {
					t.Errorf("server defaults = %+v", cfg)
				}
				if cfg.DocStore != DocStoreSQLite || cfg.VectorBackend != VectorPGVector {
					t.Errorf("backends = %s/%s", cfg.DocStore, cfg.VectorBackend)
				}
				if cfg.EmbeddingBaseURL != "http://localhost:8081" || cfg.EmbeddingModelName != "BAAI/bge-large-en-v1.5" {
					t.Errorf("embedding defaults = %s %s", cfg.EmbeddingBaseURL, cfg.EmbeddingModelName)
				}
				if cfg.EmbeddingBatchSize != 32 || cfg.EmbeddingMaxRetries != 4 || cfg.EmbeddingConcurrency != 2 {
					t.Errorf("gateway defaults = %d/%d/%d", cfg.EmbeddingBatchSize, cfg.EmbeddingMaxRetries, cfg.EmbeddingConcurrency)
				}
				if cfg.EmbeddingTimeout != 30*time.Second {
					t.Errorf("EmbeddingTimeout = %v", cfg.EmbeddingTimeout)
				}
				if cfg.Chunking.ChunkSize != 600 || cfg.Chunking.ChunkOverlap != 50 {
					t.Errorf("Chunking = %+v", cfg.Chunking)
				}
				if cfg.IngestWorkers != 4 || cfg.MaxUploadBytes != 200<<20 {
					t.Errorf("ingest defaults = %d/%d", cfg.IngestWorkers, cfg.MaxUploadBytes)
				}
				if cfg.ReconcileInterval != 10*time.Minute || cfg.ReconcileStaleAfter != 30*time.Minute {
					t.Errorf("reconcile defaults = %v/%v", cfg.ReconcileInterval, cfg.ReconcileStaleAfter)
				}
				if cfg.QdrantCollection != "chunks" || cfg.DocDBName != "bibliophage" {
					t.Errorf("names = %s/%s", cfg.QdrantCollection, cfg.DocDBName)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"EMBEDDING_DIMENSIONS": "384",
				"VECTOR_BACKEND":       "Qdrant",
				"DOC_STORE":            "mongo",
				"DOC_DB_URL":           "mongodb://localhost:27017",
				"LOG_LEVEL":            "debug",
				"LOG_FORMAT":           "json",
				"EMBEDDING_RPS":        "2.5",
				"CHUNK_SIZE":           "1000",
				"CHUNK_OVERLAP":        "100",
				"RECONCILE_INTERVAL":   "0",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.VectorBackend != VectorQdrant || cfg.DocStore != DocStoreMongo {
					t.Errorf("backends = %s/%s", cfg.VectorBackend, cfg.DocStore)
				}
				if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
					t.Errorf("logging = %v/%s", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.EmbeddingRPS != 2.5 || cfg.EmbeddingDimensions != 384 {
					t.Errorf("embedding = %v/%d", cfg.EmbeddingRPS, cfg.EmbeddingDimensions)
				}
				if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 100 {
					t.Errorf("Chunking = %+v", cfg.Chunking)
				}
				if cfg.ReconcileInterval != 0 {
					t.Errorf("ReconcileInterval = %v, want disabled", cfg.ReconcileInterval)
				}
			},
		},
		{
			name:    "missing dimensions",
			env:     map[string]string{"VECTOR_BACKEND": "memory"},
			wantErr: "EMBEDDING_DIMENSIONS is required",
		},
		{
			name:    "invalid dimensions",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "lots", "VECTOR_BACKEND": "memory"},
			wantErr: "EMBEDDING_DIMENSIONS must be a valid integer",
		},
		{
			name:    "zero dimensions",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "0", "VECTOR_BACKEND": "memory"},
			wantErr: "EMBEDDING_DIMENSIONS must be greater than 0",
		},
		{
			name:    "pgvector without DSN",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "8"},
			wantErr: "VECTOR_DB_URL is required",
		},
		{
			name:    "mongo without URL",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "8", "VECTOR_BACKEND": "memory", "DOC_STORE": "mongo"},
			wantErr: "DOC_DB_URL is required",
		},
		{
			name:    "unknown vector backend",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "8", "VECTOR_BACKEND": "faiss"},
			wantErr: "VECTOR_BACKEND must be",
		},
		{
			name:    "invalid duration",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "8", "VECTOR_BACKEND": "memory", "EMBEDDING_TIMEOUT": "soon"},
			wantErr: "EMBEDDING_TIMEOUT must be a duration",
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "8", "VECTOR_BACKEND": "memory", "LOG_LEVEL": "chatty"},
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "overlap not smaller than size",
			env:     map[string]string{"EMBEDDING_DIMENSIONS": "8", "VECTOR_BACKEND": "memory", "CHUNK_SIZE": "50", "CHUNK_OVERLAP": "50"},
			wantErr: "CHUNK_SIZE/CHUNK_OVERLAP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolate(t)
	dbPath := filepath.Join(t.TempDir(), "nested", "db.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("EMBEDDING_DIMENSIONS", "8")
	t.Setenv("VECTOR_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_ReadsDotEnvFromParent(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("EMBEDDING_DIMENSIONS=12\nVECTOR_BACKEND=memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	child := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(child)
	// godotenv never overrides variables that are already set, even when empty.
	_ = os.Unsetenv("EMBEDDING_DIMENSIONS")
	_ = os.Unsetenv("VECTOR_BACKEND")
	t.Cleanup(func() {
		_ = os.Unsetenv("EMBEDDING_DIMENSIONS")
		_ = os.Unsetenv("VECTOR_BACKEND")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EmbeddingDimensions != 12 || cfg.VectorBackend != VectorMemory {
		t.Errorf("Load() did not pick up parent .env: %+v", cfg)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BIBLIOPHAGE_TEST_ENV_VAR", tt.value)
			if got := getEnv("BIBLIOPHAGE_TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}
