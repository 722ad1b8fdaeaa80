// Package app assembles the engine from configuration. Both binaries build
// their object graph here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"

	"bibliophage/internal/config"
	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/extract"
	"bibliophage/internal/handlers"
	"bibliophage/internal/indexer"
	"bibliophage/internal/llm"
	"bibliophage/internal/metrics"
	"bibliophage/internal/query"
	"bibliophage/internal/service"
	"bibliophage/internal/storage"
	"bibliophage/internal/storage/mongostore"
	"bibliophage/internal/vectorstore"
)

// App is the assembled engine.
type App struct {
	Config     *config.Config
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Documents  service.DocumentService
	Pdfs       service.PdfService
	Runner     *indexer.Runner
	Reconciler *indexer.Reconciler
	Index      vectorstore.VectorIndex
	Gateway    *llm.Gateway
	Health     map[string]handlers.HealthCheck

	scheduler *gocron.Scheduler
	closers   []func() error
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// stores is the persistence half of the graph.
type stores struct {
	docs    storage.DocumentStore
	pdfs    storage.PdfStore
	jobs    storage.JobStore
	index   vectorstore.VectorIndex
	health  map[string]handlers.HealthCheck
	closers []func() error
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// New opens every store, checks the embedding provider, and wires the
// services. Ingestion workers start under ctx. The reconciliation sweep is
// started separately by StartReconciler.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDimensions, cfg.EmbeddingTimeout)
	gwCfg := llm.DefaultGatewayConfig()
	gwCfg.BatchSize = cfg.EmbeddingBatchSize
	gwCfg.Concurrency = cfg.EmbeddingConcurrency
	gwCfg.MaxRetries = cfg.EmbeddingMaxRetries
	gwCfg.RequestsPerSecond = cfg.EmbeddingRPS
	gateway := llm.NewGateway(provider, cfg.EmbeddingDimensions, gwCfg, m)

	if err := gateway.Probe(ctx); err != nil {
		st.close()
		return nil, fmt.Errorf("embedding provider check failed: %w", err)
	}
	logger.InfoContext(ctx, "embedding provider validated", "dimensions", cfg.EmbeddingDimensions, "model", cfg.EmbeddingModelName)

	pipeline := indexer.NewPipeline(st.pdfs, st.jobs, st.index, gateway, extract.NewAuto(), cfg.Chunking, m)
	runner := indexer.NewRunner(ctx, pipeline, cfg.IngestWorkers)

	docSearch := query.NewOrchestrator[domain.Document](st.docs, domain.KindDocument, st.index, gateway, m)
	pdfSearch := query.NewOrchestrator[domain.Pdf](st.pdfs, domain.KindPdf, st.index, gateway, m)

	return &App{
		Config:     cfg,
		Registry:   reg,
		Metrics:    m,
		Documents:  service.NewDocumentService(st.docs, pipeline, st.index, docSearch),
		Pdfs:       service.NewPdfService(st.pdfs, st.jobs, st.index, runner, pdfSearch),
		Runner:     runner,
		Reconciler: indexer.NewReconciler(st.pdfs, st.docs, st.jobs, st.index, cfg.ReconcileStaleAfter, m),
		Index:      st.index,
		Gateway:    gateway,
		Health:     st.health,
		closers:    st.closers,
	}, nil
}

// StartReconciler schedules the periodic sweep. A zero interval disables it.
func (a *App) StartReconciler(ctx context.Context) error {
	if a.Config.ReconcileInterval <= 0 {
		return nil
	}
	s, err := a.Reconciler.Schedule(ctx, a.Config.ReconcileInterval)
	if err != nil {
		return err
	}
	a.scheduler = s
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "reconciliation scheduled",
		"interval", a.Config.ReconcileInterval, "stale_after", a.Config.ReconcileStaleAfter)
	return nil
}

// Close stops the scheduler, drains the ingestion workers and closes every store.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.Runner.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config) (_ *stores, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	st := &stores{health: map[string]handlers.HealthCheck{}}
	defer func() {
		if err != nil {
			st.close()
		}
	}()

	db, err := openSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	st.closers = append(st.closers, db.Close)
	st.jobs = storage.NewJobRepo(db)
	st.health["job_ledger"] = db.PingContext
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	switch cfg.DocStore {
	case config.DocStoreMongo:
		client, mdb, err := mongostore.Connect(ctx, cfg.DocDBURL, cfg.DocDBName)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
		st.docs = mongostore.NewDocumentRepo(mdb)
		st.pdfs = mongostore.NewPdfRepo(mdb)
		st.health["document_store"] = mongoPing(client)
		logger.InfoContext(ctx, "mongo document store ready", "database", cfg.DocDBName)
	default:
		st.docs = storage.NewDocumentRepo(db)
		st.pdfs = storage.NewPdfRepo(db)
		st.health["document_store"] = db.PingContext
	}

	switch cfg.VectorBackend {
	case config.VectorPGVector:
		if err := vectorstore.MigratePostgres(cfg.VectorDBURL); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		pg, err := vectorstore.OpenPostgres(ctx, cfg.VectorDBURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pg.Close)
		st.index = vectorstore.NewPGVectorStore(pg, cfg.EmbeddingDimensions)
		st.health["vector_index"] = pg.PingContext
	case config.VectorQdrant:
		q, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		st.closers = append(st.closers, q.Close)
		st.index = q
		st.health["vector_index"] = q.Ensure
	default:
		logger.WarnContext(ctx, "using the in-memory vector index; vectors are lost on restart")
		st.index = vectorstore.NewMemoryStore(cfg.EmbeddingDimensions)
	}

	if err := st.index.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare vector index: %w", err)
	}
	logger.InfoContext(ctx, "vector index ready", "backend", cfg.VectorBackend, "dimensions", cfg.EmbeddingDimensions)
	return st, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", domain.ErrStoreUnavailable, err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func mongoPing(client *mongo.Client) handlers.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}

// Migrate applies every schema the configuration selects without contacting
// the embedding provider.
func Migrate(ctx context.Context, cfg *config.Config) error {
	logger := contextutil.LoggerFromContext(ctx)

	db, err := openSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	logger.InfoContext(ctx, "sqlite schema applied", "path", cfg.DBPath)

	var errs []error
	if cfg.DocStore == config.DocStoreMongo {
		client, _, err := mongostore.Connect(ctx, cfg.DocDBURL, cfg.DocDBName)
		if err != nil {
			errs = append(errs, err)
		} else {
			_ = client.Disconnect(context.Background())
			logger.InfoContext(ctx, "mongo indexes created", "database", cfg.DocDBName)
		}
	}
	if cfg.VectorBackend == config.VectorPGVector {
		if err := vectorstore.MigratePostgres(cfg.VectorDBURL); err != nil {
			errs = append(errs, err)
		} else {
			logger.InfoContext(ctx, "pgvector schema applied")
		}
	}
	return errors.Join(errs...)
}
