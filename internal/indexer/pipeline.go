package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/extract"
	"bibliophage/internal/metrics"
	"bibliophage/internal/storage"
	"bibliophage/internal/vectorstore"
)

// rollbackTimeout bounds cleanup after a failed or cancelled job.
const rollbackTimeout = 30 * time.Second

// Pipeline ingests files into Pdf records and their chunk vectors.
// Every state change of a job is written to the job ledger.
type Pipeline struct {
	pdfs      storage.PdfStore
	jobs      storage.JobStore
	index     vectorstore.VectorIndex
	embedder  Embedder
	extractor extract.Extractor
	chunking  domain.ChunkingConfig
	metrics   *metrics.Metrics
}

// NewPipeline creates a new ingestion pipeline. chunking is used when a
// request carries no configuration of its own.
func NewPipeline(
	pdfs storage.PdfStore,
	jobs storage.JobStore,
	index vectorstore.VectorIndex,
	embedder Embedder,
	extractor extract.Extractor,
	chunking domain.ChunkingConfig,
	m *metrics.Metrics,
) *Pipeline {
	return &Pipeline{
		pdfs:      pdfs,
		jobs:      jobs,
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		chunking:  chunking,
		metrics:   m,
	}
}

// DefaultChunking returns the configuration applied to requests without one.
func (p *Pipeline) DefaultChunking() domain.ChunkingConfig {
	return p.chunking
}

// Ingest runs a whole job on the calling goroutine.
func (p *Pipeline) Ingest(ctx context.Context, req LoadRequest) (Outcome, error) {
	job, pdf, err := p.Begin(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return p.Run(ctx, job, pdf, req)
}

// Begin stores the INGESTING parent record and opens a RECEIVED job for it.
func (p *Pipeline) Begin(ctx context.Context, req LoadRequest) (domain.IngestJob, domain.Pdf, error) {
	if err := req.Validate(); err != nil {
		return domain.IngestJob{}, domain.Pdf{}, err
	}

	pdf := req.Pdf
	pdf.ID = ""
	pdf.Status = domain.PdfStatusIngesting
	pdf.FileSize = int64(len(req.File))
	pdf.ChunkCount = 0
	pdf.PageCount = 0

	stored, err := p.pdfs.Store(ctx, pdf)
	if err != nil {
		return domain.IngestJob{}, domain.Pdf{}, fmt.Errorf("failed to store pdf record: %w", err)
	}

	job, err := p.jobs.Create(ctx, domain.IngestJob{PdfID: stored.ID, OriginPath: stored.OriginPath})
	if err != nil {
		cleanup, cancel := detached(ctx)
		defer cancel()
		if _, derr := p.pdfs.Delete(cleanup, stored.ID); derr != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to remove pdf record after job creation failed",
				"pdf_id", stored.ID, "error", derr)
		}
		return domain.IngestJob{}, domain.Pdf{}, fmt.Errorf("failed to create job: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "ingestion job received",
		"job_id", job.ID, "pdf_id", stored.ID, "bytes", len(req.File))
	return job, stored, nil
}

// Run drives a RECEIVED job to PERSISTED. On any error, including
// cancellation of ctx, the job's chunks and parent record are removed and the
// job ends FAILED.
func (p *Pipeline) Run(ctx context.Context, job domain.IngestJob, pdf domain.Pdf, req LoadRequest) (Outcome, error) {
	ctx = contextutil.With(ctx, "job_id", job.ID, "pdf_id", pdf.ID)
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	out, err := p.run(ctx, job, pdf, req)
	if err != nil {
		failed := p.rollback(ctx, job, pdf, err)
		p.metrics.IngestFinished(string(domain.JobFailed), time.Since(start))
		logger.ErrorContext(ctx, "ingestion failed", "error", err, "took", time.Since(start))
		return Outcome{Pdf: pdf, Job: failed}, err
	}

	p.metrics.IngestFinished(string(domain.JobPersisted), time.Since(start))
	logger.InfoContext(ctx, "ingestion persisted",
		"chunks", out.Stats.Chunks,
		"pages", out.Pdf.PageCount,
		"p95_tokens", out.Stats.P95Tokens,
		"took", time.Since(start))
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, job domain.IngestJob, pdf domain.Pdf, req LoadRequest) (Outcome, error) {
	var err error
	advance := func(state domain.JobState, chunkCount int) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		job, err = p.jobs.Transition(ctx, job.ID, state, "", chunkCount)
		if err != nil {
			return fmt.Errorf("failed to record %s: %w", state, err)
		}
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "job advanced", "stage", state)
		return nil
	}

	if err := advance(domain.JobExtracting, 0); err != nil {
		return Outcome{}, err
	}
	extracted, err := p.extractor.Extract(ctx, req.File)
	if err != nil {
		return Outcome{}, fmt.Errorf("extraction failed: %w", err)
	}

	if err := advance(domain.JobChunking, 0); err != nil {
		return Outcome{}, err
	}
	segments, err := Chunk(extracted.Text, domain.Resolve(req.Chunking, p.chunking))
	if err != nil {
		return Outcome{}, err
	}

	if err := advance(domain.JobEmbedding, 0); err != nil {
		return Outcome{}, err
	}
	chunks, err := p.embed(ctx, domain.KindPdf, pdf.ID, segments)
	if err != nil {
		return Outcome{}, err
	}

	if err := advance(domain.JobIndexing, 0); err != nil {
		return Outcome{}, err
	}
	if err := p.WriteChunks(ctx, pdf.ID, chunks); err != nil {
		return Outcome{}, err
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	persisted, err := p.pdfs.MarkPersisted(ctx, pdf.ID, len(chunks), extracted.PageCount, int64(len(req.File)))
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to mark pdf persisted: %w", err)
	}
	if err := advance(domain.JobPersisted, len(chunks)); err != nil {
		return Outcome{}, err
	}

	return Outcome{Pdf: persisted, Job: job, Stats: ComputeChunkStats(segments)}, nil
}

// Prepare chunks text and embeds every segment without touching any store.
// Callers use it to have vectors ready before mutating a record.
func (p *Pipeline) Prepare(ctx context.Context, kind domain.Kind, documentID, text string, cfg *domain.ChunkingConfig) ([]domain.Chunk, error) {
	segments, err := Chunk(text, domain.Resolve(cfg, p.chunking))
	if err != nil {
		return nil, err
	}
	return p.embed(ctx, kind, documentID, segments)
}

func (p *Pipeline) embed(ctx context.Context, kind domain.Kind, documentID string, segments []Segment) ([]domain.Chunk, error) {
	if len(segments) == 0 {
		return []domain.Chunk{}, nil
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("%w: embedding count mismatch: expected %d, got %d",
			domain.ErrEmbeddingUnavailable, len(segments), len(vectors))
	}

	chunks := make([]domain.Chunk, len(segments))
	for i, s := range segments {
		chunks[i] = domain.Chunk{
			ChunkID:       ChunkID(kind, documentID, s.Index),
			DocumentID:    documentID,
			Kind:          kind,
			SequenceIndex: s.Index,
			Text:          s.Text,
			Vector:        vectors[i],
			CharStart:     s.CharStart,
			CharEnd:       s.CharEnd,
		}
	}
	return chunks, nil
}

// WriteChunks replaces the chunk set of documentID and verifies the index
// holds exactly len(chunks) afterwards.
func (p *Pipeline) WriteChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if err := p.index.ReplaceDocument(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("failed to write chunks: %w", err)
	}
	count, err := p.index.CountByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	if count != int64(len(chunks)) {
		return fmt.Errorf("%w: index holds %d chunks for %s, expected %d",
			domain.ErrInconsistent, count, documentID, len(chunks))
	}
	return nil
}

// rollback removes everything the job wrote and records the failure. It
// runs on a context detached from ctx's cancellation.
func (p *Pipeline) rollback(ctx context.Context, job domain.IngestJob, pdf domain.Pdf, cause error) domain.IngestJob {
	logger := contextutil.LoggerFromContext(ctx)
	cleanup, cancel := detached(ctx)
	defer cancel()

	if _, err := p.index.DeleteByDocument(cleanup, pdf.ID); err != nil {
		logger.ErrorContext(ctx, "rollback failed to delete chunks", "error", err)
	}
	if _, err := p.pdfs.Delete(cleanup, pdf.ID); err != nil {
		logger.ErrorContext(ctx, "rollback failed to delete pdf record", "error", err)
	}

	msg := cause.Error()
	if errors.Is(cause, context.Canceled) {
		msg = "cancelled: " + msg
	}
	failed, err := p.jobs.Transition(cleanup, job.ID, domain.JobFailed, msg, 0)
	if err != nil {
		logger.ErrorContext(ctx, "rollback failed to record job failure", "error", err)
		job.State = domain.JobFailed
		job.Error = msg
		return job
	}
	return failed
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
}
