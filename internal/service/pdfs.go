package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_pdf_service.go -package=mocks bibliophage/internal/service PdfService

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/indexer"
	"bibliophage/internal/storage"
	"bibliophage/internal/vectorstore"
)

// JobRunner executes ingestion jobs in the background.
type JobRunner interface {
	Submit(ctx context.Context, req indexer.LoadRequest) (*indexer.Handle, error)
	CancelJob(jobID string) bool
}

// LoadResult is the outcome of a Load call. For an asynchronous load, Pdf
// holds the INGESTING record and Job its RECEIVED ledger entry.
type LoadResult struct {
	Pdf   domain.Pdf
	Job   domain.IngestJob
	Stats indexer.ChunkStats
}

// PdfService ingests rulebooks and manages their records.
type PdfService interface {
	// Load ingests a file. With async set it returns once the job is queued.
	Load(ctx context.Context, req indexer.LoadRequest, async bool) (LoadResult, error)
	// Get returns a PERSISTED record.
	Get(ctx context.Context, id string) (domain.Pdf, error)
	// Update patches metadata of a PERSISTED record.
	Update(ctx context.Context, id string, patch domain.PdfPatch) (domain.Pdf, error)
	// Delete removes a PERSISTED record and its chunks.
	Delete(ctx context.Context, id string) (int64, error)
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[domain.Pdf], error)
	GetJob(ctx context.Context, id string) (domain.IngestJob, error)
	// CancelJob stops a queued or running job. The job rolls back on its own.
	CancelJob(ctx context.Context, id string) (domain.IngestJob, error)
}

type pdfService struct {
	store    storage.PdfStore
	jobs     storage.JobStore
	index    vectorstore.VectorIndex
	runner   JobRunner
	searcher Searcher[domain.Pdf]
	locks    *keyedMutex
}

// NewPdfService creates a new PdfService.
func NewPdfService(store storage.PdfStore, jobs storage.JobStore, index vectorstore.VectorIndex, runner JobRunner, searcher Searcher[domain.Pdf]) PdfService {
	return &pdfService{
		store:    store,
		jobs:     jobs,
		index:    index,
		runner:   runner,
		searcher: searcher,
		locks:    newKeyedMutex(),
	}
}

func (s *pdfService) Load(ctx context.Context, req indexer.LoadRequest, async bool) (LoadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Pdf.Name) == "" && req.Pdf.OriginPath != "" {
		req.Pdf.Name = strings.TrimSuffix(path.Base(req.Pdf.OriginPath), path.Ext(req.Pdf.OriginPath))
	}
	tags, err := domain.NormalizeTags(req.Pdf.Tags)
	if err != nil {
		return LoadResult{}, err
	}
	req.Pdf.Tags = tags

	h, err := s.runner.Submit(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "failed to submit ingestion job", "name", req.Pdf.Name, "error", err)
		return LoadResult{}, domain.WrapError(err, "failed to submit ingestion job")
	}
	if async {
		logger.InfoContext(ctx, "ingestion job queued", "job_id", h.Job.ID, "pdf_id", h.Pdf.ID)
		return LoadResult{Pdf: h.Pdf, Job: h.Job}, nil
	}

	out, err := h.Wait(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// The caller went away: stop the job and wait for its rollback.
		h.Cancel()
		<-h.Done()
		return LoadResult{}, err
	}
	if err != nil {
		return LoadResult{Pdf: out.Pdf, Job: out.Job}, domain.WrapError(err, fmt.Sprintf("failed to load PDF %s", req.Pdf.Name))
	}
	return LoadResult{Pdf: out.Pdf, Job: out.Job, Stats: out.Stats}, nil
}

func (s *pdfService) persisted(ctx context.Context, id string) (domain.Pdf, error) {
	pdf, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Pdf{}, recordError("PDF", id, err)
	}
	if pdf.Status != domain.PdfStatusPersisted {
		return domain.Pdf{}, notFound("PDF", id)
	}
	return pdf, nil
}

func (s *pdfService) Get(ctx context.Context, id string) (domain.Pdf, error) {
	return s.persisted(ctx, id)
}

func (s *pdfService) Update(ctx context.Context, id string, patch domain.PdfPatch) (domain.Pdf, error) {
	if patch.Empty() {
		return domain.Pdf{}, domain.Invalid("pdf", "update changes no fields")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Pdf{}, domain.Invalid("name", "cannot be empty")
	}
	if patch.Tags != nil {
		tags, err := domain.NormalizeTags(*patch.Tags)
		if err != nil {
			return domain.Pdf{}, err
		}
		patch.Tags = &tags
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.persisted(ctx, id); err != nil {
		return domain.Pdf{}, err
	}
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return domain.Pdf{}, recordError("PDF", id, err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "pdf updated", "pdf_id", id)
	return updated, nil
}

// Delete treats records still INGESTING as absent; their job owns them.
func (s *pdfService) Delete(ctx context.Context, id string) (int64, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.persisted(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	removed, err := s.index.DeleteByDocument(ctx, id)
	if err != nil {
		return 0, recordError("PDF", id, fmt.Errorf("failed to delete chunks: %w", err))
	}
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, recordError("PDF", id, err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "pdf deleted", "pdf_id", id, "affected", n, "chunks", removed)
	return n, nil
}

func (s *pdfService) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[domain.Pdf], error) {
	return s.searcher.Search(ctx, req)
}

func (s *pdfService) GetJob(ctx context.Context, id string) (domain.IngestJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return domain.IngestJob{}, recordError("Job", id, err)
	}
	return job, nil
}

func (s *pdfService) CancelJob(ctx context.Context, id string) (domain.IngestJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return domain.IngestJob{}, err
	}
	if job.State.Terminal() {
		return job, domain.Invalid("id", "job %s is already %s", id, job.State)
	}
	if !s.runner.CancelJob(id) {
		return job, recordError("Job", id, ErrJobNotRunning)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "job cancellation requested", "job_id", id)
	return job, nil
}
