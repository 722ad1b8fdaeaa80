package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/metrics"
	"bibliophage/internal/storage"
	"bibliophage/internal/vectorstore"
)

// Report summarizes one reconciliation sweep.
type Report struct {
	// StalePdfs lists INGESTING records that were abandoned and removed.
	StalePdfs []string `json:"stale_pdfs"`
	// OrphanVectors lists parents whose chunks were removed because the record no longer exists.
	OrphanVectors []string `json:"orphan_vectors"`
	// Inconsistent lists PERSISTED records whose chunk_count disagrees with the index.
	Inconsistent []string `json:"inconsistent"`
}

// Reconciler repairs state left behind by interrupted ingestion and
// compensation failures.
type Reconciler struct {
	pdfs       storage.PdfStore
	docs       storage.DocumentStore
	jobs       storage.JobStore
	index      vectorstore.VectorIndex
	staleAfter time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewReconciler creates a Reconciler. PDFs still INGESTING staleAfter after
// creation are treated as abandoned.
func NewReconciler(pdfs storage.PdfStore, docs storage.DocumentStore, jobs storage.JobStore, index vectorstore.VectorIndex, staleAfter time.Duration, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		pdfs:       pdfs,
		docs:       docs,
		jobs:       jobs,
		index:      index,
		staleAfter: staleAfter,
		metrics:    m,
		now:        time.Now,
	}
}

// Sweep runs one pass. It stops at the first store error; work done before
// the error stays done and is reported.
func (r *Reconciler) Sweep(ctx context.Context) (Report, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := Report{StalePdfs: []string{}, OrphanVectors: []string{}, Inconsistent: []string{}}

	if err := r.removeStale(ctx, &report); err != nil {
		return report, err
	}
	if err := r.removeOrphans(ctx, domain.KindPdf, r.pdfIDs, &report); err != nil {
		return report, err
	}
	if err := r.removeOrphans(ctx, domain.KindDocument, r.documentIDs, &report); err != nil {
		return report, err
	}
	if err := r.checkCounts(ctx, &report); err != nil {
		return report, err
	}

	r.metrics.ReconcileRemoved("stale", len(report.StalePdfs))
	r.metrics.ReconcileRemoved("orphan", len(report.OrphanVectors))
	logger.InfoContext(ctx, "reconciliation sweep finished",
		"stale", len(report.StalePdfs),
		"orphans", len(report.OrphanVectors),
		"inconsistent", len(report.Inconsistent))
	return report, nil
}

func (r *Reconciler) removeStale(ctx context.Context, report *Report) error {
	stale, err := r.pdfs.ListStale(ctx, r.now().Add(-r.staleAfter))
	if err != nil {
		return fmt.Errorf("failed to list stale pdfs: %w", err)
	}
	for _, pdf := range stale {
		if _, err := r.index.DeleteByDocument(ctx, pdf.ID); err != nil {
			return fmt.Errorf("failed to delete chunks of stale pdf %s: %w", pdf.ID, err)
		}
		if _, err := r.pdfs.Delete(ctx, pdf.ID); err != nil {
			return fmt.Errorf("failed to delete stale pdf %s: %w", pdf.ID, err)
		}
		if _, err := r.jobs.FailActiveForPdf(ctx, pdf.ID, "abandoned: ingestion did not finish"); err != nil {
			return fmt.Errorf("failed to fail jobs of stale pdf %s: %w", pdf.ID, err)
		}
		report.StalePdfs = append(report.StalePdfs, pdf.ID)
	}
	return nil
}

func (r *Reconciler) pdfIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	records, err := r.pdfs.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(records))
	for _, p := range records {
		out[p.ID] = struct{}{}
	}
	return out, nil
}

func (r *Reconciler) documentIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	records, err := r.docs.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(records))
	for _, d := range records {
		out[d.ID] = struct{}{}
	}
	return out, nil
}

func (r *Reconciler) removeOrphans(ctx context.Context, kind domain.Kind, existing func(context.Context, []string) (map[string]struct{}, error), report *Report) error {
	ids, err := r.index.DocumentIDs(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list indexed %s ids: %w", kind, err)
	}
	if len(ids) == 0 {
		return nil
	}
	found, err := existing(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load %s records: %w", kind, err)
	}
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		if _, err := r.index.DeleteByDocument(ctx, id); err != nil {
			return fmt.Errorf("failed to delete orphan chunks of %s: %w", id, err)
		}
		report.OrphanVectors = append(report.OrphanVectors, id)
	}
	return nil
}

func (r *Reconciler) checkCounts(ctx context.Context, report *Report) error {
	logger := contextutil.LoggerFromContext(ctx)
	pdfs, err := r.pdfs.ListPersisted(ctx)
	if err != nil {
		return fmt.Errorf("failed to list persisted pdfs: %w", err)
	}
	for _, pdf := range pdfs {
		n, err := r.index.CountByDocument(ctx, pdf.ID)
		if err != nil {
			return fmt.Errorf("failed to count chunks of %s: %w", pdf.ID, err)
		}
		if n != int64(pdf.ChunkCount) {
			logger.ErrorContext(ctx, "chunk count disagrees with index",
				"pdf_id", pdf.ID, "chunk_count", pdf.ChunkCount, "indexed", n,
				"error", domain.ErrInconsistent)
			report.Inconsistent = append(report.Inconsistent, pdf.ID)
		}
	}
	return nil
}

// Schedule runs Sweep every interval on a gocron scheduler until the
// returned scheduler is stopped. A run still in progress is never overlapped.
func (r *Reconciler) Schedule(ctx context.Context, interval time.Duration) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).WaitForSchedule().Tag("reconcile").Do(func() {
		runCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		if _, err := r.Sweep(runCtx); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "reconciliation sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	s.StartAsync()
	return s, nil
}
