package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stores.go -package=mocks bibliophage/internal/storage DocumentStore,PdfStore,JobStore

import (
	"context"
	"time"

	"bibliophage/internal/domain"
)

// DocumentStore persists free-form notes.
type DocumentStore interface {
	// Store assigns an ID when doc.ID is empty and sets both timestamps.
	Store(ctx context.Context, doc domain.Document) (domain.Document, error)
	// Get returns domain.ErrNotFound for a missing id.
	Get(ctx context.Context, id string) (domain.Document, error)
	// GetMany returns the records that exist, in the order of ids.
	GetMany(ctx context.Context, ids []string) ([]domain.Document, error)
	// Update applies patch and advances updated_at. Missing id is domain.ErrNotFound.
	Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error)
	// Delete removes the record and reports how many rows were affected.
	Delete(ctx context.Context, id string) (int64, error)
	// Search returns one page of matches and the total match count.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.Document, int64, error)
	// MatchingIDs returns every id passing the metadata filters, ordered by id.
	MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error)
}

// PdfStore persists PDF parent records. Search and MatchingIDs only see
// PERSISTED records; Get and GetMany see every status.
type PdfStore interface {
	Store(ctx context.Context, pdf domain.Pdf) (domain.Pdf, error)
	Get(ctx context.Context, id string) (domain.Pdf, error)
	GetMany(ctx context.Context, ids []string) ([]domain.Pdf, error)
	Update(ctx context.Context, id string, patch domain.PdfPatch) (domain.Pdf, error)
	Delete(ctx context.Context, id string) (int64, error)
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.Pdf, int64, error)
	MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error)
	// MarkPersisted records ingestion results and flips the status to PERSISTED.
	MarkPersisted(ctx context.Context, id string, chunkCount, pageCount int, fileSize int64) (domain.Pdf, error)
	// ListStale returns INGESTING records created before olderThan.
	ListStale(ctx context.Context, olderThan time.Time) ([]domain.Pdf, error)
	// ListPersisted returns every PERSISTED record ordered by id.
	ListPersisted(ctx context.Context) ([]domain.Pdf, error)
}

// JobStore is the ingestion job ledger.
type JobStore interface {
	Create(ctx context.Context, job domain.IngestJob) (domain.IngestJob, error)
	Get(ctx context.Context, id string) (domain.IngestJob, error)
	// Transition moves a job to state, rejecting illegal transitions with domain.ErrInconsistent.
	Transition(ctx context.Context, id string, state domain.JobState, errMsg string, chunkCount int) (domain.IngestJob, error)
	// FailActiveForPdf marks every non-terminal job of pdfID as FAILED.
	FailActiveForPdf(ctx context.Context, pdfID, errMsg string) (int64, error)
}
