package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_writer.go -package=mocks bibliophage/internal/service ChunkWriter
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks bibliophage/internal/service DocumentService

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/storage"
	"bibliophage/internal/vectorstore"
)

const compensationTimeout = 30 * time.Second

// ChunkWriter produces and stores the chunks of a record.
// This interface is defined from the service layer's perspective (consumer-first).
type ChunkWriter interface {
	// Prepare chunks and embeds text without writing anything.
	Prepare(ctx context.Context, kind domain.Kind, documentID, text string, cfg *domain.ChunkingConfig) ([]domain.Chunk, error)
	// WriteChunks replaces the stored chunk set of documentID.
	WriteChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
}

// Searcher runs filtered, paginated searches over one record collection.
type Searcher[T any] interface {
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[T], error)
}

// DocumentService manages notes and keeps their chunks in the vector index.
type DocumentService interface {
	// Store creates a note. Its chunks are indexed before Store returns.
	Store(ctx context.Context, doc domain.Document) (domain.Document, error)
	Get(ctx context.Context, id string) (domain.Document, error)
	// Update applies a partial update. Changed content is re-indexed.
	Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error)
	// Delete removes a note and its chunks, reporting how many records were removed.
	Delete(ctx context.Context, id string) (int64, error)
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[domain.Document], error)
}

type documentService struct {
	store    storage.DocumentStore
	chunks   ChunkWriter
	index    vectorstore.VectorIndex
	searcher Searcher[domain.Document]
	locks    *keyedMutex
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(store storage.DocumentStore, chunks ChunkWriter, index vectorstore.VectorIndex, searcher Searcher[domain.Document]) DocumentService {
	return &documentService{
		store:    store,
		chunks:   chunks,
		index:    index,
		searcher: searcher,
		locks:    newKeyedMutex(),
	}
}

func validateDocument(doc domain.Document) (domain.Document, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return doc, domain.Invalid("name", "cannot be empty")
	}
	if !doc.Type.Valid() {
		return doc, domain.Invalid("type", "unknown document type %q", doc.Type)
	}
	tags, err := domain.NormalizeTags(doc.Tags)
	if err != nil {
		return doc, err
	}
	doc.Tags = tags
	return doc, nil
}

func (s *documentService) Store(ctx context.Context, doc domain.Document) (domain.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	doc, err := validateDocument(doc)
	if err != nil {
		logger.WarnContext(ctx, "rejected document", "error", err)
		return domain.Document{}, err
	}
	if doc.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Document{}, fmt.Errorf("failed to generate id: %w", err)
		}
		doc.ID = id.String()
	}

	unlock := s.locks.Lock(doc.ID)
	defer unlock()

	chunks, err := s.chunks.Prepare(ctx, domain.KindDocument, doc.ID, doc.Content, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to prepare document chunks", "error", err)
		return domain.Document{}, domain.WrapError(err, "failed to index document")
	}

	stored, err := s.store.Store(ctx, doc)
	if err != nil {
		logger.ErrorContext(ctx, "failed to store document", "error", err)
		return domain.Document{}, domain.WrapError(err, "failed to store document")
	}

	if err := s.chunks.WriteChunks(ctx, stored.ID, chunks); err != nil {
		logger.ErrorContext(ctx, "failed to write document chunks, removing record", "document_id", stored.ID, "error", err)
		cleanup, cancel := detached(ctx)
		defer cancel()
		if _, derr := s.index.DeleteByDocument(cleanup, stored.ID); derr != nil {
			logger.ErrorContext(ctx, "failed to remove partial chunks", "document_id", stored.ID, "error", derr)
		}
		if _, derr := s.store.Delete(cleanup, stored.ID); derr != nil {
			logger.ErrorContext(ctx, "failed to remove document after indexing failed", "document_id", stored.ID, "error", derr)
		}
		return domain.Document{}, domain.WrapError(err, "failed to index document")
	}

	logger.InfoContext(ctx, "document stored", "document_id", stored.ID, "chunks", len(chunks))
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, id string) (domain.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Document{}, recordError("Document", id, err)
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if patch.Empty() {
		return domain.Document{}, domain.Invalid("document", "update changes no fields")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Document{}, domain.Invalid("name", "cannot be empty")
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return domain.Document{}, domain.Invalid("type", "unknown document type %q", *patch.Type)
	}
	if patch.Tags != nil {
		tags, err := domain.NormalizeTags(*patch.Tags)
		if err != nil {
			return domain.Document{}, err
		}
		patch.Tags = &tags
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	prev, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Document{}, recordError("Document", id, err)
	}

	var chunks []domain.Chunk
	reindex := patch.Content != nil && *patch.Content != prev.Content
	if reindex {
		chunks, err = s.chunks.Prepare(ctx, domain.KindDocument, id, *patch.Content, nil)
		if err != nil {
			logger.ErrorContext(ctx, "failed to prepare document chunks", "document_id", id, "error", err)
			return domain.Document{}, domain.WrapError(err, "failed to index document")
		}
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return domain.Document{}, recordError("Document", id, err)
	}

	if reindex {
		if err := s.chunks.WriteChunks(ctx, id, chunks); err != nil {
			logger.ErrorContext(ctx, "failed to write document chunks, restoring record", "document_id", id, "error", err)
			cleanup, cancel := detached(ctx)
			defer cancel()
			if _, rerr := s.store.Update(cleanup, id, domain.RestorePatch(prev)); rerr != nil {
				logger.ErrorContext(ctx, "failed to restore document", "document_id", id, "error", rerr)
			}
			return domain.Document{}, domain.WrapError(err, "failed to index document")
		}
	}

	logger.InfoContext(ctx, "document updated", "document_id", id, "reindexed", reindex)
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, id string) (int64, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	removed, err := s.index.DeleteByDocument(ctx, id)
	if err != nil {
		return 0, recordError("Document", id, fmt.Errorf("failed to delete chunks: %w", err))
	}
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return 0, recordError("Document", id, err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document deleted",
		"document_id", id, "affected", n, "chunks", removed)
	return n, nil
}

// Search ignores SystemFilter; notes carry no system.
func (s *documentService) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[domain.Document], error) {
	req.SystemFilter = nil
	return s.searcher.Search(ctx, req)
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}
