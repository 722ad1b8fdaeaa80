package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
)

var documentsTable = table{
	name:     "documents",
	kind:     domain.KindDocument,
	columns:  "id, name, content, type, tags, character_count, created_at, updated_at",
	textCols: []string{"name", "content"},
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db, now: time.Now}
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var docType, tags string
	var created, updated int64
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Content, &docType, &tags, &doc.CharacterCount, &created, &updated); err != nil {
		return domain.Document{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return domain.Document{}, err
	}
	doc.Type = domain.DocumentType(docType)
	doc.Tags = decoded
	doc.CreatedAt = fromNanos(created)
	doc.UpdatedAt = fromNanos(updated)
	return doc, nil
}

// Store inserts a new document. An ID is generated when doc.ID is empty.
func (r *DocumentRepo) Store(ctx context.Context, doc domain.Document) (domain.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if doc.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Document{}, fmt.Errorf("failed to generate id: %w", err)
		}
		doc.ID = id.String()
	}
	if doc.Tags == nil {
		doc.Tags = []domain.Tag{}
	}
	now := fromNanos(toNanos(r.now()))
	doc.CreatedAt, doc.UpdatedAt = now, now
	doc.CharacterCount = domain.CountCharacters(doc.Content)

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return domain.Document{}, err
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO documents (id, name, content, type, tags, character_count, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				doc.ID, doc.Name, doc.Content, string(doc.Type), tags, doc.CharacterCount, toNanos(now), toNanos(now),
			); err != nil {
				return err
			}
			return writeTags(ctx, tx, domain.KindDocument, doc.ID, doc.Tags)
		})
	})
	if isDuplicateKey(err) {
		return domain.Document{}, domain.Invalid("id", "document %s already exists", doc.ID)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to store document", "document_id", doc.ID, "error", err)
		return domain.Document{}, fmt.Errorf("failed to store document: %w", err)
	}
	return doc, nil
}

// Get returns a document by id.
func (r *DocumentRepo) Get(ctx context.Context, id string) (domain.Document, error) {
	var doc domain.Document
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		doc, err = scanDocument(r.db.QueryRowContext(ctx, "SELECT "+documentsTable.columns+" FROM documents WHERE id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// GetMany returns the documents that exist among ids, in the order given.
func (r *DocumentRepo) GetMany(ctx context.Context, ids []string) ([]domain.Document, error) {
	return getMany(ctx, r.db, documentsTable, ids, scanDocument, func(d domain.Document) string { return d.ID })
}

// Update applies patch to the stored document.
func (r *DocumentRepo) Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	var updated domain.Document
	err := withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			current, err := scanDocument(tx.QueryRowContext(ctx, "SELECT "+documentsTable.columns+" FROM documents WHERE id = ?", id))
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
			}
			if err != nil {
				return err
			}

			updated = patch.Apply(current)
			tags, err := encodeTags(updated.Tags)
			if err != nil {
				return err
			}

			var updatedAt int64
			if err := tx.QueryRowContext(ctx,
				`UPDATE documents SET name = ?, content = ?, type = ?, tags = ?, character_count = ?, updated_at = `+nextUpdate+`
				 WHERE id = ? RETURNING updated_at`,
				updated.Name, updated.Content, string(updated.Type), tags, updated.CharacterCount, toNanos(r.now()), id,
			).Scan(&updatedAt); err != nil {
				return err
			}
			updated.UpdatedAt = fromNanos(updatedAt)

			if patch.Tags != nil {
				return writeTags(ctx, tx, domain.KindDocument, id, updated.Tags)
			}
			return nil
		})
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Document{}, err
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to update document: %w", err)
	}
	return updated, nil
}

// Delete removes a document. Deleting a missing id affects zero rows.
func (r *DocumentRepo) Delete(ctx context.Context, id string) (int64, error) {
	n, err := deleteRecord(ctx, r.db, documentsTable, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}
	return n, nil
}

// Search returns one page of documents matching req.
func (r *DocumentRepo) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Document, int64, error) {
	return search(ctx, r.db, documentsTable, req, scanDocument)
}

// MatchingIDs returns the ids of every document matching the metadata filters.
func (r *DocumentRepo) MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error) {
	return matchingIDs(ctx, r.db, documentsTable, req)
}
