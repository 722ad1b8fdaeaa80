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

const pdfColumns = "id, name, system, type, page_count, origin_path, file_size, chunk_count, tags, status, created_at, updated_at"

var pdfsTable = table{
	name:      "pdfs",
	kind:      domain.KindPdf,
	columns:   pdfColumns,
	textCols:  []string{"name"},
	hasSystem: true,
	scope:     "status = 'PERSISTED'",
}

// PdfRepo provides methods for PDF record operations.
// It implements the PdfStore interface.
type PdfRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPdfRepo creates a new PdfRepo.
func NewPdfRepo(db *sql.DB) *PdfRepo {
	return &PdfRepo{db: db, now: time.Now}
}

func scanPdf(row rowScanner) (domain.Pdf, error) {
	var pdf domain.Pdf
	var status, tags string
	var created, updated int64
	if err := row.Scan(&pdf.ID, &pdf.Name, &pdf.System, &pdf.Type, &pdf.PageCount, &pdf.OriginPath,
		&pdf.FileSize, &pdf.ChunkCount, &tags, &status, &created, &updated); err != nil {
		return domain.Pdf{}, err
	}
	decoded, err := decodeTags(tags)
	if err != nil {
		return domain.Pdf{}, err
	}
	pdf.Tags = decoded
	pdf.Status = domain.PdfStatus(status)
	pdf.CreatedAt = fromNanos(created)
	pdf.UpdatedAt = fromNanos(updated)
	return pdf, nil
}

// Store inserts a PDF record. Status defaults to INGESTING.
func (r *PdfRepo) Store(ctx context.Context, pdf domain.Pdf) (domain.Pdf, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if pdf.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Pdf{}, fmt.Errorf("failed to generate id: %w", err)
		}
		pdf.ID = id.String()
	}
	if pdf.Status == "" {
		pdf.Status = domain.PdfStatusIngesting
	}
	if pdf.Tags == nil {
		pdf.Tags = []domain.Tag{}
	}
	now := fromNanos(toNanos(r.now()))
	pdf.CreatedAt, pdf.UpdatedAt = now, now

	tags, err := encodeTags(pdf.Tags)
	if err != nil {
		return domain.Pdf{}, err
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pdfs (`+pdfColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				pdf.ID, pdf.Name, pdf.System, pdf.Type, pdf.PageCount, pdf.OriginPath, pdf.FileSize, pdf.ChunkCount,
				tags, string(pdf.Status), toNanos(now), toNanos(now),
			); err != nil {
				return err
			}
			return writeTags(ctx, tx, domain.KindPdf, pdf.ID, pdf.Tags)
		})
	})
	if isDuplicateKey(err) {
		return domain.Pdf{}, domain.Invalid("id", "pdf %s already exists", pdf.ID)
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to store pdf", "pdf_id", pdf.ID, "error", err)
		return domain.Pdf{}, fmt.Errorf("failed to store pdf: %w", err)
	}
	return pdf, nil
}

// Get returns a PDF record of any status.
func (r *PdfRepo) Get(ctx context.Context, id string) (domain.Pdf, error) {
	var pdf domain.Pdf
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		pdf, err = scanPdf(r.db.QueryRowContext(ctx, "SELECT "+pdfColumns+" FROM pdfs WHERE id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Pdf{}, fmt.Errorf("pdf %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Pdf{}, fmt.Errorf("failed to query pdf: %w", err)
	}
	return pdf, nil
}

// GetMany returns the PDF records that exist among ids, in the order given.
func (r *PdfRepo) GetMany(ctx context.Context, ids []string) ([]domain.Pdf, error) {
	return getMany(ctx, r.db, pdfsTable, ids, scanPdf, func(p domain.Pdf) string { return p.ID })
}

// Update applies a metadata patch.
func (r *PdfRepo) Update(ctx context.Context, id string, patch domain.PdfPatch) (domain.Pdf, error) {
	var updated domain.Pdf
	err := withRetry(ctx, func(ctx context.Context) error {
		return inTx(ctx, r.db, func(tx *sql.Tx) error {
			current, err := scanPdf(tx.QueryRowContext(ctx, "SELECT "+pdfColumns+" FROM pdfs WHERE id = ?", id))
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("pdf %s: %w", id, domain.ErrNotFound)
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
				`UPDATE pdfs SET name = ?, system = ?, type = ?, tags = ?, updated_at = `+nextUpdate+`
				 WHERE id = ? RETURNING updated_at`,
				updated.Name, updated.System, updated.Type, tags, toNanos(r.now()), id,
			).Scan(&updatedAt); err != nil {
				return err
			}
			updated.UpdatedAt = fromNanos(updatedAt)

			if patch.Tags != nil {
				return writeTags(ctx, tx, domain.KindPdf, id, updated.Tags)
			}
			return nil
		})
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Pdf{}, err
	}
	if err != nil {
		return domain.Pdf{}, fmt.Errorf("failed to update pdf: %w", err)
	}
	return updated, nil
}

// MarkPersisted stores ingestion results and makes the record visible to search.
func (r *PdfRepo) MarkPersisted(ctx context.Context, id string, chunkCount, pageCount int, fileSize int64) (domain.Pdf, error) {
	var pdf domain.Pdf
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		pdf, err = scanPdf(r.db.QueryRowContext(ctx,
			`UPDATE pdfs SET chunk_count = ?, page_count = ?, file_size = ?, status = ?, updated_at = `+nextUpdate+`
			 WHERE id = ? RETURNING `+pdfColumns,
			chunkCount, pageCount, fileSize, string(domain.PdfStatusPersisted), toNanos(r.now()), id,
		))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Pdf{}, fmt.Errorf("pdf %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Pdf{}, fmt.Errorf("failed to mark pdf persisted: %w", err)
	}
	return pdf, nil
}

// Delete removes a PDF record. Deleting a missing id affects zero rows.
func (r *PdfRepo) Delete(ctx context.Context, id string) (int64, error) {
	n, err := deleteRecord(ctx, r.db, pdfsTable, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pdf: %w", err)
	}
	return n, nil
}

// Search returns one page of PERSISTED PDFs matching req.
func (r *PdfRepo) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Pdf, int64, error) {
	return search(ctx, r.db, pdfsTable, req, scanPdf)
}

// MatchingIDs returns the ids of every PERSISTED PDF matching the metadata filters.
func (r *PdfRepo) MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error) {
	return matchingIDs(ctx, r.db, pdfsTable, req)
}

// ListStale returns INGESTING records created before olderThan.
func (r *PdfRepo) ListStale(ctx context.Context, olderThan time.Time) ([]domain.Pdf, error) {
	return r.list(ctx, "status = ? AND created_at < ?", string(domain.PdfStatusIngesting), toNanos(olderThan))
}

// ListPersisted returns every PERSISTED record.
func (r *PdfRepo) ListPersisted(ctx context.Context) ([]domain.Pdf, error) {
	return r.list(ctx, "status = ?", string(domain.PdfStatusPersisted))
}

func (r *PdfRepo) list(ctx context.Context, where string, args ...any) ([]domain.Pdf, error) {
	var out []domain.Pdf
	err := withRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, "SELECT "+pdfColumns+" FROM pdfs WHERE "+where+" ORDER BY id", args...)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		out = out[:0]
		for rows.Next() {
			pdf, err := scanPdf(rows)
			if err != nil {
				return err
			}
			out = append(out, pdf)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pdfs: %w", err)
	}
	return out, nil
}
