package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bibliophage/internal/domain"
	"bibliophage/internal/storage"
)

var _ storage.PdfStore = (*PdfRepo)(nil)

type pdfRecord struct {
	ID         string       `bson:"_id"`
	Name       string       `bson:"name"`
	System     string       `bson:"system"`
	Type       string       `bson:"type"`
	PageCount  int          `bson:"page_count"`
	OriginPath string       `bson:"origin_path"`
	FileSize   int64        `bson:"file_size"`
	ChunkCount int          `bson:"chunk_count"`
	Tags       []domain.Tag `bson:"tags"`
	Status     string       `bson:"status"`
	CreatedAt  time.Time    `bson:"created_at"`
	UpdatedAt  time.Time    `bson:"updated_at"`
}

func (r pdfRecord) toDomain() domain.Pdf {
	tags := r.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return domain.Pdf{
		ID:         r.ID,
		Name:       r.Name,
		System:     r.System,
		Type:       r.Type,
		PageCount:  r.PageCount,
		OriginPath: r.OriginPath,
		FileSize:   r.FileSize,
		ChunkCount: r.ChunkCount,
		Tags:       tags,
		Status:     domain.PdfStatus(r.Status),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

// PdfRepo stores PDF parent records in the pdfs collection.
type PdfRepo struct {
	c   collection
	now func() time.Time
}

// NewPdfRepo creates a PdfRepo on db.
func NewPdfRepo(db *mongo.Database) *PdfRepo {
	return &PdfRepo{
		c: collection{
			coll:       db.Collection(pdfsCollection),
			textFields: []string{"name"},
			hasSystem:  true,
			scope:      bson.E{Key: "status", Value: string(domain.PdfStatusPersisted)},
		},
		now: time.Now,
	}
}

// Store inserts a new record, INGESTING unless a status is set.
func (r *PdfRepo) Store(ctx context.Context, pdf domain.Pdf) (domain.Pdf, error) {
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
	now := truncate(r.now())
	pdf.CreatedAt, pdf.UpdatedAt = now, now

	rec := pdfRecord{
		ID:         pdf.ID,
		Name:       pdf.Name,
		System:     pdf.System,
		Type:       pdf.Type,
		PageCount:  pdf.PageCount,
		OriginPath: pdf.OriginPath,
		FileSize:   pdf.FileSize,
		ChunkCount: pdf.ChunkCount,
		Tags:       pdf.Tags,
		Status:     string(pdf.Status),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := insert(ctx, r.c, pdf.ID, rec); err != nil {
		return domain.Pdf{}, err
	}
	return pdf, nil
}

// Get returns a record of any status.
func (r *PdfRepo) Get(ctx context.Context, id string) (domain.Pdf, error) {
	var rec pdfRecord
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Pdf{}, fmt.Errorf("pdf %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Pdf{}, fmt.Errorf("failed to query pdf: %w", err)
	}
	return rec.toDomain(), nil
}

// GetMany returns the records that exist among ids, in the order given.
func (r *PdfRepo) GetMany(ctx context.Context, ids []string) ([]domain.Pdf, error) {
	return getMany(ctx, r.c, ids, pdfRecord.toDomain, func(p domain.Pdf) string { return p.ID })
}

// Update applies a metadata patch.
func (r *PdfRepo) Update(ctx context.Context, id string, patch domain.PdfPatch) (domain.Pdf, error) {
	fields := bson.D{}
	if patch.Name != nil {
		fields = append(fields, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.System != nil {
		fields = append(fields, bson.E{Key: "system", Value: *patch.System})
	}
	if patch.Type != nil {
		fields = append(fields, bson.E{Key: "type", Value: *patch.Type})
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []domain.Tag{}
		}
		fields = append(fields, bson.E{Key: "tags", Value: tags})
	}

	rec, err := findAndUpdate[pdfRecord](ctx, r.c, id, updateStage(truncate(r.now()), fields))
	if err != nil {
		return domain.Pdf{}, err
	}
	return rec.toDomain(), nil
}

// MarkPersisted records ingestion results and flips the status.
func (r *PdfRepo) MarkPersisted(ctx context.Context, id string, chunkCount, pageCount int, fileSize int64) (domain.Pdf, error) {
	rec, err := findAndUpdate[pdfRecord](ctx, r.c, id, updateStage(truncate(r.now()), bson.D{
		{Key: "status", Value: string(domain.PdfStatusPersisted)},
		{Key: "chunk_count", Value: chunkCount},
		{Key: "page_count", Value: pageCount},
		{Key: "file_size", Value: fileSize},
	}))
	if err != nil {
		return domain.Pdf{}, err
	}
	return rec.toDomain(), nil
}

// Delete removes a record of any status.
func (r *PdfRepo) Delete(ctx context.Context, id string) (int64, error) {
	return deleteByID(ctx, r.c, id)
}

// Search returns one page of PERSISTED records and the total match count.
func (r *PdfRepo) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Pdf, int64, error) {
	return search(ctx, r.c, req, pdfRecord.toDomain)
}

// MatchingIDs returns the ids of every PERSISTED record passing the filters.
func (r *PdfRepo) MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error) {
	return matchingIDs(ctx, r.c, req)
}

// ListStale returns INGESTING records created before olderThan.
func (r *PdfRepo) ListStale(ctx context.Context, olderThan time.Time) ([]domain.Pdf, error) {
	return list(ctx, r.c, bson.D{
		{Key: "status", Value: string(domain.PdfStatusIngesting)},
		{Key: "created_at", Value: bson.D{{Key: "$lt", Value: olderThan.UTC()}}},
	}, pdfRecord.toDomain)
}

// ListPersisted returns every PERSISTED record.
func (r *PdfRepo) ListPersisted(ctx context.Context) ([]domain.Pdf, error) {
	return list(ctx, r.c, bson.D{{Key: "status", Value: string(domain.PdfStatusPersisted)}}, pdfRecord.toDomain)
}
