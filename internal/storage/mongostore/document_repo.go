package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/storage"
)

var _ storage.DocumentStore = (*DocumentRepo)(nil)

type documentRecord struct {
	ID             string       `bson:"_id"`
	Name           string       `bson:"name"`
	Content        string       `bson:"content"`
	Type           string       `bson:"type"`
	Tags           []domain.Tag `bson:"tags"`
	CharacterCount int          `bson:"character_count"`
	CreatedAt      time.Time    `bson:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at"`
}

func (r documentRecord) toDomain() domain.Document {
	tags := r.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return domain.Document{
		ID:             r.ID,
		Name:           r.Name,
		Content:        r.Content,
		Type:           domain.DocumentType(r.Type),
		Tags:           tags,
		CharacterCount: r.CharacterCount,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

// DocumentRepo stores notes in the documents collection.
type DocumentRepo struct {
	c   collection
	now func() time.Time
}

// NewDocumentRepo creates a DocumentRepo on db.
func NewDocumentRepo(db *mongo.Database) *DocumentRepo {
	return &DocumentRepo{
		c: collection{
			coll:       db.Collection(documentsCollection),
			textFields: []string{"name", "content"},
		},
		now: time.Now,
	}
}

// Store inserts a new document. An ID is generated when doc.ID is empty.
func (r *DocumentRepo) Store(ctx context.Context, doc domain.Document) (domain.Document, error) {
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
	now := truncate(r.now())
	doc.CreatedAt, doc.UpdatedAt = now, now
	doc.CharacterCount = domain.CountCharacters(doc.Content)

	rec := documentRecord{
		ID:             doc.ID,
		Name:           doc.Name,
		Content:        doc.Content,
		Type:           string(doc.Type),
		Tags:           doc.Tags,
		CharacterCount: doc.CharacterCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := insert(ctx, r.c, doc.ID, rec); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to store document", "document_id", doc.ID, "error", err)
		return domain.Document{}, err
	}
	return doc, nil
}

// Get returns a document by id.
func (r *DocumentRepo) Get(ctx context.Context, id string) (domain.Document, error) {
	var rec documentRecord
	err := withRetry(ctx, func(ctx context.Context) error {
		return r.c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to query document: %w", err)
	}
	return rec.toDomain(), nil
}

// GetMany returns the documents that exist among ids, in the order given.
func (r *DocumentRepo) GetMany(ctx context.Context, ids []string) ([]domain.Document, error) {
	return getMany(ctx, r.c, ids, documentRecord.toDomain, func(d domain.Document) string { return d.ID })
}

// Update applies patch in one server-side operation.
func (r *DocumentRepo) Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	rec, err := findAndUpdate[documentRecord](ctx, r.c, id, updateStage(truncate(r.now()), documentPatchFields(patch)))
	if err != nil {
		return domain.Document{}, err
	}
	return rec.toDomain(), nil
}

func documentPatchFields(patch domain.DocumentPatch) bson.D {
	fields := bson.D{}
	if patch.Name != nil {
		fields = append(fields, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Content != nil {
		fields = append(fields,
			bson.E{Key: "content", Value: *patch.Content},
			bson.E{Key: "character_count", Value: domain.CountCharacters(*patch.Content)})
	}
	if patch.Type != nil {
		fields = append(fields, bson.E{Key: "type", Value: string(*patch.Type)})
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []domain.Tag{}
		}
		fields = append(fields, bson.E{Key: "tags", Value: tags})
	}
	return fields
}

// Delete removes a document. Deleting a missing id is not an error.
func (r *DocumentRepo) Delete(ctx context.Context, id string) (int64, error) {
	return deleteByID(ctx, r.c, id)
}

// Search returns one page of documents and the total match count.
func (r *DocumentRepo) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Document, int64, error) {
	return search(ctx, r.c, req, documentRecord.toDomain)
}

// MatchingIDs returns the ids of every document passing the filters.
func (r *DocumentRepo) MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error) {
	return matchingIDs(ctx, r.c, req)
}
