// Package mongostore implements the document and PDF stores on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/retry"
)

const (
	documentsCollection = "documents"
	pdfsCollection      = "pdfs"

	// maxInIDs bounds the size of one $in list.
	maxInIDs = 500
)

// Connect opens a client, pings the server and creates the indexes the
// stores rely on.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to connect to MongoDB: %w", domain.ErrStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("%w: failed to ping MongoDB: %w", domain.ErrStoreUnavailable, err)
	}

	db := client.Database(dbName)
	if err := CreateIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return client, db, nil
}

// CreateIndexes is idempotent.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	documentIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "tags.name", Value: 1}, {Key: "tags.values", Value: 1}}},
	}
	if _, err := db.Collection(documentsCollection).Indexes().CreateMany(ctx, documentIndexes); err != nil {
		return err
	}

	pdfIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "system", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "tags.name", Value: 1}, {Key: "tags.values", Value: 1}}},
	}
	_, err := db.Collection(pdfsCollection).Indexes().CreateMany(ctx, pdfIndexes)
	return err
}

// collection describes how one record collection maps onto the shared
// search filter.
type collection struct {
	coll       *mongo.Collection
	textFields []string
	hasSystem  bool
	// scope is merged into every Search and MatchingIDs filter.
	scope bson.E
}

// filter builds the metadata filter for req. Text is matched as a quoted,
// case-insensitive regular expression, so the query is a literal substring.
func (c collection) filter(req domain.SearchRequest) bson.D {
	f := bson.D{}
	if c.scope.Key != "" {
		f = append(f, c.scope)
	}
	if req.TextQuery != nil && *req.TextQuery != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(*req.TextQuery), Options: "i"}
		or := bson.A{}
		for _, field := range c.textFields {
			or = append(or, bson.D{{Key: field, Value: re}})
		}
		f = append(f, bson.E{Key: "$or", Value: or})
	}
	if req.TypeFilter != nil {
		f = append(f, bson.E{Key: "type", Value: *req.TypeFilter})
	}
	if c.hasSystem && req.SystemFilter != nil {
		f = append(f, bson.E{Key: "system", Value: *req.SystemFilter})
	}
	if len(req.TagFilters) > 0 {
		and := bson.A{}
		for _, tf := range req.TagFilters {
			and = append(and, bson.D{{Key: "tags", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
				{Key: "name", Value: tf.Name},
				{Key: "values", Value: tf.Value},
			}}}}})
		}
		f = append(f, bson.E{Key: "$and", Value: and})
	}
	return f
}

func sortSpec(order domain.SortOrder) bson.D {
	switch order.Effective() {
	case domain.SortNameAsc:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortNameDesc:
		return bson.D{{Key: "name", Value: -1}, {Key: "_id", Value: 1}}
	case domain.SortCreatedDesc:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	}
}

// search counts and pages with the same filter. The two reads are not
// isolated from concurrent writers.
func search[R any, T any](ctx context.Context, c collection, req domain.SearchRequest, convert func(R) T) ([]T, int64, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}
	f := c.filter(req)

	var items []T
	var total int64
	err := withRetry(ctx, func(ctx context.Context) error {
		var err error
		total, err = c.coll.CountDocuments(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", c.coll.Name(), err)
		}

		opts := options.Find().
			SetSort(sortSpec(req.SortOrder)).
			SetSkip(int64(req.Offset())).
			SetLimit(int64(req.PageSize))
		cursor, err := c.coll.Find(ctx, f, opts)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", c.coll.Name(), err)
		}
		var records []R
		if err := cursor.All(ctx, &records); err != nil {
			return fmt.Errorf("failed to decode %s: %w", c.coll.Name(), err)
		}
		items = make([]T, 0, len(records))
		for _, r := range records {
			items = append(items, convert(r))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func matchingIDs(ctx context.Context, c collection, req domain.SearchRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ids := []string{}
	err := withRetry(ctx, func(ctx context.Context) error {
		opts := options.Find().
			SetProjection(bson.D{{Key: "_id", Value: 1}}).
			SetSort(bson.D{{Key: "_id", Value: 1}})
		cursor, err := c.coll.Find(ctx, c.filter(req), opts)
		if err != nil {
			return err
		}
		var rows []struct {
			ID string `bson:"_id"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return err
		}
		ids = ids[:0]
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matching ids: %w", err)
	}
	return ids, nil
}

// getMany loads records by id and returns them in the order of ids.
func getMany[R any, T any](ctx context.Context, c collection, ids []string, convert func(R) T, id func(T) string) ([]T, error) {
	byID := make(map[string]T, len(ids))
	for start := 0; start < len(ids); start += maxInIDs {
		batch := ids[start:min(start+maxInIDs, len(ids))]
		err := withRetry(ctx, func(ctx context.Context) error {
			cursor, err := c.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: batch}}}})
			if err != nil {
				return err
			}
			var records []R
			if err := cursor.All(ctx, &records); err != nil {
				return err
			}
			for _, r := range records {
				item := convert(r)
				byID[id(item)] = item
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", c.coll.Name(), err)
		}
	}

	out := make([]T, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func deleteByID(ctx context.Context, c collection, id string) (int64, error) {
	var n int64
	err := withRetry(ctx, func(ctx context.Context) error {
		res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return err
		}
		n = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s %s: %w", c.coll.Name(), id, err)
	}
	return n, nil
}

// updateStage builds a pipeline update that sets fields and advances
// updated_at to max(now, previous + 1ms). Values are wrapped in $literal so
// user strings starting with '$' are not read as field paths.
func updateStage(now time.Time, fields bson.D) mongo.Pipeline {
	set := bson.D{}
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Key, Value: bson.D{{Key: "$literal", Value: f.Value}}})
	}
	set = append(set, bson.E{Key: "updated_at", Value: bson.D{{Key: "$max", Value: bson.A{
		now,
		bson.D{{Key: "$add", Value: bson.A{"$updated_at", 1}}},
	}}}})
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// findAndUpdate applies the pipeline to one record and decodes the result.
func findAndUpdate[R any](ctx context.Context, c collection, id string, pipeline mongo.Pipeline) (R, error) {
	var out R
	err := withRetry(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return c.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, pipeline, opts).Decode(&out)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, fmt.Errorf("%s %s: %w", c.coll.Name(), id, domain.ErrNotFound)
	}
	return out, err
}

func insert(ctx context.Context, c collection, id string, record any) error {
	err := withRetry(ctx, func(ctx context.Context) error {
		_, err := c.coll.InsertOne(ctx, record)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.Invalid("id", "%s already exists", id)
	}
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

// list returns every record matching f, ordered by id.
func list[R any, T any](ctx context.Context, c collection, f bson.D, convert func(R) T) ([]T, error) {
	var items []T
	err := withRetry(ctx, func(ctx context.Context) error {
		cursor, err := c.coll.Find(ctx, f, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return err
		}
		var records []R
		if err := cursor.All(ctx, &records); err != nil {
			return err
		}
		items = make([]T, 0, len(records))
		for _, r := range records {
			items = append(items, convert(r))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.coll.Name(), err)
	}
	return items, nil
}

// truncate drops precision below what BSON dates keep.
func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func isTransient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// withRetry retries connectivity failures and reports exhaustion as
// domain.ErrStoreUnavailable.
func withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := retry.Do(ctx, retry.DefaultPolicy(), isTransient, func(err error, wait time.Duration) {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "mongo operation failed, retrying",
			"error", err, "wait", wait)
	}, op)
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}
