package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/retry"
)

const (
	payloadDocumentID = "document_id"
	payloadKind       = "kind"
	payloadSequence   = "sequence_index"
	payloadText       = "text"
	payloadCharStart  = "char_start"
	payloadCharEnd    = "char_end"

	scrollPageSize = 256
	// tieMargin bounds the extra points fetched so equal scores at the k-th
	// position are ordered by chunk id rather than by Qdrant.
	tieMargin = 64
)

// pointsClient is the subset of *qdrant.Client the store uses.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	Close() error
}

// QdrantStore implements VectorIndex using Qdrant.
//
// Qdrant has no multi-operation transaction. ReplaceDocument upserts first,
// overwriting points with the same deterministic chunk ids, then deletes the
// document's points past the new chunk count, so a failed write leaves the
// previous chunks searchable.
//
// Nearest over-fetches by tieMargin points; ties wider than that at the k-th
// position are still cut in Qdrant's order.
type QdrantStore struct {
	client     pointsClient
	collection string
	dimensions int
	policy     retry.Policy
}

// grpcTarget derives the gRPC host and port from the HTTP URL.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port is the HTTP port + 1, 6334 when no port is given.
func grpcTarget(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid Qdrant URL: %w", domain.ErrInvalidConfiguration, err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// NewQdrantStore creates a Qdrant-backed index for one collection.
func NewQdrantStore(urlStr, collection string, dimensions int) (*QdrantStore, error) {
	host, port, err := grpcTarget(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
		dimensions: dimensions,
		policy:     retry.DefaultPolicy(),
	}, nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Ensure creates the collection and its payload indexes if missing, and
// validates the vector size of an existing collection.
func (s *QdrantStore) Ensure(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	var exists bool
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.client.CollectionExists(ctx, s.collection)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", s.dimensions)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		for _, field := range []string{payloadDocumentID, payloadKind} {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: s.collection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
				Wait:           qdrant.PtrOf(true),
			})
			if err != nil {
				return fmt.Errorf("failed to index payload field %s: %w", field, err)
			}
		}
		logger.InfoContext(ctx, "collection created", "collection", s.collection, "vector_size", s.dimensions)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	actualSize := vectorSize(info)
	if actualSize == 0 {
		return fmt.Errorf("%w: could not determine vector size of collection %s", domain.ErrInvalidConfiguration, s.collection)
	}
	if actualSize != s.dimensions {
		return fmt.Errorf("%w: collection vector size mismatch: expected %d, got %d", domain.ErrInvalidConfiguration, s.dimensions, actualSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", s.collection, "vector_size", s.dimensions)
	return nil
}

func vectorSize(info *qdrant.CollectionInfo) int {
	if info == nil || info.Config == nil || info.Config.Params == nil {
		return 0
	}
	vectorsConfig := info.Config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return 0
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return 0
	}
	return int(params.Size)
}

// Upsert inserts or replaces points by chunk ID.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil
	}
	if err := validateChunks(chunks, "", s.dimensions); err != nil {
		return err
	}

	points := toPoints(chunks)
	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(chunks), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", s.collection, "count", len(chunks))
	return nil
}

// ReplaceDocument removes the points of documentID and writes chunks.
func (s *QdrantStore) ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if err := validateChunks(chunks, documentID, s.dimensions); err != nil {
		return err
	}
	if err := s.Upsert(ctx, chunks); err != nil {
		return err
	}
	return s.deleteTail(ctx, documentID, len(chunks))
}

// deleteTail removes the points of documentID whose sequence index is at
// least from.
func (s *QdrantStore) deleteTail(ctx context.Context, documentID string, from int) error {
	filter := documentFilter(documentID)
	filter.Must = append(filter.Must, qdrant.NewRange(payloadSequence, &qdrant.Range{
		Gte: qdrant.PtrOf(float64(from)),
	}))

	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelectorFilter(filter),
		})
		return err
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete stale points",
			"collection", s.collection, "document_id", documentID, "from", from, "error", err)
		return fmt.Errorf("failed to delete stale points: %w", err)
	}
	return nil
}

// DeleteByDocument removes every point of documentID with one filtered delete.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	logger := contextutil.LoggerFromContext(ctx)

	n, err := s.CountByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	err = s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
		})
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", s.collection, "document_id", documentID, "error", err)
		return 0, fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", s.collection, "document_id", documentID, "count", n)
	return n, nil
}

// Nearest runs a filtered similarity query.
func (s *QdrantStore) Nearest(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateQuery(query, k, s.dimensions); err != nil {
		return nil, err
	}
	if filter.DocumentIDs != nil && len(filter.DocumentIDs) == 0 {
		return []Match{}, nil
	}

	limit := uint64(k + min(k, tieMargin))
	queryReq := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayloadInclude(payloadDocumentID, payloadSequence),
		Filter:         buildFilter(filter),
	}

	var scored []*qdrant.ScoredPoint
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		scored, err = s.client.Query(ctx, queryReq)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	matches := make([]Match, 0, len(scored))
	for _, point := range scored {
		meta := convertPayloadToMap(point.GetPayload())
		docID, _ := meta[payloadDocumentID].(string)
		seq, _ := meta[payloadSequence].(int64)
		matches = append(matches, Match{
			ChunkID:       point.GetId().GetUuid(),
			DocumentID:    docID,
			SequenceIndex: int(seq),
			Score:         point.GetScore(),
		})
	}
	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}

	logger.DebugContext(ctx, "search completed", "collection", s.collection, "k", k, "results", len(matches))
	return matches, nil
}

// CountByDocument returns the exact number of points owned by documentID.
func (s *QdrantStore) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	var n uint64
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: s.collection,
			Filter:         documentFilter(documentID),
			Exact:          qdrant.PtrOf(true),
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points of %s: %w", documentID, err)
	}
	return int64(n), nil
}

// DocumentIDs scrolls the collection and collects distinct owners of kind.
func (s *QdrantStore) DocumentIDs(ctx context.Context, kind domain.Kind) ([]string, error) {
	var qf *qdrant.Filter
	if kind != "" {
		qf = &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch(payloadKind, string(kind))}}
	}

	seen := make(map[string]struct{})
	var ids []string
	var offset *qdrant.PointId
	for {
		req := &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         qf,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(payloadDocumentID),
		}

		var page []*qdrant.RetrievedPoint
		err := s.do(ctx, func(ctx context.Context) error {
			var err error
			page, err = s.client.Scroll(ctx, req)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}

		// The offset point is returned again as the first element of the next page.
		if offset != nil && len(page) > 0 && page[0].GetId().GetUuid() == offset.GetUuid() {
			page = page[1:]
		}
		if len(page) == 0 {
			break
		}

		for _, point := range page {
			docID, _ := convertValue(point.GetPayload()[payloadDocumentID]).(string)
			if docID == "" {
				continue
			}
			if _, ok := seen[docID]; !ok {
				seen[docID] = struct{}{}
				ids = append(ids, docID)
			}
		}
		offset = page[len(page)-1].GetId()
	}

	sort.Strings(ids)
	return ids, nil
}

func toPoints(chunks []domain.Chunk) []*qdrant.PointStruct {
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(c.ChunkID),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadDocumentID: c.DocumentID,
				payloadKind:       string(c.Kind),
				payloadSequence:   c.SequenceIndex,
				payloadText:       c.Text,
				payloadCharStart:  c.CharStart,
				payloadCharEnd:    c.CharEnd,
			}),
		})
	}
	return points
}

func documentFilter(documentID string) *qdrant.Filter {
	return &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatch(payloadDocumentID, documentID)}}
}

func buildFilter(f Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Kind != "" {
		must = append(must, qdrant.NewMatch(payloadKind, string(f.Kind)))
	}
	if len(f.DocumentIDs) > 0 {
		must = append(must, qdrant.NewMatchKeywords(payloadDocumentID, f.DocumentIDs...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func (s *QdrantStore) do(ctx context.Context, op func(ctx context.Context) error) error {
	err := retry.Do(ctx, s.policy, isTransientGRPC, nil, op)
	if errors.Is(err, retry.ErrExhausted) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func isTransientGRPC(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
