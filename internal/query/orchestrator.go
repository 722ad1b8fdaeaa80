// Package query answers search requests by combining metadata filtering in a
// record store with similarity ranking in the vector index.
package query

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_embedder.go -package=mocks bibliophage/internal/query QueryEmbedder

import (
	"context"
	"fmt"
	"time"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/metrics"
	"bibliophage/internal/vectorstore"
)

// maxNearestK bounds how far a semantic query widens its neighbour search.
const maxNearestK = 1 << 16

// QueryEmbedder embeds a single search query.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Source is a record store that can filter by metadata. Both
// storage.DocumentStore and storage.PdfStore satisfy it.
type Source[T any] interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]T, int64, error)
	MatchingIDs(ctx context.Context, req domain.SearchRequest) ([]string, error)
	GetMany(ctx context.Context, ids []string) ([]T, error)
}

// Orchestrator runs searches over one record collection.
type Orchestrator[T any] struct {
	source   Source[T]
	kind     domain.Kind
	index    vectorstore.VectorIndex
	embedder QueryEmbedder
	metrics  *metrics.Metrics
}

// NewOrchestrator creates an Orchestrator whose chunks are stored in index
// under kind.
func NewOrchestrator[T any](source Source[T], kind domain.Kind, index vectorstore.VectorIndex, embedder QueryEmbedder, m *metrics.Metrics) *Orchestrator[T] {
	return &Orchestrator[T]{
		source:   source,
		kind:     kind,
		index:    index,
		embedder: embedder,
		metrics:  m,
	}
}

// Search returns one page of records. Without a semantic query the store
// sorts and paginates. With one, the records passing the metadata filter are
// ranked by their best chunk's similarity; records without chunks follow in
// id order. TotalCount is always the exact number of filter matches.
func (o *Orchestrator[T]) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[T], error) {
	if err := req.Validate(); err != nil {
		return domain.SearchResponse[T]{}, err
	}

	start := time.Now()
	mode := "metadata"
	var (
		resp domain.SearchResponse[T]
		err  error
	)
	if req.Semantic() {
		mode = "semantic"
		resp, err = o.semantic(ctx, req)
	} else {
		resp, err = o.metadata(ctx, req)
	}
	if err != nil {
		return domain.SearchResponse[T]{}, err
	}

	o.metrics.SearchObserved(string(o.kind), mode, time.Since(start))
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "search finished",
		"kind", o.kind,
		"mode", mode,
		"total", resp.TotalCount,
		"items", len(resp.Items),
		"took", time.Since(start))
	return resp, nil
}

func (o *Orchestrator[T]) metadata(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[T], error) {
	items, total, err := o.source.Search(ctx, req)
	if err != nil {
		return domain.SearchResponse[T]{}, fmt.Errorf("failed to search %s records: %w", o.kind, err)
	}
	return domain.NewSearchResponse(items, total, req), nil
}

func (o *Orchestrator[T]) semantic(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse[T], error) {
	ids, err := o.source.MatchingIDs(ctx, req)
	if err != nil {
		return domain.SearchResponse[T]{}, fmt.Errorf("failed to filter %s records: %w", o.kind, err)
	}
	total := int64(len(ids))
	offset := req.Offset()
	if offset >= len(ids) {
		return domain.NewSearchResponse[T](nil, total, req), nil
	}
	want := min(offset+req.PageSize, len(ids))

	vector, err := o.embedder.EmbedQuery(ctx, *req.SemanticQuery)
	if err != nil {
		return domain.SearchResponse[T]{}, fmt.Errorf("failed to embed query: %w", err)
	}

	ranked, err := o.rank(ctx, vector, ids, want)
	if err != nil {
		return domain.SearchResponse[T]{}, err
	}
	ranked = appendUnranked(ranked, ids, want)

	page := ranked[offset:want]
	items, err := o.source.GetMany(ctx, page)
	if err != nil {
		return domain.SearchResponse[T]{}, fmt.Errorf("failed to load %s records: %w", o.kind, err)
	}
	return domain.NewSearchResponse(items, total, req), nil
}

// rank returns matching document ids ordered by their best chunk, widening
// the neighbour search until want documents are ranked or the index has no
// more chunks for ids.
func (o *Orchestrator[T]) rank(ctx context.Context, vector []float32, ids []string, want int) ([]string, error) {
	filter := vectorstore.Filter{Kind: o.kind, DocumentIDs: ids}
	for k := want; ; k *= 2 {
		matches, err := o.index.Nearest(ctx, vector, k, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to rank %s records: %w", o.kind, err)
		}
		ranked := bestPerDocument(matches)
		if len(ranked) >= want || len(matches) < k || k >= maxNearestK {
			return ranked, nil
		}
	}
}

// bestPerDocument keeps the first occurrence of each document in best-first
// matches.
func bestPerDocument(matches []vectorstore.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.DocumentID]; ok {
			continue
		}
		seen[m.DocumentID] = struct{}{}
		out = append(out, m.DocumentID)
	}
	return out
}

// appendUnranked fills ranked up to want with ids it does not contain yet,
// keeping the order of ids.
func appendUnranked(ranked, ids []string, want int) []string {
	if len(ranked) >= want {
		return ranked
	}
	seen := make(map[string]struct{}, len(ranked))
	for _, id := range ranked {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if len(ranked) >= want {
			break
		}
		if _, ok := seen[id]; !ok {
			ranked = append(ranked, id)
		}
	}
	return ranked
}
