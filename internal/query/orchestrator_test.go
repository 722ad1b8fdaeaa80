package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"go.uber.org/mock/gomock"

	"bibliophage/internal/domain"
	"bibliophage/internal/query/mocks"
	"bibliophage/internal/storage"
	"bibliophage/internal/vectorstore"
	vectormocks "bibliophage/internal/vectorstore/mocks"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	docs     *storage.DocumentRepo
	index    *vectorstore.MemoryStore
	embedder *mocks.MockQueryEmbedder
	orch     *Orchestrator[domain.Document]
	ids      map[string]string
}

// newFixture stores five notes. Three carry chunks ranked A > B > C against
// the query vector {1,0,0}; D and E have none.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "query.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		docs:     storage.NewDocumentRepo(db),
		index:    vectorstore.NewMemoryStore(3),
		embedder: mocks.NewMockQueryEmbedder(gomock.NewController(t)),
		ids:      map[string]string{},
	}
	f.orch = NewOrchestrator[domain.Document](f.docs, domain.KindDocument, f.index, f.embedder, nil)

	ctx := context.Background()
	vectors := map[string][][]float32{
		"A": {{1, 0, 0}, {0.99, 0.1, 0}, {0.98, 0.2, 0}},
		"B": {{0.5, 0.5, 0}},
		"C": {{0, 1, 0}},
	}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		typ := domain.DocumentTypeNote
		if name == "A" {
			typ = domain.DocumentTypeLocation
		}
		doc, err := f.docs.Store(ctx, domain.Document{Name: name, Content: "content " + name, Type: typ})
		if err != nil {
			t.Fatal(err)
		}
		f.ids[name] = doc.ID

		var chunks []domain.Chunk
		for i, v := range vectors[name] {
			chunks = append(chunks, domain.Chunk{
				ChunkID:       doc.ID + "-" + string(rune('0'+i)),
				DocumentID:    doc.ID,
				Kind:          domain.KindDocument,
				SequenceIndex: i,
				Text:          name,
				Vector:        v,
			})
		}
		if err := f.index.ReplaceDocument(ctx, doc.ID, chunks); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) names(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

// unrankedOrder returns D and E ordered by id.
func (f *fixture) unrankedOrder() []string {
	out := []string{"D", "E"}
	sort.Slice(out, func(i, j int) bool { return f.ids[out[i]] < f.ids[out[j]] })
	return out
}

func TestOrchestrator_SemanticPages(t *testing.T) {
	f := newFixture(t)
	f.embedder.EXPECT().EmbedQuery(gomock.Any(), "owlbear").Return([]float32{1, 0, 0}, nil).AnyTimes()
	tail := f.unrankedOrder()

	tests := []struct {
		name string
		page int
		want []string
		more bool
	}{
		{name: "first page", page: 1, want: []string{"A", "B"}, more: true},
		{name: "second page crosses into unranked", page: 2, want: []string{"C", tail[0]}, more: true},
		{name: "last page", page: 3, want: []string{tail[1]}, more: false},
		{name: "past the end", page: 4, want: []string{}, more: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.orch.Search(context.Background(), domain.SearchRequest{
				SemanticQuery: strPtr("owlbear"),
				PageSize:      2,
				PageNumber:    tt.page,
			})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got := f.names(resp.Items); !slices.Equal(got, tt.want) {
				t.Errorf("items = %v, want %v", got, tt.want)
			}
			if resp.TotalCount != 5 {
				t.Errorf("TotalCount = %d, want 5", resp.TotalCount)
			}
			if resp.HasMore != tt.more {
				t.Errorf("HasMore = %v, want %v", resp.HasMore, tt.more)
			}
		})
	}
}

func TestOrchestrator_SemanticRespectsMetadataFilter(t *testing.T) {
	f := newFixture(t)
	f.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).Return([]float32{1, 0, 0}, nil)

	resp, err := f.orch.Search(context.Background(), domain.SearchRequest{
		SemanticQuery: strPtr("owlbear"),
		TypeFilter:    strPtr(string(domain.DocumentTypeNote)),
		PageSize:      10,
		PageNumber:    1,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := append([]string{"B", "C"}, f.unrankedOrder()...)
	if got := f.names(resp.Items); !slices.Equal(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
	if resp.TotalCount != 4 {
		t.Errorf("TotalCount = %d, want 4", resp.TotalCount)
	}
}

func TestOrchestrator_MetadataOnly(t *testing.T) {
	f := newFixture(t)

	resp, err := f.orch.Search(context.Background(), domain.SearchRequest{
		SemanticQuery: strPtr("   "),
		PageSize:      2,
		PageNumber:    1,
		SortOrder:     domain.SortNameDesc,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := f.names(resp.Items); !slices.Equal(got, []string{"E", "D"}) {
		t.Errorf("items = %v, want [E D]", got)
	}
	if resp.TotalCount != 5 || !resp.HasMore {
		t.Errorf("TotalCount = %d, HasMore = %v", resp.TotalCount, resp.HasMore)
	}
}

func TestOrchestrator_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Search(context.Background(), domain.SearchRequest{PageSize: 0, PageNumber: 1})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Search() error = %v, want ErrInvalidArgument", err)
	}
}

func TestOrchestrator_PageOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		req  domain.SearchRequest
	}{
		{name: "semantic", req: domain.SearchRequest{SemanticQuery: strPtr("owlbear"), PageSize: 3, PageNumber: math.MaxInt/3 + 1}},
		{name: "metadata", req: domain.SearchRequest{PageSize: 8, PageNumber: 1<<61 + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, err := f.orch.Search(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("Search() = %v items, error = %v, want ErrInvalidArgument", f.names(resp.Items), err)
			}
		})
	}
}

// Walking every page yields each matching record exactly once, and only the
// last page reports no more results.
func TestOrchestrator_PagesCoverAllRecords(t *testing.T) {
	f := newFixture(t)
	f.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).Return([]float32{1, 0, 0}, nil).AnyTimes()

	for _, semantic := range []bool{false, true} {
		for size := 1; size <= 6; size++ {
			t.Run(fmt.Sprintf("semantic=%v size=%d", semantic, size), func(t *testing.T) {
				seen := map[string]bool{}
				pages := (5 + size - 1) / size
				for page := 1; page <= pages; page++ {
					req := domain.SearchRequest{PageSize: size, PageNumber: page}
					if semantic {
						req.SemanticQuery = strPtr("owlbear")
					}
					resp, err := f.orch.Search(context.Background(), req)
					if err != nil {
						t.Fatalf("page %d: Search() error = %v", page, err)
					}
					if resp.HasMore != (page < pages) {
						t.Errorf("page %d: HasMore = %v", page, resp.HasMore)
					}
					for _, name := range f.names(resp.Items) {
						if seen[name] {
							t.Errorf("page %d: %s seen twice", page, name)
						}
						seen[name] = true
					}
				}
				if len(seen) != 5 {
					t.Errorf("pages covered %d records, want 5", len(seen))
				}
			})
		}
	}
}

func TestOrchestrator_EmbeddingFailure(t *testing.T) {
	f := newFixture(t)
	f.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).Return(nil, domain.ErrEmbeddingUnavailable)

	_, err := f.orch.Search(context.Background(), domain.SearchRequest{
		SemanticQuery: strPtr("owlbear"),
		PageSize:      1,
		PageNumber:    1,
	})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Errorf("Search() error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestOrchestrator_WidensNeighbourSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := vectormocks.NewMockVectorIndex(ctrl)
	embedder := mocks.NewMockQueryEmbedder(ctrl)
	source := &staticSource{ids: []string{"a", "b", "c"}}
	orch := NewOrchestrator[string](source, domain.KindPdf, index, embedder, nil)

	embedder.EXPECT().EmbedQuery(gomock.Any(), "q").Return([]float32{1}, nil)
	filter := vectorstore.Filter{Kind: domain.KindPdf, DocumentIDs: source.ids}
	gomock.InOrder(
		index.EXPECT().Nearest(gomock.Any(), []float32{1}, 2, filter).Return([]vectorstore.Match{
			{ChunkID: "a-0", DocumentID: "a", Score: 0.9},
			{ChunkID: "a-1", DocumentID: "a", Score: 0.8},
		}, nil),
		index.EXPECT().Nearest(gomock.Any(), []float32{1}, 4, filter).Return([]vectorstore.Match{
			{ChunkID: "a-0", DocumentID: "a", Score: 0.9},
			{ChunkID: "a-1", DocumentID: "a", Score: 0.8},
			{ChunkID: "c-0", DocumentID: "c", Score: 0.7},
		}, nil),
	)

	resp, err := orch.Search(context.Background(), domain.SearchRequest{
		SemanticQuery: strPtr("q"),
		PageSize:      2,
		PageNumber:    1,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !slices.Equal(resp.Items, []string{"a", "c"}) {
		t.Errorf("items = %v, want [a c]", resp.Items)
	}
}

// staticSource serves string records equal to their ids.
type staticSource struct {
	ids []string
}

func (s *staticSource) Search(context.Context, domain.SearchRequest) ([]string, int64, error) {
	return s.ids, int64(len(s.ids)), nil
}

func (s *staticSource) MatchingIDs(context.Context, domain.SearchRequest) ([]string, error) {
	return s.ids, nil
}

func (s *staticSource) GetMany(_ context.Context, ids []string) ([]string, error) {
	return ids, nil
}

func TestAppendUnranked(t *testing.T) {
	got := appendUnranked([]string{"c"}, []string{"a", "b", "c", "d"}, 3)
	if !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("appendUnranked() = %v", got)
	}
}
