package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bibliophage/internal/domain"
	"bibliophage/internal/retry"
)

func TestGRPCTarget(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{name: "default port", urlStr: "http://localhost:6333", wantHost: "localhost", wantPort: 6334},
		{name: "custom port", urlStr: "http://qdrant:9000", wantHost: "qdrant", wantPort: 9001},
		{name: "no port", urlStr: "http://localhost", wantHost: "localhost", wantPort: 6334},
		{name: "no hostname", urlStr: "http://:6333", wantHost: "localhost", wantPort: 6334},
		{name: "invalid URL", urlStr: "://invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcTarget(tt.urlStr)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidConfiguration) {
					t.Fatalf("grpcTarget() error = %v, want ErrInvalidConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcTarget() error = %v", err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("grpcTarget() = %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestBuildFilter(t *testing.T) {
	if f := buildFilter(Filter{}); f != nil {
		t.Errorf("buildFilter(empty) = %v, want nil", f)
	}

	f := buildFilter(Filter{Kind: domain.KindPdf, DocumentIDs: []string{"a", "b"}})
	if f == nil || len(f.Must) != 2 {
		t.Fatalf("buildFilter() = %v, want two conditions", f)
	}
	kind := f.Must[0].GetField()
	if kind.GetKey() != payloadKind || kind.GetMatch().GetKeyword() != "pdf" {
		t.Errorf("kind condition = %v", kind)
	}
	ids := f.Must[1].GetField()
	if ids.GetKey() != payloadDocumentID || len(ids.GetMatch().GetKeywords().GetStrings()) != 2 {
		t.Errorf("document_id condition = %v", ids)
	}
}

func TestToPoints(t *testing.T) {
	points := toPoints([]domain.Chunk{
		{ChunkID: "6f1c2a4e-3a9b-5c1e-8f00-000000000001", DocumentID: "doc", Kind: domain.KindDocument, SequenceIndex: 4, Text: "hello", Vector: []float32{1, 2}, CharStart: 40, CharEnd: 45},
	})
	if len(points) != 1 {
		t.Fatalf("toPoints() returned %d points", len(points))
	}
	meta := convertPayloadToMap(points[0].GetPayload())
	if meta[payloadDocumentID] != "doc" || meta[payloadKind] != "document" || meta[payloadText] != "hello" {
		t.Errorf("payload = %v", meta)
	}
	if meta[payloadSequence] != int64(4) || meta[payloadCharStart] != int64(40) || meta[payloadCharEnd] != int64(45) {
		t.Errorf("payload offsets = %v", meta)
	}
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name  string
		value *qdrant.Value
		want  any
	}{
		{name: "nil", value: nil, want: nil},
		{name: "string", value: qdrant.NewValueString("x"), want: "x"},
		{name: "integer", value: qdrant.NewValueInt(7), want: int64(7)},
		{name: "bool", value: qdrant.NewValueBool(true), want: true},
		{name: "double", value: qdrant.NewValueDouble(1.5), want: 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertValue(tt.value); got != tt.want {
				t.Errorf("convertValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTransientGRPC(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unavailable", err: status.Error(codes.Unavailable, "down"), want: true},
		{name: "deadline", err: status.Error(codes.DeadlineExceeded, "slow"), want: true},
		{name: "exhausted", err: status.Error(codes.ResourceExhausted, "busy"), want: true},
		{name: "invalid", err: status.Error(codes.InvalidArgument, "bad"), want: false},
		{name: "not found", err: status.Error(codes.NotFound, "gone"), want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientGRPC(tt.err); got != tt.want {
				t.Errorf("isTransientGRPC(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// fakePoints records point writes and serves canned query results. Methods
// the tests do not need panic through the nil embedded interface.
type fakePoints struct {
	pointsClient

	upsertErr error
	upserts   [][]*qdrant.PointStruct
	deletes   []*qdrant.Filter
	scored    []*qdrant.ScoredPoint
	limit     uint64
}

func (f *fakePoints) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upserts = append(f.upserts, req.GetPoints())
	return &qdrant.UpdateResult{}, nil
}

func (f *fakePoints) Delete(_ context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deletes = append(f.deletes, req.GetPoints().GetFilter())
	return &qdrant.UpdateResult{}, nil
}

func (f *fakePoints) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.limit = req.GetLimit()
	return f.scored, nil
}

func newFakeQdrant(f *fakePoints) *QdrantStore {
	return &QdrantStore{client: f, collection: "test", dimensions: 3, policy: retry.DefaultPolicy()}
}

func TestQdrantStore_ReplaceDocument(t *testing.T) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		testChunk("doc", domain.KindDocument, 0, 1, 0, 0),
		testChunk("doc", domain.KindDocument, 1, 0, 1, 0),
	}

	t.Run("failed upsert keeps previous points", func(t *testing.T) {
		f := &fakePoints{upsertErr: errors.New("disk full")}
		if err := newFakeQdrant(f).ReplaceDocument(ctx, "doc", chunks); err == nil {
			t.Fatal("ReplaceDocument() should fail when the upsert fails")
		}
		if len(f.deletes) != 0 {
			t.Errorf("ReplaceDocument() issued %d deletes after a failed upsert", len(f.deletes))
		}
	})

	t.Run("upserts then trims the tail", func(t *testing.T) {
		f := &fakePoints{}
		if err := newFakeQdrant(f).ReplaceDocument(ctx, "doc", chunks); err != nil {
			t.Fatalf("ReplaceDocument() error = %v", err)
		}
		if len(f.upserts) != 1 || len(f.upserts[0]) != 2 {
			t.Fatalf("upserts = %v, want one batch of 2", f.upserts)
		}
		if len(f.deletes) != 1 {
			t.Fatalf("deletes = %d, want 1", len(f.deletes))
		}
		must := f.deletes[0].GetMust()
		if len(must) != 2 {
			t.Fatalf("delete filter = %v, want document and range conditions", f.deletes[0])
		}
		if must[0].GetField().GetKey() != payloadDocumentID || must[0].GetField().GetMatch().GetKeyword() != "doc" {
			t.Errorf("document condition = %v", must[0])
		}
		rng := must[1].GetField()
		if rng.GetKey() != payloadSequence || rng.GetRange().GetGte() != 2 {
			t.Errorf("range condition = %v, want %s >= 2", rng, payloadSequence)
		}
	})

	t.Run("empty replace removes everything", func(t *testing.T) {
		f := &fakePoints{}
		if err := newFakeQdrant(f).ReplaceDocument(ctx, "doc", nil); err != nil {
			t.Fatalf("ReplaceDocument() error = %v", err)
		}
		if len(f.upserts) != 0 || len(f.deletes) != 1 {
			t.Fatalf("upserts = %d, deletes = %d", len(f.upserts), len(f.deletes))
		}
		if gte := f.deletes[0].GetMust()[1].GetField().GetRange().GetGte(); gte != 0 {
			t.Errorf("range gte = %v, want 0", gte)
		}
	})

	t.Run("foreign chunk rejected before any write", func(t *testing.T) {
		f := &fakePoints{}
		other := testChunk("other", domain.KindDocument, 0, 1, 0, 0)
		err := newFakeQdrant(f).ReplaceDocument(ctx, "doc", []domain.Chunk{other})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("ReplaceDocument() error = %v, want ErrInvalidArgument", err)
		}
		if len(f.upserts) != 0 || len(f.deletes) != 0 {
			t.Error("ReplaceDocument() wrote despite invalid input")
		}
	})
}

func TestQdrantStore_NearestBreaksTiesAtTheCut(t *testing.T) {
	scoredPoint := func(docID string, seq int, score float32) *qdrant.ScoredPoint {
		return &qdrant.ScoredPoint{
			Id:    qdrant.NewID(chunkID(docID, seq)),
			Score: score,
			Payload: qdrant.NewValueMap(map[string]any{
				payloadDocumentID: docID,
				payloadSequence:   seq,
			}),
		}
	}

	// Qdrant returns equal scores in its own order; the lowest chunk ids must win.
	f := &fakePoints{}
	tied := []string{"d", "c", "b", "a"}
	f.scored = append(f.scored, scoredPoint("top", 0, 0.9))
	for _, doc := range tied {
		f.scored = append(f.scored, scoredPoint(doc, 0, 0.5))
	}

	matches, err := newFakeQdrant(f).Nearest(context.Background(), []float32{1, 0, 0}, 3, Filter{})
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	if f.limit != 6 {
		t.Errorf("query limit = %d, want k plus margin (6)", f.limit)
	}
	if len(matches) != 3 {
		t.Fatalf("Nearest() returned %d matches, want 3", len(matches))
	}
	if matches[0].DocumentID != "top" {
		t.Errorf("first match = %s, want top", matches[0].DocumentID)
	}
	if matches[1].ChunkID > matches[2].ChunkID {
		t.Errorf("tied matches not ordered by chunk id: %s > %s", matches[1].ChunkID, matches[2].ChunkID)
	}
	lowest := matches[1].ChunkID
	for _, p := range f.scored[1:] {
		if id := p.GetId().GetUuid(); id < lowest {
			t.Errorf("chunk %s was cut although it sorts before %s", id, lowest)
		}
	}
}
