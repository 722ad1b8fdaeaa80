package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"bibliophage/internal/domain"
)

// chunkID builds a stable UUID so the same suite runs against Qdrant,
// which only accepts UUID or integer point IDs.
func chunkID(docID string, seq int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", docID, seq))).String()
}

func testChunk(docID string, kind domain.Kind, seq int, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ChunkID:       chunkID(docID, seq),
		DocumentID:    docID,
		Kind:          kind,
		SequenceIndex: seq,
		Text:          fmt.Sprintf("%s chunk %d", docID, seq),
		Vector:        vec,
		CharStart:     seq * 10,
		CharEnd:       seq*10 + 10,
	}
}

// runConformance exercises the VectorIndex contract against a fresh,
// empty index with 3-dimensional vectors.
func runConformance(t *testing.T, newIndex func(t *testing.T) VectorIndex) {
	ctx := context.Background()

	t.Run("replace then count", func(t *testing.T) {
		idx := newIndex(t)
		chunks := []domain.Chunk{
			testChunk("doc-a", domain.KindPdf, 0, 1, 0, 0),
			testChunk("doc-a", domain.KindPdf, 1, 0, 1, 0),
			testChunk("doc-a", domain.KindPdf, 2, 0, 0, 1),
		}
		if err := idx.ReplaceDocument(ctx, "doc-a", chunks); err != nil {
			t.Fatalf("ReplaceDocument() error = %v", err)
		}
		assertCount(t, idx, "doc-a", 3)

		if err := idx.ReplaceDocument(ctx, "doc-a", chunks[:1]); err != nil {
			t.Fatalf("ReplaceDocument() error = %v", err)
		}
		assertCount(t, idx, "doc-a", 1)
	})

	t.Run("delete by document", func(t *testing.T) {
		idx := newIndex(t)
		mustReplace(t, idx, "doc-a", testChunk("doc-a", domain.KindDocument, 0, 1, 0, 0), testChunk("doc-a", domain.KindDocument, 1, 1, 1, 0))
		mustReplace(t, idx, "doc-b", testChunk("doc-b", domain.KindDocument, 0, 0, 1, 0))

		n, err := idx.DeleteByDocument(ctx, "doc-a")
		if err != nil {
			t.Fatalf("DeleteByDocument() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteByDocument() = %d, want 2", n)
		}
		assertCount(t, idx, "doc-a", 0)
		assertCount(t, idx, "doc-b", 1)

		n, err = idx.DeleteByDocument(ctx, "missing")
		if err != nil || n != 0 {
			t.Errorf("DeleteByDocument(missing) = %d, %v", n, err)
		}
	})

	t.Run("nearest ranks by cosine", func(t *testing.T) {
		idx := newIndex(t)
		mustReplace(t, idx, "doc-a", testChunk("doc-a", domain.KindDocument, 0, 1, 0, 0))
		mustReplace(t, idx, "doc-b", testChunk("doc-b", domain.KindDocument, 0, 0.7, 0.7, 0))
		mustReplace(t, idx, "doc-c", testChunk("doc-c", domain.KindDocument, 0, 0, 0, 1))

		got, err := idx.Nearest(ctx, []float32{1, 0, 0}, 2, Filter{})
		if err != nil {
			t.Fatalf("Nearest() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Nearest() returned %d matches, want 2", len(got))
		}
		if got[0].DocumentID != "doc-a" || got[1].DocumentID != "doc-b" {
			t.Errorf("Nearest() order = %s, %s", got[0].DocumentID, got[1].DocumentID)
		}
		if got[0].Score < got[1].Score {
			t.Errorf("scores not descending: %v", got)
		}
	})

	t.Run("filter applies before limit", func(t *testing.T) {
		idx := newIndex(t)
		for i := 0; i < 5; i++ {
			id := fmt.Sprintf("near-%d", i)
			mustReplace(t, idx, id, testChunk(id, domain.KindDocument, 0, 1, float32(i)*0.01, 0))
		}
		mustReplace(t, idx, "far", testChunk("far", domain.KindDocument, 0, 0, 0, 1))
		mustReplace(t, idx, "other-kind", testChunk("other-kind", domain.KindPdf, 0, 1, 0, 0))

		got, err := idx.Nearest(ctx, []float32{1, 0, 0}, 1, Filter{Kind: domain.KindDocument, DocumentIDs: []string{"far"}})
		if err != nil {
			t.Fatalf("Nearest() error = %v", err)
		}
		if len(got) != 1 || got[0].DocumentID != "far" {
			t.Errorf("Nearest() = %+v, want only far", got)
		}

		got, err = idx.Nearest(ctx, []float32{1, 0, 0}, 10, Filter{Kind: domain.KindPdf})
		if err != nil {
			t.Fatalf("Nearest() error = %v", err)
		}
		if len(got) != 1 || got[0].DocumentID != "other-kind" {
			t.Errorf("Nearest(kind=pdf) = %+v", got)
		}

		got, err = idx.Nearest(ctx, []float32{1, 0, 0}, 10, Filter{DocumentIDs: []string{}})
		if err != nil || len(got) != 0 {
			t.Errorf("Nearest(empty ids) = %+v, %v", got, err)
		}
	})

	t.Run("document ids by kind", func(t *testing.T) {
		idx := newIndex(t)
		mustReplace(t, idx, "b", testChunk("b", domain.KindPdf, 0, 1, 0, 0), testChunk("b", domain.KindPdf, 1, 0, 1, 0))
		mustReplace(t, idx, "a", testChunk("a", domain.KindPdf, 0, 1, 0, 0))
		mustReplace(t, idx, "n", testChunk("n", domain.KindDocument, 0, 1, 0, 0))

		got, err := idx.DocumentIDs(ctx, domain.KindPdf)
		if err != nil {
			t.Fatalf("DocumentIDs() error = %v", err)
		}
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("DocumentIDs(pdf) = %v, want [a b]", got)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		idx := newIndex(t)
		if _, err := idx.Nearest(ctx, []float32{1, 0}, 3, Filter{}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Nearest(wrong dims) error = %v", err)
		}
		if _, err := idx.Nearest(ctx, []float32{1, 0, 0}, 0, Filter{}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Nearest(k=0) error = %v", err)
		}
		bad := testChunk("doc-a", domain.KindPdf, 0, 1, 0)
		if err := idx.Upsert(ctx, []domain.Chunk{bad}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Upsert(wrong dims) error = %v", err)
		}
	})
}

func mustReplace(t *testing.T, idx VectorIndex, docID string, chunks ...domain.Chunk) {
	t.Helper()
	if err := idx.ReplaceDocument(context.Background(), docID, chunks); err != nil {
		t.Fatalf("ReplaceDocument(%s) error = %v", docID, err)
	}
}

func assertCount(t *testing.T, idx VectorIndex, docID string, want int64) {
	t.Helper()
	got, err := idx.CountByDocument(context.Background(), docID)
	if err != nil {
		t.Fatalf("CountByDocument(%s) error = %v", docID, err)
	}
	if got != want {
		t.Errorf("CountByDocument(%s) = %d, want %d", docID, got, want)
	}
}
