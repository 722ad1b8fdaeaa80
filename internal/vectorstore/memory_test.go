package vectorstore

import (
	"context"
	"testing"

	"bibliophage/internal/domain"
)

func TestMemoryStore_Conformance(t *testing.T) {
	runConformance(t, func(t *testing.T) VectorIndex {
		return NewMemoryStore(3)
	})
}

func TestMemoryStore_TieBreakByChunkID(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ChunkID: "c", DocumentID: "d1", Kind: domain.KindDocument, Vector: []float32{1, 0}},
		{ChunkID: "a", DocumentID: "d2", Kind: domain.KindDocument, Vector: []float32{2, 0}},
		{ChunkID: "b", DocumentID: "d3", Kind: domain.KindDocument, Vector: []float32{3, 0}},
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := store.Nearest(ctx, []float32{1, 0}, 3, Filter{})
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, m := range got {
		if m.ChunkID != want[i] {
			t.Errorf("Nearest()[%d] = %s, want %s", i, m.ChunkID, want[i])
		}
	}
}

func TestMemoryStore_StoresCopies(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	vec := []float32{1, 0}
	if err := store.Upsert(ctx, []domain.Chunk{{ChunkID: "c", DocumentID: "d", Vector: vec}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	vec[0], vec[1] = 0, 1

	got, err := store.Nearest(ctx, []float32{1, 0}, 1, Filter{})
	if err != nil {
		t.Fatalf("Nearest() error = %v", err)
	}
	if got[0].Score < 0.99 {
		t.Errorf("stored vector was aliased: score = %v", got[0].Score)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	if got := cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("cosine(zero) = %v, want 0", got)
	}
}
