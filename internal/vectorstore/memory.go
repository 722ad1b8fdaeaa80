package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"bibliophage/internal/domain"
)

// MemoryStore is an in-process VectorIndex using brute-force cosine
// similarity. Intended for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	dimensions int
	byDocument map[string]map[string]domain.Chunk
}

// NewMemoryStore creates an empty store for vectors of the given size.
func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{
		dimensions: dimensions,
		byDocument: make(map[string]map[string]domain.Chunk),
	}
}

// Ensure is a no-op.
func (s *MemoryStore) Ensure(ctx context.Context) error {
	return nil
}

// Upsert inserts or replaces chunks by chunk ID.
func (s *MemoryStore) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if err := validateChunks(chunks, "", s.dimensions); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.put(c)
	}
	return nil
}

// ReplaceDocument swaps the chunk set of documentID under a single lock.
func (s *MemoryStore) ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if err := validateChunks(chunks, documentID, s.dimensions); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byDocument, documentID)
	for _, c := range chunks {
		s.put(c)
	}
	return nil
}

func (s *MemoryStore) put(c domain.Chunk) {
	set, ok := s.byDocument[c.DocumentID]
	if !ok {
		set = make(map[string]domain.Chunk)
		s.byDocument[c.DocumentID] = set
	}
	c.Vector = append([]float32(nil), c.Vector...)
	set[c.ChunkID] = c
}

// DeleteByDocument removes every chunk of documentID.
func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.byDocument[documentID]))
	delete(s.byDocument, documentID)
	return n, nil
}

// Nearest ranks all chunks passing filter by cosine similarity.
func (s *MemoryStore) Nearest(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	if err := validateQuery(query, k, s.dimensions); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []string
	if filter.DocumentIDs != nil {
		candidates = filter.DocumentIDs
	} else {
		candidates = make([]string, 0, len(s.byDocument))
		for id := range s.byDocument {
			candidates = append(candidates, id)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var matches []Match
	for _, docID := range candidates {
		if _, dup := seen[docID]; dup {
			continue
		}
		seen[docID] = struct{}{}
		for _, c := range s.byDocument[docID] {
			if filter.Kind != "" && c.Kind != filter.Kind {
				continue
			}
			matches = append(matches, Match{
				ChunkID:       c.ChunkID,
				DocumentID:    c.DocumentID,
				SequenceIndex: c.SequenceIndex,
				Score:         cosine(query, c.Vector),
			})
		}
	}

	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// CountByDocument returns the number of chunks held for documentID.
func (s *MemoryStore) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byDocument[documentID])), nil
}

// DocumentIDs lists parents owning chunks of kind, sorted.
func (s *MemoryStore) DocumentIDs(ctx context.Context, kind domain.Kind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.byDocument))
	for id, set := range s.byDocument {
		for _, c := range set {
			if kind == "" || c.Kind == kind {
				ids = append(ids, id)
			}
			break
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
