package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks bibliophage/internal/vectorstore VectorIndex

import (
	"context"
	"fmt"
	"sort"

	"bibliophage/internal/domain"
)

// Match is one ranked chunk. Score is cosine similarity: higher is closer.
type Match struct {
	ChunkID       string
	DocumentID    string
	SequenceIndex int
	Score         float32
}

// Filter restricts a nearest-neighbour query. It is applied while ranking,
// so k results are returned whenever k matching chunks exist.
type Filter struct {
	// Kind limits results to chunks of one record collection. Empty means any.
	Kind domain.Kind
	// DocumentIDs limits results to these parents. Nil means no restriction;
	// an empty non-nil slice matches nothing.
	DocumentIDs []string
}

// VectorIndex persists chunk vectors and answers similarity queries.
type VectorIndex interface {
	// Ensure prepares the backing collection and validates its dimensionality.
	Ensure(ctx context.Context) error

	// Upsert inserts or replaces chunks by chunk ID.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// ReplaceDocument makes chunks the complete chunk set of documentID.
	ReplaceDocument(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// DeleteByDocument removes every chunk of documentID as one operation
	// and returns how many were removed.
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)

	// Nearest returns up to k chunks ordered best-first, ties broken by chunk ID ascending.
	Nearest(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error)

	// CountByDocument returns the number of chunks stored for documentID.
	CountByDocument(ctx context.Context, documentID string) (int64, error)

	// DocumentIDs lists the distinct parents that own chunks of the given kind.
	DocumentIDs(ctx context.Context, kind domain.Kind) ([]string, error)
}

// sortMatches orders matches best-first with a deterministic tie break.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})
}

// validateChunks checks every chunk belongs to documentID (when set) and has
// the index's dimensionality.
func validateChunks(chunks []domain.Chunk, documentID string, dimensions int) error {
	for i, c := range chunks {
		if c.ChunkID == "" || c.DocumentID == "" {
			return fmt.Errorf("%w: chunk %d has no id or document id", domain.ErrInvalidArgument, i)
		}
		if documentID != "" && c.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to %s, not %s", domain.ErrInvalidArgument, c.ChunkID, c.DocumentID, documentID)
		}
		if len(c.Vector) != dimensions {
			return fmt.Errorf("%w: chunk %s has vector size %d, expected %d", domain.ErrInvalidArgument, c.ChunkID, len(c.Vector), dimensions)
		}
	}
	return nil
}

func validateQuery(query []float32, k, dimensions int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be greater than 0", domain.ErrInvalidArgument)
	}
	if len(query) != dimensions {
		return fmt.Errorf("%w: query vector size %d, expected %d", domain.ErrInvalidArgument, len(query), dimensions)
	}
	return nil
}
