package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks bibliophage/internal/indexer Embedder

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bibliophage/internal/domain"
)

// Embedder turns chunk texts into vectors, one per text, in order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LoadRequest asks for one file to be ingested as a Pdf record.
type LoadRequest struct {
	// Pdf carries the caller's metadata. ID, status and counters are assigned by the pipeline.
	Pdf  domain.Pdf
	File []byte
	// Chunking overrides the deployment default when set.
	Chunking *domain.ChunkingConfig
}

// Validate checks the request before any record is written.
func (r LoadRequest) Validate() error {
	if len(r.File) == 0 {
		return domain.Invalid("file", "must not be empty")
	}
	if r.Pdf.Name == "" {
		return domain.Invalid("name", "must not be empty")
	}
	return nil
}

// Outcome is the terminal state of an ingestion job.
type Outcome struct {
	Pdf   domain.Pdf
	Job   domain.IngestJob
	Stats ChunkStats
}

// ChunkID derives a stable chunk identifier, so ingesting identical input
// twice yields identical ids.
func ChunkID(kind domain.Kind, documentID string, sequenceIndex int) string {
	name := fmt.Sprintf("%s/%s/%d", kind, documentID, sequenceIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
