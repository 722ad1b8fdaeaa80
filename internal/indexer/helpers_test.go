package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"bibliophage/internal/domain"
	"bibliophage/internal/extract"
	extractmocks "bibliophage/internal/extract/mocks"
	"bibliophage/internal/indexer/mocks"
	"bibliophage/internal/storage"
	"bibliophage/internal/vectorstore"
)

const testDims = 3

type testEnv struct {
	pdfs      *storage.PdfRepo
	docs      *storage.DocumentRepo
	jobs      *storage.JobRepo
	index     *vectorstore.MemoryStore
	embedder  *mocks.MockEmbedder
	extractor *extractmocks.MockExtractor
	pipeline  *Pipeline
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	ctrl := gomock.NewController(t)
	env := &testEnv{
		pdfs:      storage.NewPdfRepo(db),
		docs:      storage.NewDocumentRepo(db),
		jobs:      storage.NewJobRepo(db),
		index:     vectorstore.NewMemoryStore(testDims),
		embedder:  mocks.NewMockEmbedder(ctrl),
		extractor: extractmocks.NewMockExtractor(ctrl),
	}
	env.pipeline = NewPipeline(env.pdfs, env.jobs, env.index, env.embedder, env.extractor,
		domain.ChunkingConfig{ChunkSize: 100, ChunkOverlap: 20}, nil)
	return env
}

// fakeVectors returns one unit vector per text.
func fakeVectors(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i), 0}
	}
	return out, nil
}

func (e *testEnv) embedOK() {
	e.embedder.EXPECT().EmbedBatch(gomock.Any(), gomock.Any()).DoAndReturn(fakeVectors).AnyTimes()
}

func (e *testEnv) extractText(text string, pages int) {
	e.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).
		Return(extract.Result{Text: text, PageCount: pages}, nil).AnyTimes()
}

func testLoadRequest(name string) LoadRequest {
	return LoadRequest{
		Pdf:  domain.Pdf{Name: name, System: "D&D 5e", Type: "RULEBOOK", OriginPath: name + ".pdf"},
		File: []byte("%PDF-1.4 fake"),
	}
}
