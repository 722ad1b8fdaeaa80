package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bibliophage/internal/config"
	"bibliophage/internal/domain"
	bibhttp "bibliophage/internal/http"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// embeddingServer answers /v1/embeddings with deterministic vectors of size dims.
func embeddingServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			h := fnv.New32a()
			_, _ = h.Write([]byte(text))
			vec := make([]float64, dims)
			vec[0] = 1
			vec[int(h.Sum32())%dims] += 1
			data[i] = item{Index: i, Embedding: vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, embeddingURL string, dims int) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:             slog.LevelInfo,
		LogFormat:            "text",
		DBPath:               filepath.Join(t.TempDir(), "bibliophage.db"),
		DocStore:             config.DocStoreSQLite,
		VectorBackend:        config.VectorMemory,
		EmbeddingBaseURL:     embeddingURL,
		EmbeddingModelName:   "test-model",
		EmbeddingAPIKey:      "key",
		EmbeddingDimensions:  dims,
		EmbeddingBatchSize:   4,
		EmbeddingMaxRetries:  1,
		EmbeddingConcurrency: 2,
		EmbeddingTimeout:     5 * time.Second,
		Chunking:             domain.ChunkingConfig{ChunkSize: 100, ChunkOverlap: 10},
		IngestWorkers:        2,
		MaxUploadBytes:       1 << 20,
		ReconcileInterval:    time.Hour,
		ReconcileStaleAfter:  time.Hour,
	}
}

func TestNew_ProbeMismatchIsFatal(t *testing.T) {
	srv := embeddingServer(t, 4)
	cfg := testConfig(t, srv.URL, 8)

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("New() with mismatched dimensions should fail")
	}
}

func TestMigrate_SQLiteOnly(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", 4)
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestApp_EndToEnd(t *testing.T) {
	srv := embeddingServer(t, 8)
	cfg := testConfig(t, srv.URL, 8)
	ctx := context.Background()

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(a.Close)
	if err := a.StartReconciler(ctx); err != nil {
		t.Fatalf("StartReconciler() error = %v", err)
	}

	router := bibhttp.NewRouter(&bibhttp.Deps{
		Documents:      a.Documents,
		Pdfs:           a.Pdfs,
		HealthChecks:   a.Health,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Gatherer:       a.Registry,
	})

	do := func(method, path string, body io.Reader, contentType string) (int, map[string]any) {
		t.Helper()
		req := httptest.NewRequest(method, path, body)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var out map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		return w.Code, out
	}

	if code, _ := do(http.MethodGet, "/api/health", nil, ""); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}

	note := `{"name":"Vallaki","content":"` + strings.Repeat("A town of forced festivals. ", 10) + `","type":"LOCATION","tags":[{"name":"region","values":["barovia"]}]}`
	code, out := do(http.MethodPost, "/api/v1/documents", strings.NewReader(note), "application/json")
	if code != http.StatusCreated {
		t.Fatalf("store = %d %v", code, out)
	}
	docID := out["payload"].(map[string]any)["id"].(string)
	if n, _ := a.Index.CountByDocument(ctx, docID); n == 0 {
		t.Error("stored note has no chunks")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("metadata", `{"system":"D&D 5e","type":"ADVENTURE"}`)
	fw, _ := mw.CreateFormFile("file", "Curse of Strahd.md")
	_, _ = fw.Write([]byte("# Curse of Strahd\n\n" + strings.Repeat("The mists close in around the travellers. ", 12)))
	_ = mw.Close()
	code, out = do(http.MethodPost, "/api/v1/pdfs", &buf, mw.FormDataContentType())
	if code != http.StatusCreated {
		t.Fatalf("load = %d %v", code, out)
	}
	pdf := out["payload"].(map[string]any)["pdf"].(map[string]any)
	if pdf["name"] != "Curse of Strahd" || pdf["status"] != string(domain.PdfStatusPersisted) {
		t.Errorf("pdf = %v", pdf)
	}

	search := `{"semantic_query":"festival town","page_size":10,"page_number":1}`
	code, out = do(http.MethodPost, "/api/v1/documents/search", strings.NewReader(search), "application/json")
	if code != http.StatusOK {
		t.Fatalf("search = %d %v", code, out)
	}
	if total := out["payload"].(map[string]any)["total_count"]; total != float64(1) {
		t.Errorf("total_count = %v", total)
	}

	code, out = do(http.MethodPost, "/api/v1/pdfs/search", strings.NewReader(`{"system_filter":"D&D 5e","page_size":10,"page_number":1}`), "application/json")
	if code != http.StatusOK || out["payload"].(map[string]any)["total_count"] != float64(1) {
		t.Errorf("pdf search = %d %v", code, out)
	}

	if code, _ := do(http.MethodDelete, "/api/v1/documents/"+docID, nil, ""); code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
	if n, _ := a.Index.CountByDocument(ctx, docID); n != 0 {
		t.Errorf("%d chunks survived delete", n)
	}

	report, err := a.Reconciler.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(report.OrphanVectors) != 0 || len(report.StalePdfs) != 0 || len(report.Inconsistent) != 0 {
		t.Errorf("report = %+v", report)
	}

	code, _ = do(http.MethodGet, "/metrics", nil, "")
	if code != http.StatusOK {
		t.Errorf("metrics = %d", code)
	}
}

func TestApp_DocumentStoreUnreachable(t *testing.T) {
	srv := embeddingServer(t, 4)
	cfg := testConfig(t, srv.URL, 4)
	cfg.DocStore = config.DocStoreMongo
	cfg.DocDBURL = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

	_, err := New(context.Background(), cfg)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("New() error = %v, want ErrStoreUnavailable", err)
	}
}
