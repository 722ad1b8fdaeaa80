package indexer

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"bibliophage/internal/domain"
)

func oneChunk(kind domain.Kind, documentID string) []domain.Chunk {
	return []domain.Chunk{{
		ChunkID:    ChunkID(kind, documentID, 0),
		DocumentID: documentID,
		Kind:       kind,
		Text:       "chunk",
		Vector:     []float32{1, 0, 0},
	}}
}

func TestReconciler_Sweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustStore := func(name string) domain.Pdf {
		t.Helper()
		pdf, err := env.pdfs.Store(ctx, domain.Pdf{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		return pdf
	}
	mustIndex := func(kind domain.Kind, id string) {
		t.Helper()
		if err := env.index.ReplaceDocument(ctx, id, oneChunk(kind, id)); err != nil {
			t.Fatal(err)
		}
	}

	stale := mustStore("abandoned")
	staleJob, err := env.jobs.Create(ctx, domain.IngestJob{PdfID: stale.ID})
	if err != nil {
		t.Fatal(err)
	}
	mustIndex(domain.KindPdf, stale.ID)

	healthy := mustStore("healthy")
	mustIndex(domain.KindPdf, healthy.ID)
	if _, err := env.pdfs.MarkPersisted(ctx, healthy.ID, 1, 1, 10); err != nil {
		t.Fatal(err)
	}

	drifted := mustStore("drifted")
	mustIndex(domain.KindPdf, drifted.ID)
	if _, err := env.pdfs.MarkPersisted(ctx, drifted.ID, 2, 1, 10); err != nil {
		t.Fatal(err)
	}

	note, err := env.docs.Store(ctx, domain.Document{Name: "npc", Content: "chunk", Type: domain.DocumentTypeCharacter})
	if err != nil {
		t.Fatal(err)
	}
	mustIndex(domain.KindDocument, note.ID)
	mustIndex(domain.KindDocument, "ghost")

	r := NewReconciler(env.pdfs, env.docs, env.jobs, env.index, time.Hour, nil)
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	report, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if !slices.Equal(report.StalePdfs, []string{stale.ID}) {
		t.Errorf("StalePdfs = %v, want [%s]", report.StalePdfs, stale.ID)
	}
	if !slices.Equal(report.OrphanVectors, []string{"ghost"}) {
		t.Errorf("OrphanVectors = %v, want [ghost]", report.OrphanVectors)
	}
	if !slices.Equal(report.Inconsistent, []string{drifted.ID}) {
		t.Errorf("Inconsistent = %v, want [%s]", report.Inconsistent, drifted.ID)
	}

	job, err := env.jobs.Get(ctx, staleJob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if job.State != domain.JobFailed || !strings.HasPrefix(job.Error, "abandoned") {
		t.Errorf("stale job = %+v", job)
	}
	for _, id := range []string{stale.ID, "ghost"} {
		if n, _ := env.index.CountByDocument(ctx, id); n != 0 {
			t.Errorf("%s still has %d chunks", id, n)
		}
	}
	for _, id := range []string{healthy.ID, note.ID} {
		if n, _ := env.index.CountByDocument(ctx, id); n != 1 {
			t.Errorf("%s has %d chunks, want 1", id, n)
		}
	}

	again, err := r.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.StalePdfs) != 0 || len(again.OrphanVectors) != 0 {
		t.Errorf("second sweep = %+v, want nothing removed", again)
	}
}

func TestReconciler_Schedule(t *testing.T) {
	env := newTestEnv(t)
	r := NewReconciler(env.pdfs, env.docs, env.jobs, env.index, time.Hour, nil)

	s, err := r.Schedule(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	defer s.Stop()

	if !s.IsRunning() {
		t.Error("scheduler is not running")
	}
	if jobs := s.Jobs(); len(jobs) != 1 || !slices.Contains(jobs[0].Tags(), "reconcile") {
		t.Errorf("scheduled jobs = %v", jobs)
	}
}
