package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte("# Test"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"phb.pdf",
		"5e/adventures/Curse of Strahd.PDF",
		"5e/notes.md",
		"pf2e/gmg.markdown",
		"pf2e/cover.png",
		".cache/skip.pdf",
		"pf2e/.trash/old.pdf",
	)

	files, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	var got []string
	for _, f := range files {
		got = append(got, f.RelPath)
	}
	want := []string{
		"5e/adventures/Curse of Strahd.PDF",
		"5e/notes.md",
		"pf2e/gmg.markdown",
		"phb.pdf",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScannedFile_Fields(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "folder/book.pdf", "top.md")

	files, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Scan() found %d files, want 2", len(files))
	}

	book := files[0]
	if book.RelPath != "folder/book.pdf" || book.Folder != "folder" {
		t.Errorf("book = %+v", book)
	}
	if book.AbsPath != filepath.Join(root, "folder", "book.pdf") {
		t.Errorf("AbsPath = %q", book.AbsPath)
	}
	if files[1].Folder != "" {
		t.Errorf("root-level Folder = %q, want empty", files[1].Folder)
	}
}

func TestScan_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Scan() of a missing root should fail")
	}
}
