// Package library finds ingestible source files under a directory tree.
package library

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions accepted by Scan, compared case-insensitively.
var Extensions = []string{".pdf", ".md", ".markdown"}

// ScannedFile is one source file found during a scan.
type ScannedFile struct {
	RelPath string // Relative path from the root, slash separated (e.g. "5e/core/phb.pdf")
	Folder  string // RelPath without the file name, "" at the root
	AbsPath string
}

// Scan walks root and returns every file with an accepted extension,
// ordered by RelPath. Hidden directories are skipped.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []ScannedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !accepted(path) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.ToSlash(filepath.Dir(relPath))
		if folder == "." {
			folder = ""
		}

		files = append(files, ScannedFile{RelPath: relPath, Folder: folder, AbsPath: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func accepted(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
