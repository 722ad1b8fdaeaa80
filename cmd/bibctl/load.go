package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bibliophage/internal/app"
	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/indexer"
	"bibliophage/internal/library"
	"bibliophage/internal/service"
)

type loadOptions struct {
	name         string
	system       string
	typ          string
	tags         []string
	chunkSize    int
	chunkOverlap int
}

func loadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load <file|dir>",
		Short: "Ingest PDF or markdown rulebooks",
		Long: `Extracts, chunks, embeds and indexes a file, then prints the stored PDF record
and chunk statistics. The name defaults to the file name without its extension.

Given a directory, every .pdf and .md file below it is loaded concurrently,
and files in sub-folders get a "folder" tag naming the folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if info.IsDir() {
				if opts.name != "" {
					return domain.Invalid("name", "cannot be set when loading a directory")
				}
				return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
					return loadDir(ctx, cmd, engine, opts, args[0])
				})
			}

			req, err := opts.request(args[0], "")
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
				res, err := engine.Pdfs.Load(ctx, req, false)
				if err != nil {
					return err
				}
				if jsonOutput(cmd) {
					return printJSON(cmd, res)
				}
				printLoaded(cmd, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "record name (default: file name)")
	cmd.Flags().StringVar(&opts.system, "system", "", "game system, e.g. \"D&D 5e\"")
	cmd.Flags().StringVar(&opts.typ, "type", "", "book type, e.g. RULEBOOK")
	cmd.Flags().StringArrayVar(&opts.tags, "tag", nil, "tag as name=value[,value...]; repeatable")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "override the configured chunk size")
	cmd.Flags().IntVar(&opts.chunkOverlap, "chunk-overlap", 0, "override the configured chunk overlap")
	return cmd
}

func printLoaded(cmd *cobra.Command, res service.LoadResult) {
	cmd.Printf("PDF %s loaded successfully\n", res.Pdf.Name)
	cmd.Printf("  id:     %s\n", res.Pdf.ID)
	cmd.Printf("  pages:  %d\n", res.Pdf.PageCount)
	cmd.Printf("  chunks: %d (runes %d-%d, mean %.1f tokens, p95 %d tokens)\n",
		res.Stats.Chunks, res.Stats.MinRunes, res.Stats.MaxRunes, res.Stats.MeanTokens, res.Stats.P95Tokens)
}

// loadDir ingests every file under dir, at most IngestWorkers at a time.
// A failed file is reported and does not stop the others.
func loadDir(ctx context.Context, cmd *cobra.Command, engine *app.App, opts loadOptions, dir string) error {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := library.Scan(ctx, dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println("No PDF or markdown files found.")
		return nil
	}

	var (
		mu      sync.Mutex
		results []service.LoadResult
		failed  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(engine.Config.IngestWorkers)
	for _, f := range files {
		g.Go(func() error {
			req, err := opts.request(f.AbsPath, f.Folder)
			if err == nil {
				var res service.LoadResult
				if res, err = engine.Pdfs.Load(gctx, req, false); err == nil {
					mu.Lock()
					results = append(results, res)
					mu.Unlock()
					return nil
				}
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			logger.ErrorContext(ctx, "failed to load file", "path", f.RelPath, "error", err)
			mu.Lock()
			failed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonOutput(cmd) {
		return printJSON(cmd, results)
	}
	for _, res := range results {
		printLoaded(cmd, res)
	}
	cmd.Printf("\nLoaded %d of %d files\n", len(results), len(files))
	if failed > 0 {
		return fmt.Errorf("%d files failed to load", failed)
	}
	return nil
}

// request builds the load request for one file. A non-empty folder is
// added as a "folder" tag.
func (o loadOptions) request(path, folder string) (indexer.LoadRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return indexer.LoadRequest{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	raw := o.tags
	if folder != "" {
		raw = append(append([]string(nil), o.tags...), "folder="+folder)
	}
	tags, err := parseTags(raw)
	if err != nil {
		return indexer.LoadRequest{}, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	req := indexer.LoadRequest{
		Pdf: domain.Pdf{
			Name:       o.name,
			System:     o.system,
			Type:       o.typ,
			OriginPath: abs,
			Tags:       tags,
		},
		File: data,
	}
	if o.chunkSize != 0 || o.chunkOverlap != 0 {
		req.Chunking = &domain.ChunkingConfig{ChunkSize: o.chunkSize, ChunkOverlap: o.chunkOverlap}
	}
	return req, nil
}

// parseTags reads name=value[,value...] pairs. Repeated names merge.
func parseTags(raw []string) ([]domain.Tag, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	tags := make([]domain.Tag, 0, len(raw))
	for _, r := range raw {
		name, values, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, domain.Invalid("tag", "expected name=value, got %q", r)
		}
		tag := domain.Tag{Name: name}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				tag.Values = append(tag.Values, v)
			}
		}
		tags = append(tags, tag)
	}
	return domain.NormalizeTags(tags)
}
