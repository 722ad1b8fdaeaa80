package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bibliophage/internal/app"
	"bibliophage/internal/domain"
)

type searchOptions struct {
	kind      string
	text      string
	typ       string
	system    string
	tags      []string
	pageSize  int
	page      int
	sortOrder string
}

func searchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [semantic query]",
		Short: "Search stored PDFs or notes",
		Long: `With a query argument, results are ranked by similarity to it. Without one,
only the metadata filters apply and results follow --sort.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(args)
			if err != nil {
				return err
			}
			return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
				switch domain.Kind(opts.kind) {
				case domain.KindPdf:
					resp, err := engine.Pdfs.Search(ctx, req)
					if err != nil {
						return err
					}
					return printPage(cmd, resp, func(p domain.Pdf) string {
						return fmt.Sprintf("%s  %s  [%s %s] %d chunks", p.ID, p.Name, p.System, p.Type, p.ChunkCount)
					})
				case domain.KindDocument:
					resp, err := engine.Documents.Search(ctx, req)
					if err != nil {
						return err
					}
					return printPage(cmd, resp, func(d domain.Document) string {
						return fmt.Sprintf("%s  %s  [%s] %d chars", d.ID, d.Name, d.Type, d.CharacterCount)
					})
				default:
					return domain.Invalid("kind", "must be pdf or document, got %q", opts.kind)
				}
			})
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", string(domain.KindPdf), "record kind: pdf or document")
	cmd.Flags().StringVar(&opts.text, "text", "", "substring filter on name and content")
	cmd.Flags().StringVar(&opts.typ, "type", "", "exact type filter")
	cmd.Flags().StringVar(&opts.system, "system", "", "exact system filter (pdf only)")
	cmd.Flags().StringArrayVar(&opts.tags, "tag", nil, "tag filter as name=value[,value...]; every value must match")
	cmd.Flags().IntVarP(&opts.pageSize, "limit", "n", 10, "page size")
	cmd.Flags().IntVar(&opts.page, "page", 1, "page number, starting at 1")
	cmd.Flags().StringVar(&opts.sortOrder, "sort", "", "NAME_ASC, NAME_DESC, CREATED_AT_ASC or CREATED_AT_DESC")
	return cmd
}

func (o searchOptions) request(args []string) (domain.SearchRequest, error) {
	order, err := domain.ParseSortOrder(o.sortOrder)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	tags, err := parseTags(o.tags)
	if err != nil {
		return domain.SearchRequest{}, err
	}

	req := domain.SearchRequest{
		PageSize:   o.pageSize,
		PageNumber: o.page,
		SortOrder:  order,
		TextQuery:  optional(o.text),
		TypeFilter: optional(o.typ),
	}
	if len(args) == 1 {
		req.SemanticQuery = optional(args[0])
	}
	if o.system != "" {
		req.SystemFilter = &o.system
	}
	for _, t := range tags {
		for _, v := range t.Values {
			req.TagFilters = append(req.TagFilters, domain.TagFilter{Name: t.Name, Value: v})
		}
	}
	return req, req.Validate()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printPage[T any](cmd *cobra.Command, resp domain.SearchResponse[T], line func(T) string) error {
	if jsonOutput(cmd) {
		return printJSON(cmd, resp)
	}
	if len(resp.Items) == 0 {
		cmd.Printf("No results found (%d total).\n", resp.TotalCount)
		return nil
	}
	for i, item := range resp.Items {
		cmd.Printf("[%d] %s\n", i+1, line(item))
	}
	more := ""
	if resp.HasMore {
		more = ", more available"
	}
	cmd.Printf("\nPage %d, %d total%s\n", resp.PageNumber, resp.TotalCount, more)
	return nil
}
