package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"bibliophage/internal/domain"
)

// pageBreak is the placeholder converters such as docling emit between pages.
const pageBreak = "<!-- page break -->"

// Markdown flattens a markdown document into plain text: one block per
// paragraph, table rows as pipe-separated cells, markup removed.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a markdown extractor with table support.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Extract implements Extractor. PageCount is the number of page break
// placeholders plus one.
func (e *Markdown) Extract(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	doc := e.md.Parser().Parse(text.NewReader(data))

	var blocks []string
	pages := 1
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if html, ok := n.(*ast.HTMLBlock); ok {
			if isPageBreak(html, data) {
				pages++
			}
			continue
		}
		blocks = appendBlock(blocks, n, data)
	}

	out := strings.Join(blocks, "\n\n")
	if strings.TrimSpace(out) == "" {
		return Result{}, fmt.Errorf("%w: document has no text", domain.ErrInvalidArgument)
	}
	return Result{Text: out, PageCount: pages}, nil
}

func appendBlock(blocks []string, n ast.Node, src []byte) []string {
	switch v := n.(type) {
	case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
		if s := inlineText(v, src); s != "" {
			blocks = append(blocks, s)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if s := strings.TrimRight(linesText(v, src), "\n"); s != "" {
			blocks = append(blocks, s)
		}
	case *ast.List:
		var items []string
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			var parts []string
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				parts = appendBlock(parts, c, src)
			}
			if len(parts) > 0 {
				items = append(items, "- "+strings.Join(parts, "\n"))
			}
		}
		if len(items) > 0 {
			blocks = append(blocks, strings.Join(items, "\n"))
		}
	case *ast.Blockquote:
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			blocks = appendBlock(blocks, c, src)
		}
	case *east.Table:
		var rows []string
		for row := v.FirstChild(); row != nil; row = row.NextSibling() {
			if s := tableRowText(row, src); s != "" {
				rows = append(rows, s)
			}
		}
		if len(rows) > 0 {
			blocks = append(blocks, strings.Join(rows, "\n"))
		}
	}
	return blocks
}

// inlineText concatenates the text leaves of n. Soft line breaks become spaces.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.HardLineBreak() {
				b.WriteByte('\n')
			} else if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func isPageBreak(n *ast.HTMLBlock, src []byte) bool {
	if strings.Contains(linesText(n, src), pageBreak) {
		return true
	}
	return n.HasClosure() && strings.Contains(string(n.ClosureLine.Value(src)), pageBreak)
}

func linesText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func tableRowText(row ast.Node, src []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableCell); ok {
			cells = append(cells, inlineText(c, src))
		}
	}
	return strings.Join(cells, " | ")
}
