// Package extract turns uploaded source files into plain text.
package extract

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_extractor.go -package=mocks bibliophage/internal/extract Extractor

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"bibliophage/internal/domain"
)

// Result is the text of one source file.
type Result struct {
	Text      string
	PageCount int
}

// Extractor converts raw file bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (Result, error)
}

var pdfMagic = []byte("%PDF-")

// Auto dispatches on content: PDF files by their magic header, anything else
// that is valid UTF-8 as markdown.
type Auto struct {
	PDF      Extractor
	Markdown Extractor
}

// NewAuto returns an Auto with the default extractors.
func NewAuto() *Auto {
	return &Auto{PDF: NewPDF(), Markdown: NewMarkdown()}
}

// Extract implements Extractor.
func (a *Auto) Extract(ctx context.Context, data []byte) (Result, error) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return a.PDF.Extract(ctx, data)
	case utf8.Valid(data):
		return a.Markdown.Extract(ctx, data)
	default:
		return Result{}, fmt.Errorf("%w: unsupported file format", domain.ErrInvalidArgument)
	}
}
