package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
)

// PDF extracts page text with ledongthuc/pdf. Pages are joined by a blank
// line; pages whose text cannot be decoded are skipped and logged.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extract implements Extractor.
func (e *PDF) Extract(ctx context.Context, data []byte) (res Result, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidArgument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to open pdf: %w", domain.ErrInvalidArgument, err)
	}

	pages := reader.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.WarnContext(ctx, "failed to extract page text", "page", i, "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return Result{}, fmt.Errorf("%w: pdf has no extractable text", domain.ErrInvalidArgument)
	}
	return Result{Text: strings.Join(parts, "\n\n"), PageCount: pages}, nil
}
