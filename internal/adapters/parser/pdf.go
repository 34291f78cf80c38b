package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

// PDFParser implements ports.PageParser in-process with ledongthuc/pdf.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// ParsePages returns the plain text of every page in order.
// A page whose dictionary cannot be resolved yields an empty string so numbering holds.
func (p *PDFParser) ParsePages(ctx context.Context, data []byte) (pages []string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf: %v: %w", r, errs.ErrExtraction)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %v: %w", err, errs.ErrExtraction)
	}

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %v: %w", i, err, errs.ErrExtraction)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
