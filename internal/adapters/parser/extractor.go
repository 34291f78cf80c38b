// Package parser provides text extraction adapters.
// Adapter implementing ports.DocumentExtractor for pdf, docx, html, txt and rtf.
package parser

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
	"github.com/0xcro3dile/docqa-go/internal/metrics"
)

// Extractor implements ports.DocumentExtractor.
// Pdf pages come from a PageParser so the backend can be swapped for a remote service.
type Extractor struct {
	pdf ports.PageParser
	log *logger.Logger
}

// NewExtractor creates an extractor. A nil pdf parser selects the built-in one.
func NewExtractor(pdf ports.PageParser, log *logger.Logger) *Extractor {
	if pdf == nil {
		pdf = NewPDFParser()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{pdf: pdf, log: log}
}

// Extract reads the file at path and converts it according to format.
func (e *Extractor) Extract(ctx context.Context, path string, format entities.Format) (*entities.ExtractedDocument, error) {
	start := time.Now()
	doc, err := e.extract(ctx, path, format)
	metrics.ObserveExtraction(string(format), start, errs.Kind(err))
	if err != nil {
		e.log.Warn("extraction failed", "format", format, "path", path, "error", err)
		return nil, err
	}
	e.log.Debug("extracted document", "format", format, "segments", doc.PageCount(), "chars", len(doc.FullText))
	return doc, nil
}

func (e *Extractor) extract(ctx context.Context, path string, format entities.Format) (*entities.ExtractedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch format {
	case entities.FormatPDF, entities.FormatDOCX, entities.FormatHTML, entities.FormatTXT, entities.FormatRTF:
	default:
		return nil, fmt.Errorf("format %q: %w", format, errs.ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		if format.Paginated() {
			return entities.FromPages(format, nil), nil
		}
		return entities.SinglePage(format, ""), nil
	}

	switch format {
	case entities.FormatPDF:
		pages, err := e.pdf.ParsePages(ctx, data)
		if err != nil {
			return nil, err
		}
		return entities.FromPages(format, pages), nil

	case entities.FormatDOCX:
		text, err := docxToText(data)
		if err != nil {
			return nil, err
		}
		return entities.SinglePage(format, text), nil

	case entities.FormatHTML:
		if err := requireUTF8(data); err != nil {
			return nil, err
		}
		text, err := htmlToText(data)
		if err != nil {
			return nil, err
		}
		return entities.SinglePage(format, text), nil

	case entities.FormatRTF:
		if err := requireUTF8(data); err != nil {
			return nil, err
		}
		return entities.SinglePage(format, rtfToText(data)), nil

	default: // txt
		if err := requireUTF8(data); err != nil {
			return nil, err
		}
		return entities.SinglePage(format, plainText(data)), nil
	}
}

func requireUTF8(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("content is not utf-8: %w", errs.ErrEncoding)
	}
	return nil
}
