// Package entities contains core business entities.
// These are pure domain objects with no knowledge of storage or providers.
package entities

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

// Format is the closed set of document formats the extractor understands.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatTXT  Format = "txt"
	FormatRTF  Format = "rtf"
)

// SupportedFormats lists every Format in a stable order.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatHTML, FormatTXT, FormatRTF}
}

// Extension returns the canonical file extension, dot included.
func (f Format) Extension() string {
	return "." + string(f)
}

// Paginated reports whether the format yields one segment per page.
func (f Format) Paginated() bool {
	return f == FormatPDF
}

// FormatFromFilename maps the lower-cased extension of name to a Format.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	case "html", "htm":
		return FormatHTML, nil
	case "txt":
		return FormatTXT, nil
	case "rtf":
		return FormatRTF, nil
	}
	return "", fmt.Errorf("file %q: %w", filepath.Base(name), errs.ErrUnsupportedFormat)
}

// Segment is a page-labeled span of extracted text. PageNumber starts at 1.
type Segment struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// ExtractedDocument is the extractor output: the full text plus the
// segments that cover it. It is not modified after creation.
type ExtractedDocument struct {
	Format   Format
	FullText string
	Segments []Segment
}

// SinglePage builds the document shape used by non-paginated formats.
func SinglePage(format Format, text string) *ExtractedDocument {
	return &ExtractedDocument{
		Format:   format,
		FullText: text,
		Segments: []Segment{{PageNumber: 1, Text: text}},
	}
}

// FromPages builds a paginated document, numbering pages from 1.
func FromPages(format Format, pages []string) *ExtractedDocument {
	doc := &ExtractedDocument{Format: format}
	var sb strings.Builder
	for i, text := range pages {
		doc.Segments = append(doc.Segments, Segment{PageNumber: i + 1, Text: text})
		sb.WriteString(text)
	}
	doc.FullText = sb.String()
	return doc
}

// PageCount returns the number of segments.
func (d *ExtractedDocument) PageCount() int {
	return len(d.Segments)
}

// Document is the derived text loaded back for indexing, with the
// extractor's segments attached as page metadata.
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	Pages     []Segment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentInfo summarizes the active document of a session.
type DocumentInfo struct {
	Name     string    `json:"name"`
	Format   Format    `json:"format"`
	Pages    int       `json:"pages"`
	Chars    int       `json:"chars"`
	Chunks   int       `json:"chunks"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Chunk is a piece of a document for embedding. A chunk never spans two pages.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int // Position in document
	PageLabel  string
	Embedding  []float32
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk Chunk
	Score float64
}

// SourceNode is a retrieved fragment backing an answer.
type SourceNode struct {
	Text      string
	PageLabel string
	Score     float64
}

// SourceCitation is what the user sees next to an answer.
type SourceCitation struct {
	Excerpt   string `json:"excerpt"`
	PageLabel string `json:"page_label"`
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry of the session transcript.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the answer to one question with its citations.
type ChatResponse struct {
	Answer    string           `json:"answer"`
	Citations []SourceCitation `json:"citations"`
}
