// Package errs defines the error taxonomy surfaced to users.
// Adapters wrap these sentinels with %w; callers classify with errors.Is.
package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat means the file extension is not a known document format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEncoding means text content is not valid UTF-8.
	ErrEncoding = errors.New("invalid text encoding")
	// ErrExtraction means the file contents are malformed for the declared format.
	ErrExtraction = errors.New("extraction failed")
	// ErrProvider means the language-model or embedding provider failed.
	ErrProvider = errors.New("provider error")
	// ErrIndexBuild means the retrieval delegate rejected the text.
	ErrIndexBuild = errors.New("index build failed")
	// ErrNoDocument means a query arrived before any document was indexed.
	ErrNoDocument = errors.New("no document loaded")
	// ErrMissingCredential means no provider API key was supplied.
	ErrMissingCredential = errors.New("missing provider credential")
	// ErrEmptyQuery means the question was blank.
	ErrEmptyQuery = errors.New("empty query")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrEncoding, "encoding_error"},
	{ErrExtraction, "extraction_failure"},
	{ErrMissingCredential, "missing_credential"},
	{ErrProvider, "provider_error"},
	{ErrIndexBuild, "index_build_failure"},
	{ErrNoDocument, "no_document"},
	{ErrEmptyQuery, "empty_query"},
}

// Kind returns a stable code for err, "ok" for nil and "internal" for unknown errors.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "internal"
}

// Provider wraps a provider failure. Context cancellation is passed through
// unclassified so an abandoned request is not reported as a provider fault.
func Provider(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
}

// providerPatterns maps provider error text to messages safe to show a user.
var providerPatterns = []struct {
	pattern string
	message string
}{
	{"quota", "the provider quota is exhausted"},
	{"rate limit", "the provider rate limit was exceeded, try again shortly"},
	{"429", "the provider rate limit was exceeded, try again shortly"},
	{"invalid_api_key", "the provider rejected the API key"},
	{"incorrect api key", "the provider rejected the API key"},
	{"401", "the provider rejected the API key"},
	{"unauthorized", "the provider rejected the API key"},
	{"timeout", "the provider request timed out"},
	{"connection refused", "the provider could not be reached"},
	{"no such host", "the provider could not be reached"},
}

// UserMessage renders err as a message for display. Extraction and format
// errors keep their detail; provider errors are reduced to a known cause.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFormat):
		return "Unsupported file type. Upload a pdf, docx, html, txt or rtf file."
	case errors.Is(err, ErrEncoding):
		return "The file is not valid UTF-8 text."
	case errors.Is(err, ErrExtraction):
		return "Could not read the document: " + err.Error()
	case errors.Is(err, ErrMissingCredential):
		return "Enter a provider API key first."
	case errors.Is(err, ErrProvider):
		lower := strings.ToLower(err.Error())
		for _, p := range providerPatterns {
			if strings.Contains(lower, p.pattern) {
				return p.message
			}
		}
		return "the provider is temporarily unavailable"
	case errors.Is(err, ErrIndexBuild):
		return "The document has no text to index."
	case errors.Is(err, ErrNoDocument):
		return "Upload a document before asking questions."
	case errors.Is(err, ErrEmptyQuery):
		return "Enter a question."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled."
	default:
		return err.Error()
	}
}
