// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// DocumentExtractor turns a staged file into text plus page segments.
type DocumentExtractor interface {
	// Extract reads the file at path as the declared format.
	Extract(ctx context.Context, path string, format entities.Format) (*entities.ExtractedDocument, error)
}

// PageParser extracts per-page text from paginated binary documents.
type PageParser interface {
	ParsePages(ctx context.Context, data []byte) ([]string, error)
}

// Storage stages bytes in temporary files for the length of one processing pass.
type Storage interface {
	// Stage writes data to a uniquely named temporary file and returns its path.
	Stage(data []byte) (string, error)

	// StageText writes derived plain text to a uniquely named .txt file.
	StageText(text string) (string, error)

	// Release deletes a staged file. A missing file is logged, never returned.
	Release(path string)
}

// DocumentLoader reads a staged text file back as a Document.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (*entities.Document, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text responses from a language model.
type LLMService interface {
	// Generate produces a complete response for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream produces the response incrementally. The channel is
	// closed after a token with Done set; a failure arrives as Error.
	GenerateStream(ctx context.Context, prompt string) (<-chan StreamToken, error)
}

// VectorStore persists and queries document embeddings for one index.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the most similar chunks to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Len returns the number of stored chunks.
	Len(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}

// TokenCounter measures text the way the embedding model does.
type TokenCounter interface {
	Count(text string) int
}

// Indexer is the retrieval delegate: it builds a queryable index over a document.
type Indexer interface {
	BuildIndex(ctx context.Context, doc *entities.Document) (Index, error)
}

// IndexerFactory builds an Indexer bound to a provider credential.
type IndexerFactory func(apiKey string) (Indexer, error)

// Index answers questions about one document.
type Index interface {
	// Query answers question. With stream set the response arrives on
	// Answer.Stream, otherwise Answer.Text holds it in full.
	Query(ctx context.Context, question string, stream bool) (*Answer, error)

	// Chunks returns the number of indexed chunks.
	Chunks() int

	Close() error
}

// Answer is a response plus the fragments it was grounded on. Exactly one of
// Stream or Text carries the response; Stream is finite and can be consumed once.
type Answer struct {
	Stream      <-chan StreamToken
	Text        string
	SourceNodes []entities.SourceNode
}

// StreamToken represents a single token in a streaming LLM response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
