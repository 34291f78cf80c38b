package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// StoreFactory opens an empty vector store for a new index.
type StoreFactory func() (ports.VectorStore, error)

// RetrievalIndexer is the shipped retrieval delegate: chunk, embed, store,
// then answer by cosine top-k and a streamed completion.
type RetrievalIndexer struct {
	embedder ports.EmbeddingService
	llm      ports.LLMService
	newStore StoreFactory
	chunker  *Chunker
	topK     int
	log      *logger.Logger
}

// NewRetrievalIndexer creates a RetrievalIndexer with injected dependencies.
func NewRetrievalIndexer(
	embedder ports.EmbeddingService,
	llm ports.LLMService,
	newStore StoreFactory,
	chunker *Chunker,
	topK int,
	log *logger.Logger,
) *RetrievalIndexer {
	if topK <= 0 {
		topK = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RetrievalIndexer{
		embedder: embedder,
		llm:      llm,
		newStore: newStore,
		chunker:  chunker,
		topK:     topK,
		log:      log,
	}
}

// BuildIndex chunks, embeds and stores doc in a fresh vector store.
func (r *RetrievalIndexer) BuildIndex(ctx context.Context, doc *entities.Document) (ports.Index, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("document %q has no text: %w", doc.Name, errs.ErrIndexBuild)
	}

	// 1. Chunk the document
	chunks := r.chunker.Split(doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %q produced no chunks: %w", doc.Name, errs.ErrIndexBuild)
	}

	// 2. Embed chunk text
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, errs.Provider("embedding chunks",
			fmt.Errorf("got %d embeddings for %d chunks", len(embeddings), len(chunks)))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	// 3. Store in a vector store owned by the index
	store, err := r.newStore()
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	if err := store.Store(ctx, chunks); err != nil {
		store.Close()
		return nil, fmt.Errorf("storing chunks: %w", err)
	}
	stored, err := store.Len(ctx)
	if err == nil && stored != len(chunks) {
		err = fmt.Errorf("stored %d of %d chunks: %w", stored, len(chunks), errs.ErrIndexBuild)
	}
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	r.log.Debug("index built", "document", doc.Name, "chunks", len(chunks))
	return &vectorIndex{
		embedder: r.embedder,
		llm:      r.llm,
		store:    store,
		topK:     r.topK,
		chunks:   len(chunks),
	}, nil
}

type vectorIndex struct {
	embedder ports.EmbeddingService
	llm      ports.LLMService
	store    ports.VectorStore
	topK     int
	chunks   int
}

// Query retrieves the closest chunks and answers from them, streamed or whole.
func (ix *vectorIndex) Query(ctx context.Context, question string, stream bool) (*ports.Answer, error) {
	// 1. Embed the query
	queryEmbedding, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// 2. Search vector store
	results, err := ix.store.Search(ctx, queryEmbedding, ix.topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	nodes := make([]entities.SourceNode, len(results))
	for i, res := range results {
		nodes[i] = entities.SourceNode{
			Text:      res.Chunk.Content,
			PageLabel: res.Chunk.PageLabel,
			Score:     res.Score,
		}
	}

	// 3. Generate the completion
	prompt := buildPrompt(question, nodes)
	if !stream {
		text, err := ix.llm.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("generating response: %w", err)
		}
		return &ports.Answer{Text: text, SourceNodes: nodes}, nil
	}
	ch, err := ix.llm.GenerateStream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}
	return &ports.Answer{Stream: ch, SourceNodes: nodes}, nil
}

func (ix *vectorIndex) Chunks() int { return ix.chunks }

func (ix *vectorIndex) Close() error { return ix.store.Close() }

// buildPrompt creates the LLM prompt with page-labeled context.
func buildPrompt(query string, nodes []entities.SourceNode) string {
	var sb strings.Builder
	sb.WriteString("Context information is below.\n")
	sb.WriteString("---------------------\n")
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		label := n.PageLabel
		if label == "" {
			label = UnknownPage
		}
		sb.WriteString("page_label: ")
		sb.WriteString(label)
		sb.WriteString("\n\n")
		sb.WriteString(n.Text)
	}
	sb.WriteString("\n---------------------\n")
	sb.WriteString("Given the context information and not prior knowledge, answer the query.\n")
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\nAnswer: ")
	return sb.String()
}
