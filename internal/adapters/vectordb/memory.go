package vectordb

import (
	"context"
	"sync"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// InMemoryStore is a map-backed vector store with brute-force search.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]entities.Chunk // chunkID -> chunk
}

// NewInMemoryStore creates a new in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		chunks: make(map[string]entities.Chunk),
	}
}

// Store saves chunks with their embeddings. A chunk ID seen before is replaced.
func (s *InMemoryStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// Search finds the most similar chunks to a query embedding.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	all := make([]entities.Chunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		all = append(all, chunk)
	}
	s.mu.RUnlock()

	return rankTopK(embedding, all, topK), nil
}

// Len returns the number of stored chunks.
func (s *InMemoryStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close drops the stored chunks.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]entities.Chunk)
	return nil
}
