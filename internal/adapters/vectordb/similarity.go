// Package vectordb provides vector store adapters implementing ports.VectorStore.
// Each store holds the chunks of one index and lives only as long as that index.
package vectordb

import (
	"fmt"
	"math"
	"sort"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// New returns the store named by provider: "memory" or "sqlite".
func New(provider string) (ports.VectorStore, error) {
	switch provider {
	case "", "memory":
		return NewInMemoryStore(), nil
	case "sqlite":
		return NewInMemorySQLiteStore()
	default:
		return nil, fmt.Errorf("unknown vector store %q", provider)
	}
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankTopK scores chunks against the query and keeps the best topK.
// Ties keep document order.
func rankTopK(query []float32, chunks []entities.Chunk, topK int) []entities.QueryResult {
	results := make([]entities.QueryResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, entities.QueryResult{
			Chunk: chunk,
			Score: cosineSimilarity(query, chunk.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
