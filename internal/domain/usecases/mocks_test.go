package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	batches int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batches++
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// keywordEmbedding counts occurrences of each vocabulary word, so texts that
// share words with the question score higher.
func keywordEmbedding(vocab ...string) func(string) ([]float32, error) {
	return func(text string) ([]float32, error) {
		v := make([]float32, len(vocab)+1)
		v[len(vocab)] = 0.01
		for _, w := range strings.Fields(strings.ToLower(text)) {
			w = strings.Trim(w, "?.,!")
			for i, k := range vocab {
				if w == k {
					v[i]++
				}
			}
		}
		return v, nil
	}
}

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	chunks  []entities.Chunk
	storeFn func(chunks []entities.Chunk) error
	closed  bool
	lastK   int
	lost    int // chunks Len leaves uncounted
}

func (m *mockVectorStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	if m.storeFn != nil {
		return m.storeFn(chunks)
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, emb []float32, topK int) ([]entities.QueryResult, error) {
	m.lastK = topK
	var results []entities.QueryResult
	for i, c := range m.chunks {
		if i >= topK {
			break
		}
		results = append(results, entities.QueryResult{Chunk: c, Score: 0.9})
	}
	return results, nil
}

func (m *mockVectorStore) Len(ctx context.Context) (int, error) {
	return len(m.chunks) - m.lost, nil
}

func (m *mockVectorStore) Close() error {
	m.closed = true
	return nil
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	deltas    []string
	streamErr error
	prompts   []string
	generated int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.generated++
	if m.streamErr != nil {
		return "", m.streamErr
	}
	return strings.Join(m.deltas, ""), nil
}

func (m *mockLLM) GenerateStream(ctx context.Context, prompt string) (<-chan ports.StreamToken, error) {
	m.prompts = append(m.prompts, prompt)
	ch := make(chan ports.StreamToken, len(m.deltas)+1)
	go func() {
		defer close(ch)
		for _, d := range m.deltas {
			ch <- ports.StreamToken{Content: d}
		}
		if m.streamErr != nil {
			ch <- ports.StreamToken{Done: true, Error: m.streamErr}
			return
		}
		ch <- ports.StreamToken{Done: true}
	}()
	return ch, nil
}

// stubPages implements ports.PageParser with fixed page texts.
type stubPages []string

func (s stubPages) ParsePages(ctx context.Context, data []byte) ([]string, error) {
	return s, nil
}

// stubIndex implements ports.Index over a canned answer.
type stubIndex struct {
	answer   *ports.Answer
	err      error
	closed   bool
	streamed []bool
}

func (s *stubIndex) Query(ctx context.Context, question string, stream bool) (*ports.Answer, error) {
	s.streamed = append(s.streamed, stream)
	return s.answer, s.err
}

func (s *stubIndex) Chunks() int { return 1 }

func (s *stubIndex) Close() error {
	s.closed = true
	return nil
}

func tokens(deltas ...string) <-chan ports.StreamToken {
	ch := make(chan ports.StreamToken, len(deltas)+1)
	for _, d := range deltas {
		ch <- ports.StreamToken{Content: d}
	}
	ch <- ports.StreamToken{Done: true}
	close(ch)
	return ch
}

// providerErrorCount reads docqa_provider_errors_total{operation} from the
// default registry.
func providerErrorCount(t *testing.T, operation string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "docqa_provider_errors_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" && l.GetValue() == operation {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
