package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// OpenAIEmbedder implements ports.EmbeddingService against an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client      openai.Client
	model       string
	batchSize   int
	parallelism int
	log         *logger.Logger
}

// NewOpenAIEmbedder creates an embedder. Texts are sent batchSize at a time,
// with at most parallelism requests in flight.
func NewOpenAIEmbedder(client openai.Client, model string, batchSize, parallelism int, log *logger.Logger) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbeddingAda002)
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAIEmbedder{
		client:      client,
		model:       model,
		batchSize:   batchSize,
		parallelism: parallelism,
		log:         log,
	}
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		g.Go(func() error {
			return e.embedRange(gctx, texts[start:end], out[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedRange(ctx context.Context, batch []string, dst [][]float32) error {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
	})
	if err != nil {
		return errs.Provider("openai embeddings", err)
	}
	if len(resp.Data) != len(batch) {
		return errs.Provider("openai embeddings", fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(batch)))
	}
	for pos, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(dst) {
			i = pos
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		dst[i] = vec
	}
	e.log.Debug("openai embeddings", "model", e.model, "inputs", len(batch))
	return nil
}
