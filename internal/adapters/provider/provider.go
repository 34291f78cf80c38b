// Package provider builds the embedding and completion adapters named in config.
package provider

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/0xcro3dile/docqa-go/internal/adapters/embedding"
	"github.com/0xcro3dile/docqa-go/internal/adapters/llm"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// Services is the provider pair the retrieval delegate runs on.
type Services struct {
	Embedder ports.EmbeddingService
	LLM      ports.LLMService
}

// New builds both services. apiKey, when set, overrides the configured key
// for OpenAI; it is ignored by Ollama.
func New(cfg config.Config, apiKey string, log *logger.Logger) (*Services, error) {
	if log == nil {
		log = logger.Nop()
	}
	var s Services

	switch cfg.Embedding.Provider {
	case "openai":
		key := firstNonEmpty(apiKey, cfg.Embedding.APIKey)
		if key == "" {
			return nil, fmt.Errorf("embedding: %w", errs.ErrMissingCredential)
		}
		s.Embedder = embedding.NewOpenAIEmbedder(NewOpenAIClient(key, cfg.Embedding.BaseURL),
			cfg.Embedding.Model, cfg.Embedding.BatchSize, cfg.Embedding.Parallelism, log.With("component", "embedding"))
	case "ollama":
		s.Embedder = embedding.NewOllamaAdapter(cfg.Embedding.BaseURL, cfg.Embedding.Model,
			cfg.Embedding.Parallelism, log.With("component", "embedding"))
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	switch cfg.LLM.Provider {
	case "openai":
		key := firstNonEmpty(apiKey, cfg.LLM.APIKey)
		if key == "" {
			return nil, fmt.Errorf("llm: %w", errs.ErrMissingCredential)
		}
		s.LLM = llm.NewOpenAILLM(NewOpenAIClient(key, cfg.LLM.BaseURL),
			cfg.LLM.Model, cfg.LLM.Temperature, log.With("component", "llm"))
	case "ollama":
		s.LLM = llm.NewOllamaLLMAdapter(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature, log.With("component", "llm"))
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	return &s, nil
}

// NewOpenAIClient builds a client with retries disabled; failures surface
// to the user instead.
func NewOpenAIClient(apiKey, baseURL string) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

// NeedsCredential reports whether cfg uses a provider that requires an API key.
func NeedsCredential(cfg config.Config) bool {
	return cfg.LLM.Provider == "openai" || cfg.Embedding.Provider == "openai"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
