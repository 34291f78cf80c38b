// Package config loads docqa settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a setting Validate rejects.
var ErrInvalid = errors.New("invalid config")

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	VectorDB  VectorDBConfig  `yaml:"vectordb"`
	Extract   ExtractConfig   `yaml:"extract"`
	Storage   StorageConfig   `yaml:"storage"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig configures the HTTP UI.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
	AllowOrigins   []string      `yaml:"allow_origins,omitempty"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // dev, prod
}

// LLMConfig configures the completion model.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, ollama
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // openai, ollama
	APIKey      string `yaml:"api_key,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	Parallelism int    `yaml:"parallelism"`
}

// RAGConfig controls chunking and retrieval.
type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
	Tokenizer    string `yaml:"tokenizer"` // tiktoken encoding name, or "whitespace"
}

type VectorDBConfig struct {
	Provider string `yaml:"provider"` // memory, sqlite
}

// ExtractConfig controls text extraction.
type ExtractConfig struct {
	PDFServiceURL  string `yaml:"pdf_service_url,omitempty"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type StorageConfig struct {
	TempDir string `yaml:"temp_dir,omitempty"`
}

type WatchConfig struct {
	Dir      string        `yaml:"dir,omitempty"`
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			SessionIdleTTL: 2 * time.Hour,
		},
		Log: LogConfig{Mode: "dev"},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4",
			Temperature: 0,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-ada-002",
			BatchSize:   64,
			Parallelism: 4,
		},
		RAG: RAGConfig{
			ChunkSize:    1024,
			ChunkOverlap: 200,
			TopK:         3,
			Tokenizer:    "cl100k_base",
		},
		VectorDB: VectorDBConfig{Provider: "memory"},
		Extract:  ExtractConfig{MaxUploadBytes: 50 << 20},
		Watch:    WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv("OPENAI_API_KEY")); v != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}
	if v := strings.TrimSpace(getenv("OPENAI_BASE_URL")); v != "" {
		if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "openai" {
			cfg.LLM.BaseURL = v
		}
		if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == "openai" {
			cfg.Embedding.BaseURL = v
		}
	}
	if v := strings.TrimSpace(getenv("DOCQA_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(getenv("DOCQA_LOG_MODE")); v != "" {
		cfg.Log.Mode = v
	}
	if v := strings.TrimSpace(getenv("DOCQA_LLM_MODEL")); v != "" {
		cfg.LLM.Model = v
	}
	if v := strings.TrimSpace(getenv("DOCQA_TOP_K")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RAG.TopK = n
		}
	}
	if v := strings.TrimSpace(getenv("DOCQA_TEMP_DIR")); v != "" {
		cfg.Storage.TempDir = v
	}
}

// Validate rejects settings the application cannot run with. Every problem
// is reported as its own error wrapping ErrInvalid.
func (c Config) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		invalid("llm.provider %q must be openai or ollama", c.LLM.Provider)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama":
	default:
		invalid("embedding.provider %q must be openai or ollama", c.Embedding.Provider)
	}
	switch c.VectorDB.Provider {
	case "memory", "sqlite":
	default:
		invalid("vectordb.provider %q must be memory or sqlite", c.VectorDB.Provider)
	}
	if c.RAG.ChunkSize <= 0 {
		invalid("rag.chunk_size must be positive")
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		invalid("rag.chunk_overlap must be in [0, chunk_size)")
	}
	if c.RAG.TopK <= 0 {
		invalid("rag.top_k must be positive")
	}
	if c.Extract.MaxUploadBytes <= 0 {
		invalid("extract.max_upload_bytes must be positive")
	}
	return result.ErrorOrNil()
}
