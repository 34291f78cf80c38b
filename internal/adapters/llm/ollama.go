// Package llm provides completion adapters implementing ports.LLMService.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// OllamaLLMAdapter implements ports.LLMService using Ollama API.
type OllamaLLMAdapter struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	log         *logger.Logger
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(baseURL, model string, temperature float64, log *logger.Logger) *OllamaLLMAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OllamaLLMAdapter{
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		client: &http.Client{
			Timeout: 300 * time.Second, // Longer timeout for streaming
		},
		log: log,
	}
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// ollamaGenerateResponse is the Ollama generate API response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (a *OllamaLLMAdapter) post(ctx context.Context, prompt string, stream bool) (*http.Response, error) {
	jsonData, err := json.Marshal(ollamaGenerateRequest{
		Model:   a.model,
		Prompt:  prompt,
		Stream:  stream,
		Options: map[string]any{"temperature": a.temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errs.Provider("calling Ollama", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errs.Provider("ollama generate", fmt.Errorf("status %d", resp.StatusCode))
	}
	return resp, nil
}

// Generate produces a complete response for the prompt.
func (a *OllamaLLMAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", errs.Provider("decoding response", err)
	}
	if genResp.Error != "" {
		return "", errs.Provider("ollama generate", errors.New(genResp.Error))
	}
	return genResp.Response, nil
}

// GenerateStream streams newline-delimited JSON chunks from Ollama.
func (a *OllamaLLMAdapter) GenerateStream(ctx context.Context, prompt string) (<-chan ports.StreamToken, error) {
	resp, err := a.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if ctx.Err() != nil {
				send(ctx, ch, ports.StreamToken{Done: true, Error: ctx.Err()})
				return
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaGenerateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				a.log.Debug("skipping malformed stream line", "error", err)
				continue
			}
			if chunk.Error != "" {
				send(ctx, ch, ports.StreamToken{Done: true, Error: errs.Provider("ollama stream", errors.New(chunk.Error))})
				return
			}

			if !send(ctx, ch, ports.StreamToken{Content: chunk.Response, Done: chunk.Done}) || chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(ctx, ch, ports.StreamToken{Done: true, Error: errs.Provider("reading stream", err)})
			return
		}
		// the server closed the body without a done marker
		send(ctx, ch, ports.StreamToken{Done: true})
	}()

	return ch, nil
}

// send delivers tok unless ctx is cancelled first.
func send(ctx context.Context, ch chan<- ports.StreamToken, tok ports.StreamToken) bool {
	select {
	case ch <- tok:
		return true
	case <-ctx.Done():
		return false
	}
}
