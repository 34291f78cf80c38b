package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

// fakeOllama serves the embedding and generate endpoints of an Ollama server.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			var req struct {
				Prompt string `json:"prompt"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			v := []float32{0.01, 0}
			if strings.Contains(strings.ToLower(req.Prompt), "world") || strings.Contains(req.Prompt, "2") {
				v[1] = 1
			}
			json.NewEncoder(w).Encode(map[string]any{"embedding": v})
		case "/api/generate":
			w.Write([]byte(`{"response":"World","done":false}` + "\n"))
			w.Write([]byte(`{"response":"","done":true}` + "\n"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func ollamaConfig(t *testing.T, url string) config.Config {
	cfg := config.Default()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = url
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.BaseURL = url
	cfg.RAG.Tokenizer = "whitespace"
	cfg.Storage.TempDir = t.TempDir()
	return cfg
}

func TestApp_EndToEndWithOllama(t *testing.T) {
	server := fakeOllama(t)
	defer server.Close()

	a, err := New(ollamaConfig(t, server.URL), nil)
	require.NoError(t, err)
	defer a.Close()

	sess := a.NewSession("")
	info, err := a.Ingest.Process(context.Background(), sess, "notes.txt", []byte("Hello\nWorld"))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Chunks)

	resp, err := a.Query.Ask(context.Background(), sess, "What is on page 2?", nil)
	require.NoError(t, err)
	assert.Equal(t, "World", resp.Answer)
	require.NotEmpty(t, resp.Citations)
	assert.Equal(t, "1", resp.Citations[0].PageLabel)
	assert.Empty(t, a.Storage.Outstanding())
}

func TestApp_OpenAIRequiresCredential(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.TempDir = t.TempDir()
	cfg.RAG.Tokenizer = "whitespace"

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Ingest.Process(context.Background(), a.NewSession(""), "notes.txt", []byte("text"))
	assert.ErrorIs(t, err, errs.ErrMissingCredential)
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.RAG.TopK = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestApp_ServerAndREPL(t *testing.T) {
	server := fakeOllama(t)
	defer server.Close()

	a, err := New(ollamaConfig(t, server.URL), nil)
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	doc := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Hello World"), 0o644))
	var out bytes.Buffer
	r := a.REPL(a.NewSession(""), strings.NewReader(":load "+doc+"\nwhat?\n"), &out)
	require.NoError(t, r.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "Loaded doc.txt")
	assert.Contains(t, out.String(), "World")
}

func TestApp_Watch(t *testing.T) {
	a, err := New(ollamaConfig(t, "http://127.0.0.1:1"), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, stop, err := a.Watch(ctx, t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, stop())

	_, _, err = a.Watch(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
