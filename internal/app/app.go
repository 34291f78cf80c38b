// Package app wires configuration, adapters and use cases into a runnable
// application shared by every entry point.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/0xcro3dile/docqa-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/docqa-go/internal/adapters/loader"
	"github.com/0xcro3dile/docqa-go/internal/adapters/parser"
	"github.com/0xcro3dile/docqa-go/internal/adapters/provider"
	"github.com/0xcro3dile/docqa-go/internal/adapters/storage"
	"github.com/0xcro3dile/docqa-go/internal/adapters/tokenizer"
	"github.com/0xcro3dile/docqa-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/session"
	"github.com/0xcro3dile/docqa-go/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/docqa-go/internal/infrastructure/http"
	"github.com/0xcro3dile/docqa-go/internal/infrastructure/repl"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

type App struct {
	Cfg       config.Config
	Log       *logger.Logger
	Storage   *storage.TempStore
	Sessions  *session.Registry
	Extractor *parser.Extractor
	Ingest    *usecases.IngestUseCase
	Query     *usecases.QueryUseCase

	counter ports.TokenCounter
}

// New builds the application. Provider clients are created per session,
// once a credential is known.
func New(cfg config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	a := &App{
		Cfg:      cfg,
		Log:      log,
		Storage:  storage.NewTempStore(cfg.Storage.TempDir, log.With("component", "storage")),
		Sessions: session.NewRegistry(log.With("component", "sessions")),
		counter:  tokenizer.New(cfg.RAG.Tokenizer, log),
	}

	var pdf ports.PageParser
	if cfg.Extract.PDFServiceURL != "" {
		remote := parser.NewRemotePDFParser(cfg.Extract.PDFServiceURL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		healthy := remote.IsServiceHealthy(ctx)
		cancel()
		if !healthy {
			log.Warn("pdf service is not healthy, requests may fail", "url", cfg.Extract.PDFServiceURL)
		}
		pdf = remote
	}
	a.Extractor = parser.NewExtractor(pdf, log.With("component", "extractor"))

	a.Ingest = usecases.NewIngestUseCase(a.Extractor, a.Storage, loader.NewTextLoader(),
		a.IndexerFactory(), log.With("component", "ingest"))
	a.Query = usecases.NewQueryUseCase(log.With("component", "query"))
	return a, nil
}

// IndexerFactory binds the configured providers to a session credential.
func (a *App) IndexerFactory() ports.IndexerFactory {
	return func(apiKey string) (ports.Indexer, error) {
		services, err := provider.New(a.Cfg, apiKey, a.Log)
		if err != nil {
			return nil, err
		}
		newStore := func() (ports.VectorStore, error) {
			return vectordb.New(a.Cfg.VectorDB.Provider)
		}
		chunker := usecases.NewChunker(a.counter, a.Cfg.RAG.ChunkSize, a.Cfg.RAG.ChunkOverlap)
		return usecases.NewRetrievalIndexer(services.Embedder, services.LLM, newStore, chunker,
			a.Cfg.RAG.TopK, a.Log.With("component", "retrieval")), nil
	}
}

// NewSession starts a session. An empty apiKey leaves the configured key
// in effect.
func (a *App) NewSession(apiKey string) *session.Session {
	sess := a.Sessions.Create()
	sess.SetAPIKey(apiKey)
	return sess
}

// Server builds the HTTP UI.
func (a *App) Server() *httpserver.Server {
	return httpserver.NewServer(a.Ingest, a.Query, a.Sessions, a.Cfg.Server,
		a.Cfg.Extract.MaxUploadBytes, a.Log.With("component", "http"))
}

// REPL builds a terminal chat over sess.
func (a *App) REPL(sess *session.Session, in io.Reader, out io.Writer) *repl.REPL {
	return repl.New(a.Ingest, a.Query, sess, in, out, a.Log.With("component", "repl"))
}

// Watch reports document files created or modified in dir. The returned
// stop function releases the watcher.
func (a *App) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, func() error, error) {
	w, err := filewatcher.NewFSNotifyWatcher(nil, a.Cfg.Watch.Debounce, a.Log.With("component", "watcher"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}
	events, err := w.Watch(ctx, dir)
	if err != nil {
		w.Stop()
		return nil, nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return events, w.Stop, nil
}

// Close releases every session and any file still staged.
func (a *App) Close() error {
	var result *multierror.Error
	a.Sessions.CloseAll()
	if err := a.Storage.ReleaseAll(); err != nil {
		result = multierror.Append(result, err)
	}
	a.Log.Sync()
	return result.ErrorOrNil()
}
