// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/session"
	"github.com/0xcro3dile/docqa-go/internal/logger"
	"github.com/0xcro3dile/docqa-go/internal/metrics"
)

// IngestUseCase runs the upload pass: stage, extract, stage derived text,
// load it back and build the session's index.
type IngestUseCase struct {
	extractor ports.DocumentExtractor
	storage   ports.Storage
	loader    ports.DocumentLoader
	indexers  ports.IndexerFactory
	log       *logger.Logger
	now       func() time.Time
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	extractor ports.DocumentExtractor,
	storage ports.Storage,
	loader ports.DocumentLoader,
	indexers ports.IndexerFactory,
	log *logger.Logger,
) *IngestUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &IngestUseCase{
		extractor: extractor,
		storage:   storage,
		loader:    loader,
		indexers:  indexers,
		log:       log,
		now:       time.Now,
	}
}

// Process indexes an uploaded file and makes it the session's active
// document. Every file staged during the pass is released before return.
func (uc *IngestUseCase) Process(ctx context.Context, sess *session.Session, filename string, data []byte) (entities.DocumentInfo, error) {
	end, err := sess.Begin(ctx)
	if err != nil {
		return entities.DocumentInfo{}, err
	}
	defer end()

	log := uc.log.With("session", sess.ID, "file", filepath.Base(filename))
	info, err := uc.process(ctx, sess, filename, data)
	if err != nil {
		log.Warn("document rejected", "kind", errs.Kind(err), "error", err)
		return entities.DocumentInfo{}, err
	}
	log.Info("document indexed", "format", info.Format, "pages", info.Pages, "chunks", info.Chunks)
	return info, nil
}

// ProcessFile reads path and processes it like an upload of that file.
func (uc *IngestUseCase) ProcessFile(ctx context.Context, sess *session.Session, path string) (entities.DocumentInfo, error) {
	if _, err := entities.FormatFromFilename(path); err != nil {
		return entities.DocumentInfo{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.DocumentInfo{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return uc.Process(ctx, sess, filepath.Base(path), data)
}

func (uc *IngestUseCase) process(ctx context.Context, sess *session.Session, filename string, data []byte) (entities.DocumentInfo, error) {
	format, err := entities.FormatFromFilename(filename)
	if err != nil {
		return entities.DocumentInfo{}, err
	}

	// A missing credential aborts before anything is staged.
	indexer, err := uc.indexers(sess.APIKey())
	if err != nil {
		return entities.DocumentInfo{}, err
	}

	extracted, err := uc.extract(ctx, format, data)
	if err != nil {
		return entities.DocumentInfo{}, err
	}

	textPath, err := uc.storage.StageText(extracted.FullText)
	if err != nil {
		return entities.DocumentInfo{}, fmt.Errorf("staging text: %w", err)
	}
	defer uc.storage.Release(textPath)

	doc, err := uc.loader.Load(ctx, textPath)
	if err != nil {
		return entities.DocumentInfo{}, fmt.Errorf("loading text: %w", err)
	}
	doc.Name = filename
	doc.Pages = extracted.Segments

	idx, err := indexer.BuildIndex(ctx, doc)
	metrics.ObserveIndexBuild(errs.Kind(err))
	if err != nil {
		if errors.Is(err, errs.ErrProvider) {
			metrics.ObserveProviderError("index")
		}
		return entities.DocumentInfo{}, err
	}

	info := entities.DocumentInfo{
		Name:     filename,
		Format:   format,
		Pages:    extracted.PageCount(),
		Chars:    len([]rune(extracted.FullText)),
		Chunks:   idx.Chunks(),
		LoadedAt: uc.now(),
	}
	if err := sess.SetIndex(idx, info); err != nil {
		uc.log.Warn("closing previous index", "session", sess.ID, "error", err)
	}
	return info, nil
}

// Extract stages data, extracts it as the format named by filename and
// releases the staged file. It does not touch any session.
func (uc *IngestUseCase) Extract(ctx context.Context, filename string, data []byte) (*entities.ExtractedDocument, error) {
	format, err := entities.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	return uc.extract(ctx, format, data)
}

func (uc *IngestUseCase) extract(ctx context.Context, format entities.Format, data []byte) (*entities.ExtractedDocument, error) {
	path, err := uc.storage.Stage(data)
	if err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	defer uc.storage.Release(path)

	return uc.extractor.Extract(ctx, path, format)
}
