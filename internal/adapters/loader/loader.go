// Package loader reads derived text back from staged files.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// TextLoader loads plain text documents. It implements ports.DocumentLoader.
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path. The document ID is derived
// from the content, since staged file names are random.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &entities.Document{
		ID:        generateDocID(content),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   string(content),
		CreatedAt: info.ModTime(),
		UpdatedAt: time.Now(),
	}, nil
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:8])
}
