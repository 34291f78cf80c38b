// Package storage stages uploaded bytes and derived text in temporary files.
// Adapter implementing ports.Storage.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/0xcro3dile/docqa-go/internal/logger"
	"github.com/0xcro3dile/docqa-go/internal/metrics"
)

const (
	uploadPattern = "docqa-upload-*"
	textPattern   = "docqa-text-*.txt"
)

// TempStore creates uniquely named files under dir and tracks them until released.
type TempStore struct {
	dir string
	log *logger.Logger

	mu     sync.Mutex
	staged map[string]struct{}
}

// NewTempStore creates a store rooted at dir. An empty dir uses os.TempDir().
func NewTempStore(dir string, log *logger.Logger) *TempStore {
	if log == nil {
		log = logger.Nop()
	}
	return &TempStore{
		dir:    dir,
		log:    log,
		staged: make(map[string]struct{}),
	}
}

// Stage writes data to a new temporary file and returns its path.
func (s *TempStore) Stage(data []byte) (string, error) {
	return s.write(uploadPattern, data)
}

// StageText writes derived text to a new .txt file and returns its path.
func (s *TempStore) StageText(text string) (string, error) {
	return s.write(textPattern, []byte(text))
}

func (s *TempStore) write(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		if werr != nil {
			return "", fmt.Errorf("writing temp file: %w", werr)
		}
		return "", fmt.Errorf("closing temp file: %w", cerr)
	}

	s.mu.Lock()
	s.staged[path] = struct{}{}
	n := len(s.staged)
	s.mu.Unlock()
	metrics.SetStagedFiles(n)

	s.log.Debug("staged file", "path", path, "bytes", len(data))
	return path, nil
}

// Release deletes a staged file. A file that is already gone is logged and ignored.
func (s *TempStore) Release(path string) {
	if err := s.remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("staged file already removed", "path", path)
			return
		}
		s.log.Error("failed to release staged file", "path", path, "error", err)
	}
}

func (s *TempStore) remove(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		delete(s.staged, path)
		n := len(s.staged)
		s.mu.Unlock()
		metrics.SetStagedFiles(n)
	}
	if err == nil {
		s.log.Debug("released file", "path", path)
	}
	return err
}

// Outstanding lists staged paths that have not been released, sorted.
func (s *TempStore) Outstanding() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.staged))
	for p := range s.staged {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ReleaseAll removes every outstanding file and reports the failures together.
// Files already gone are not failures.
func (s *TempStore) ReleaseAll() error {
	var result *multierror.Error
	for _, path := range s.Outstanding() {
		if err := s.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, fmt.Errorf("releasing %s: %w", path, err))
		}
	}
	return result.ErrorOrNil()
}
