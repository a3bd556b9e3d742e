package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"invoicevault/internal/port"
)

// FSCache stores documents as files named by their key under a directory.
// Writes go to a temp file first and are renamed into place, so a reader
// never sees a partial document.
type FSCache struct {
	dir string
}

var _ port.DocumentCache = (*FSCache)(nil)

// NewFSCache creates the cache directory if needed.
func NewFSCache(dir string) (*FSCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FSCache{dir: dir}, nil
}

func (c *FSCache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

// Get reads a cached document.
func (c *FSCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return data, true, nil
}

// Put writes a document atomically.
func (c *FSCache) Put(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("publishing cache entry: %w", err)
	}
	return nil
}
