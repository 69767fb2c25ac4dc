// Package file implements storage.Store as one file per key in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/sweeney/drive-timer/internal/storage"
)

// Store implements the storage.Store interface on the filesystem.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Write replaces the file for key atomically.
func (s *Store) Write(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Read returns the contents of the file for key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
