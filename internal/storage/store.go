// Package storage defines the key/value store the persisted record lives in.
package storage

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store is a flat key/value store of opaque byte records.
type Store interface {
	// Write stores data under key, replacing any previous value.
	Write(ctx context.Context, key string, data []byte) error
	// Read returns the value under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
