// Package bolt implements storage.Store on a single bbolt bucket.
package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sweeney/drive-timer/internal/storage"
)

const bucketState = "state"

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store, creating the file and its directory.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketState)); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketState, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

// Write stores data under key.
func (s *Store) Write(_ context.Context, key string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketState)).Put([]byte(key), data)
	})
}

// Read returns a copy of the value under key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketState)).Get([]byte(key))
		if v == nil {
			return storage.ErrNotFound
		}
		// bolt values are only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}
