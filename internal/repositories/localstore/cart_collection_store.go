// Package localstore persists the shopper's cart collection on the local
// device: one JSON blob under one fixed path, read once at startup and
// rewritten on every mutation.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/matjar-app/api/internal/domain"
)

const blobFileMode = 0o600

// FileCartStore stores the cart collection as a single JSON file.
type FileCartStore struct {
	path string
}

// NewFileCartStore constructs a store writing to the given path.
func NewFileCartStore(path string) (*FileCartStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("localstore: path is required")
	}
	return &FileCartStore{path: trimmed}, nil
}

// Load reads the persisted collection. A missing file yields an empty
// collection, not an error.
func (s *FileCartStore) Load(ctx context.Context) (domain.CartCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CartCollection{}, nil
		}
		return nil, fmt.Errorf("localstore: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return domain.CartCollection{}, nil
	}

	var collection domain.CartCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("localstore: decode %s: %w", s.path, err)
	}
	if collection == nil {
		collection = domain.CartCollection{}
	}
	return collection, nil
}

// Save atomically replaces the persisted blob with the given collection.
func (s *FileCartStore) Save(ctx context.Context, collection domain.CartCollection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == nil {
		collection = domain.CartCollection{}
	}

	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("localstore: encode collection: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("localstore: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".carts-*")
	if err != nil {
		return fmt.Errorf("localstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: write temp file: %w", err)
	}
	if err := tmp.Chmod(blobFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("localstore: replace %s: %w", s.path, err)
	}
	return nil
}

// MemoryCartStore is an in-memory CartCollectionStorage used in tests and
// ephemeral sessions.
type MemoryCartStore struct {
	collection domain.CartCollection
	saves      int
}

// NewMemoryCartStore constructs an empty in-memory store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{collection: domain.CartCollection{}}
}

// Load returns a deep copy of the held collection.
func (s *MemoryCartStore) Load(ctx context.Context) (domain.CartCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.collection.Clone(), nil
}

// Save replaces the held collection with a deep copy of the argument.
func (s *MemoryCartStore) Save(ctx context.Context, collection domain.CartCollection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.collection = collection.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been invoked.
func (s *MemoryCartStore) Saves() int { return s.saves }

// Snapshot exposes a copy of the current collection for assertions.
func (s *MemoryCartStore) Snapshot() domain.CartCollection { return s.collection.Clone() }
