package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore implements RecordStore with one JSON document per record:
// <dir>/<collection>/<id>.json. The existence of the file is the sole
// idempotency signal; no separate index or manifest is maintained, which
// keeps the store crash-only: a record either exists completely or not at
// all, and reruns pick up exactly where the last run stopped.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed record store rooted at dir.
// The directory is created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, &StorageError{Op: "open", Collection: "", Err: ErrInvalidInput}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "open", Collection: dir, Err: err}
	}
	return &FileStore{dir: dir}, nil
}

// recordPath builds the on-disk path for a record, rejecting ids or
// collection names that would escape the store directory.
func (s *FileStore) recordPath(collection, id string) (string, error) {
	if collection == "" || id == "" {
		return "", ErrInvalidInput
	}
	if strings.ContainsAny(collection, `/\`) || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", ErrInvalidInput
	}
	return filepath.Join(s.dir, collection, id+".json"), nil
}

// Exists reports whether a record file is present for the given id.
func (s *FileStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	path, err := s.recordPath(collection, id)
	if err != nil {
		return false, &StorageError{Op: "exists", Collection: collection, ID: id, Err: err}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &StorageError{Op: "exists", Collection: collection, ID: id, Err: err}
	}
	return true, nil
}

// Get reads and decodes the record with the given id into dst.
func (s *FileStore) Get(ctx context.Context, collection, id string, dst any) error {
	path, err := s.recordPath(collection, id)
	if err != nil {
		return &StorageError{Op: "read", Collection: collection, ID: id, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &StorageError{Op: "read", Collection: collection, ID: id, Err: ErrNotFound}
		}
		return &StorageError{Op: "read", Collection: collection, ID: id, Err: err}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &StorageError{Op: "read", Collection: collection, ID: id, Err: ErrStorageCorrupt}
	}
	return nil
}

// Put encodes the record and writes it atomically. A reader never observes
// a partially-written file: the write goes to a temp file in the same
// directory and is renamed over the target on commit.
func (s *FileStore) Put(ctx context.Context, collection, id string, record any) error {
	path, err := s.recordPath(collection, id)
	if err != nil {
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: err}
	}

	writer, err := NewAtomicWriter(path)
	if err != nil {
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Collection: collection, ID: id, Err: err}
	}

	return nil
}

// ListIDs returns the ids of all records in the collection, sorted for
// deterministic iteration. A collection that was never written to is empty,
// not an error.
func (s *FileStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\`) {
		return nil, &StorageError{Op: "list", Collection: collection, Err: ErrInvalidInput}
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &StorageError{Op: "list", Collection: collection, Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// FilterUncollected returns the ids that have no record yet, preserving the
// input order.
func (s *FileStore) FilterUncollected(ctx context.Context, collection string, ids []string) ([]string, error) {
	uncollected := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.Exists(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			uncollected = append(uncollected, id)
		}
	}
	return uncollected, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
