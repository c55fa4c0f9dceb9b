// Package storage provides durable, id-keyed storage of collected records.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates a stored record could not be decoded.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
)

// StorageError wraps storage errors with operation and record context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s/%s: %v\n", storErr.Op, storErr.Collection, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "list", "exists").
	Op string
	// Collection is the record namespace ("channels", "video_search", ...).
	Collection string
	// ID is the record ID if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Collection, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// RecordStore is durable, id-keyed storage of JSON-serializable records,
// grouped into named collections. Records are immutable once written: a
// record's presence is the signal that its resource has been collected, so
// every collection stage filters its candidate ids through FilterUncollected
// before issuing remote requests. Implementations must be safe for
// concurrent use and must never expose a partially-written record.
type RecordStore interface {
	// Exists reports whether a record with the given id is present.
	Exists(ctx context.Context, collection, id string) (bool, error)
	// Get decodes the record with the given id into dst.
	// Returns a StorageError wrapping ErrNotFound if absent.
	Get(ctx context.Context, collection, id string, dst any) error
	// Put durably writes the record under the given id, atomically
	// replacing any previous record with that id.
	Put(ctx context.Context, collection, id string, record any) error
	// ListIDs returns the ids of all records currently in the collection.
	ListIDs(ctx context.Context, collection string) ([]string, error)
	// FilterUncollected returns the subset of ids, in input order, that
	// have no record in the collection yet.
	FilterUncollected(ctx context.Context, collection string, ids []string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
