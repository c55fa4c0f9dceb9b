package ytca

import (
	"github.com/adosib/youtube-content-analysis/collector"
	"github.com/adosib/youtube-content-analysis/storage"
	"github.com/adosib/youtube-content-analysis/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytca.ErrQuotaExceeded) {
//		fmt.Println("quota exhausted")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var apiErr *ytca.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s on %s failed: %v\n", apiErr.Op, apiErr.Resource, apiErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// APIError wraps YouTube Data API failures with call context.
	APIError = youtube.APIError
	// StorageError wraps errors during record store operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrQuotaExceeded indicates the API rejected a call with a
	// quota/forbidden-class failure; remaining work was abandoned.
	ErrQuotaExceeded = collector.ErrQuotaExceeded
	// ErrPagingUnavailable indicates no further result pages could be
	// derived; treated as end-of-stream during collection.
	ErrPagingUnavailable = collector.ErrPagingUnavailable

	// Storage errors
	// ErrNotFound indicates a record was not found in the store.
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidInput indicates invalid input was provided to the store.
	ErrInvalidInput = storage.ErrInvalidInput
	// ErrStorageCorrupt indicates a stored record could not be decoded.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
)

// IsQuota reports whether err is a quota/forbidden-class API failure.
func IsQuota(err error) bool {
	return youtube.IsQuota(err)
}
