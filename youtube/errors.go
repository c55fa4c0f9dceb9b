package youtube

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"

	"github.com/adosib/youtube-content-analysis/collector"
)

// APIError wraps YouTube Data API failures with call context.
// Use errors.As() to extract this error type and get operation details:
//
//	var apiErr *youtube.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s on %s failed: %v\n", apiErr.Op, apiErr.Resource, apiErr.Err)
//	}
type APIError struct {
	// Op is the API operation ("search", "channels.list", "videos.list").
	Op string
	// Resource identifies what was being fetched (channel id, id count).
	Resource string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	return fmt.Sprintf("youtube: %s %s: %v", e.Op, e.Resource, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *APIError) Unwrap() error { return e.Err }

// IsQuota reports whether err is a quota/forbidden-class API failure.
// The Data API signals quota exhaustion as HTTP 403; further calls within
// the same run will fail the same way, so callers abandon remaining work.
func IsQuota(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == 403
}

// wrapErr builds the APIError for a failed call, marking quota-class
// failures so they match collector.ErrQuotaExceeded via errors.Is.
func wrapErr(op, resource string, err error) error {
	if IsQuota(err) {
		return &APIError{Op: op, Resource: resource, Err: fmt.Errorf("%w: %v", collector.ErrQuotaExceeded, err)}
	}
	return &APIError{Op: op, Resource: resource, Err: err}
}
