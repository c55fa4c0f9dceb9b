package collector

import (
	"context"
	"errors"
)

// Sentinel errors surfaced by VideoAPI implementations. The collectors key
// their failure containment off these two classes: quota failures abort all
// remaining remote work in the pass, paging-unavailable ends a page stream.
// Every other failure is transient and skips only the unit it occurred in.
var (
	// ErrQuotaExceeded indicates the remote API rejected the call with a
	// quota/forbidden-class failure. Further calls will also fail within
	// this run.
	ErrQuotaExceeded = errors.New("collector: api quota exceeded")
	// ErrPagingUnavailable indicates no further page can be derived from
	// the continuation token. Treated as end-of-stream, not an error.
	ErrPagingUnavailable = errors.New("collector: no further pages derivable")
)

// VideoAPI is the remote listing collaborator. Implementations are expected
// to honor context cancellation, apply their own timeouts and pacing, and
// wrap quota-class failures so they match ErrQuotaExceeded via errors.Is.
type VideoAPI interface {
	// SearchVideos issues a search query and returns its first page.
	SearchVideos(ctx context.Context, q Query) (*SearchPage, error)
	// NextSearchPage requests the page following the given continuation
	// token for the same query. Returns an error matching
	// ErrPagingUnavailable when no further page can be derived.
	NextSearchPage(ctx context.Context, q Query, pageToken string) (*SearchPage, error)
	// ListChannels fetches channel metadata for up to one batch of ids.
	ListChannels(ctx context.Context, ids []string) ([]ChannelRecord, error)
	// ListVideos fetches video details for up to one batch of ids.
	ListVideos(ctx context.Context, ids []string) ([]VideoDetailRecord, error)
}

// chunkIDs splits ids into consecutive groups of at most size elements.
// Every input id appears in exactly one chunk.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
