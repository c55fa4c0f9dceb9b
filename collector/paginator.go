package collector

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Paginator drives a search query to completion, accumulating all pages
// into one unified result that preserves the first page's envelope.
type Paginator struct {
	api         VideoAPI
	maxPageSize int
	logger      zerolog.Logger
}

// NewPaginator creates a paginator. maxPageSize is the remote API's stated
// maximum page size: a page with fewer items is the authoritative
// end-of-stream signal, so no trailing request is wasted on it.
func NewPaginator(api VideoAPI, maxPageSize int, logger zerolog.Logger) *Paginator {
	return &Paginator{
		api:         api,
		maxPageSize: maxPageSize,
		logger:      logger,
	}
}

// Drain pages through the result stream started by first, requesting each
// following page with the previous page's continuation token, and returns
// all items accumulated in page order under the first page's envelope.
//
// Pagination stops when the current page's item list is empty, when the page
// is short of the maximum page size, when no continuation token is present,
// or when the next-page request reports ErrPagingUnavailable. The remote API
// is ambiguous between "no more pages" and "next page unsupported", so
// paging-unavailable is conservatively treated as end-of-stream and the
// accumulated result is returned without error. Any other next-page failure
// returns the accumulated partial result alongside the error.
func (p *Paginator) Drain(ctx context.Context, q Query, first *SearchPage) (*SearchPage, error) {
	out := &SearchPage{
		Kind:  first.Kind,
		Items: append([]SearchItem(nil), first.Items...),
	}

	page := first
	for {
		if len(page.Items) == 0 {
			break
		}
		if p.maxPageSize > 0 && len(page.Items) < p.maxPageSize {
			// Short page: stream is exhausted.
			break
		}
		if page.NextPageToken == "" {
			break
		}

		next, err := p.api.NextSearchPage(ctx, q, page.NextPageToken)
		if err != nil {
			if errors.Is(err, ErrPagingUnavailable) {
				p.logger.Debug().
					Str("channel_id", q.ChannelID).
					Int("items", len(out.Items)).
					Msg("pagination ended: no further pages derivable")
				break
			}
			p.logger.Warn().
				Err(err).
				Str("channel_id", q.ChannelID).
				Int("items", len(out.Items)).
				Msg("pagination aborted, returning partial result")
			return out, err
		}

		out.Items = append(out.Items, next.Items...)
		page = next
	}

	return out, nil
}
