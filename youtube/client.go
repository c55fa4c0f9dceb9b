// Package youtube adapts the YouTube Data API v3 to the collector's remote
// listing interface.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/adosib/youtube-content-analysis/collector"
)

// Estimated quota units per API verb, for usage logging.
const (
	searchQuotaCost = 100
	listQuotaCost   = 1
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRequestsPerSec = 5.0
)

// Client implements collector.VideoAPI on the YouTube Data API v3.
// Calls are paced with a client-side rate limiter and bounded with a
// per-call timeout; the API enforces no timeout of its own.
type Client struct {
	service *youtube.Service
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger

	mu        sync.Mutex
	quotaUsed int
}

// ClientOptions configures the API client. Zero values fall back to the
// package defaults.
type ClientOptions struct {
	// RequestTimeout bounds each API call.
	RequestTimeout time.Duration
	// RequestsPerSecond paces outgoing calls.
	RequestsPerSecond float64
}

// NewClient creates an API client authenticated with the given key.
func NewClient(ctx context.Context, apiKey string, opts ClientOptions, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: api key required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSec
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}

	return &Client{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		timeout: opts.RequestTimeout,
		logger:  logger,
	}, nil
}

// acquire paces the call and returns a context bounded by the per-call
// timeout.
func (c *Client) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return callCtx, cancel, nil
}

// SearchVideos issues a search.list query and returns its first page.
func (c *Client) SearchVideos(ctx context.Context, q collector.Query) (*collector.SearchPage, error) {
	return c.searchPage(ctx, q, "")
}

// NextSearchPage requests the page following the given continuation token.
// An empty token means no further page can be derived from the previous
// response, reported as collector.ErrPagingUnavailable.
func (c *Client) NextSearchPage(ctx context.Context, q collector.Query, pageToken string) (*collector.SearchPage, error) {
	if pageToken == "" {
		return nil, &APIError{Op: "search", Resource: q.ChannelID, Err: collector.ErrPagingUnavailable}
	}
	return c.searchPage(ctx, q, pageToken)
}

func (c *Client) searchPage(ctx context.Context, q collector.Query, pageToken string) (*collector.SearchPage, error) {
	callCtx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, wrapErr("search", q.ChannelID, err)
	}
	defer cancel()

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	call := c.service.Search.List([]string{"snippet"}).
		ChannelId(q.ChannelID).
		Type("video").
		Order("date").
		MaxResults(maxResults).
		Context(callCtx)
	if !q.PublishedAfter.IsZero() {
		call = call.PublishedAfter(q.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if !q.PublishedBefore.IsZero() {
		call = call.PublishedBefore(q.PublishedBefore.UTC().Format(time.RFC3339))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, wrapErr("search", q.ChannelID, err)
	}
	c.trackQuotaUsage(searchQuotaCost)

	page := &collector.SearchPage{
		Kind:          resp.Kind,
		Items:         make([]collector.SearchItem, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		stub := collector.SearchItem{VideoID: item.Id.VideoId}
		if item.Snippet != nil {
			stub.Title = item.Snippet.Title
			stub.PublishedAt = parseTime(item.Snippet.PublishedAt)
		}
		page.Items = append(page.Items, stub)
	}
	return page, nil
}

// ListChannels fetches channel metadata for up to one batch of ids with a
// single channels.list call.
func (c *Client) ListChannels(ctx context.Context, ids []string) ([]collector.ChannelRecord, error) {
	resource := strconv.Itoa(len(ids)) + " channels"

	callCtx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, wrapErr("channels.list", resource, err)
	}
	defer cancel()

	resp, err := c.service.Channels.List([]string{"snippet", "statistics", "brandingSettings"}).
		Id(ids...).
		MaxResults(int64(len(ids))).
		Context(callCtx).
		Do()
	if err != nil {
		return nil, wrapErr("channels.list", resource, err)
	}
	c.trackQuotaUsage(listQuotaCost)

	records := make([]collector.ChannelRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		record := collector.ChannelRecord{ID: item.Id}
		if item.Snippet != nil {
			record.Title = item.Snippet.Title
			record.PublishedAt = parseTime(item.Snippet.PublishedAt)
			record.Snippet = marshalRaw(item.Snippet)
		}
		if item.Statistics != nil {
			record.VideoCount = int64(item.Statistics.VideoCount)
			record.Statistics = marshalRaw(item.Statistics)
		}
		if item.BrandingSettings != nil {
			record.Branding = marshalRaw(item.BrandingSettings)
		}
		records = append(records, record)
	}
	return records, nil
}

// ListVideos fetches video details for up to one batch of ids with a
// single videos.list call.
func (c *Client) ListVideos(ctx context.Context, ids []string) ([]collector.VideoDetailRecord, error) {
	resource := strconv.Itoa(len(ids)) + " videos"

	callCtx, cancel, err := c.acquire(ctx)
	if err != nil {
		return nil, wrapErr("videos.list", resource, err)
	}
	defer cancel()

	resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		MaxResults(int64(len(ids))).
		Context(callCtx).
		Do()
	if err != nil {
		return nil, wrapErr("videos.list", resource, err)
	}
	c.trackQuotaUsage(listQuotaCost)

	records := make([]collector.VideoDetailRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		record := collector.VideoDetailRecord{ID: item.Id}
		if item.Snippet != nil {
			record.ChannelID = item.Snippet.ChannelId
			record.Title = item.Snippet.Title
			record.Description = item.Snippet.Description
			record.PublishedAt = parseTime(item.Snippet.PublishedAt)
			record.Thumbnails = thumbnailMap(item.Snippet.Thumbnails)
		}
		if item.ContentDetails != nil {
			record.Duration = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			record.ViewCount = item.Statistics.ViewCount
		}
		records = append(records, record)
	}
	return records, nil
}

// QuotaUsed returns the estimated quota units consumed so far.
func (c *Client) QuotaUsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotaUsed
}

func (c *Client) trackQuotaUsage(units int) {
	c.mu.Lock()
	c.quotaUsed += units
	used := c.quotaUsed
	c.mu.Unlock()
	c.logger.Debug().Int("quota_used", used).Msg("api quota usage")
}

func thumbnailMap(details *youtube.ThumbnailDetails) map[string]collector.Thumbnail {
	if details == nil {
		return nil
	}
	thumbs := make(map[string]collector.Thumbnail)
	add := func(key string, t *youtube.Thumbnail) {
		if t != nil && t.Url != "" {
			thumbs[key] = collector.Thumbnail{URL: t.Url, Width: t.Width, Height: t.Height}
		}
	}
	add("default", details.Default)
	add("medium", details.Medium)
	add(collector.ThumbnailHigh, details.High)
	add(collector.ThumbnailStandard, details.Standard)
	add("maxres", details.Maxres)
	if len(thumbs) == 0 {
		return nil
	}
	return thumbs
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func marshalRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
