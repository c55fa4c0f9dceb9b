// Package collector implements the incremental collection pipeline:
// channel metadata, per-channel video search with quota-safe year
// partitioning, and batched video detail collection with thumbnail
// enrichment. All inter-stage state passes through the record store, never
// through memory, so every stage is independently re-runnable and a crashed
// run resumes for free on the next invocation.
package collector

import (
	"encoding/json"
	"time"
)

// Collection names under which records are stored.
const (
	// CollectionChannels holds one ChannelRecord per channel id.
	CollectionChannels = "channels"
	// CollectionVideoSearch holds one VideoSearchResult per channel id.
	CollectionVideoSearch = "video_search"
	// CollectionVideoDetails holds one VideoDetailRecord per video id.
	CollectionVideoDetails = "video_details"
)

// ChannelRecord holds channel-level metadata. Written once by the
// ChannelCollector and never mutated; its publish date and video count
// drive the video-search partitioning decision.
type ChannelRecord struct {
	// ID is the YouTube channel ID (e.g., "UCfzlCWGWYyIQ0aLC5w48gBQ").
	ID string `json:"id"`
	// Title is the channel display name.
	Title string `json:"title"`
	// PublishedAt is when the channel was created. May be zero if the API
	// did not return it.
	PublishedAt time.Time `json:"published_at"`
	// VideoCount is the channel's total video count at collection time.
	VideoCount int64 `json:"video_count"`
	// Snippet, Statistics and Branding carry the raw API metadata groups.
	Snippet    json.RawMessage `json:"snippet,omitempty"`
	Statistics json.RawMessage `json:"statistics,omitempty"`
	Branding   json.RawMessage `json:"branding,omitempty"`
	// CollectedAt is when this record was written.
	CollectedAt time.Time `json:"collected_at"`
}

// CreationYear returns the UTC year the channel was created, or fallback if
// the creation timestamp is unknown.
func (c ChannelRecord) CreationYear(fallback int) int {
	if c.PublishedAt.IsZero() {
		return fallback
	}
	return c.PublishedAt.UTC().Year()
}

// SearchItem is a lightweight video stub from a search result.
type SearchItem struct {
	// VideoID is the YouTube video ID (e.g., "dQw4w9WgXcQ").
	VideoID string `json:"video_id"`
	// Title is the video title as returned by search.
	Title string `json:"title,omitempty"`
	// PublishedAt is the video publish time.
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// SearchPage is one bounded response from a search listing call: a slice of
// the logical result stream plus an opaque continuation token. An absent
// token signals end-of-stream. Pages are transient and never persisted.
type SearchPage struct {
	// Kind is the response envelope kind (e.g., "youtube#searchListResponse").
	Kind string `json:"kind"`
	// Items are the video stubs on this page.
	Items []SearchItem `json:"items"`
	// NextPageToken continues the stream. Empty means no further pages.
	NextPageToken string `json:"next_page_token,omitempty"`
}

// VideoSearchResult is the complete, accumulated search result for one
// channel. Once written, the set of video ids it contains is complete for
// that channel as of collection time; downstream stages never observe a
// partial write.
type VideoSearchResult struct {
	// ChannelID is the channel the result belongs to.
	ChannelID string `json:"channel_id"`
	// Kind is the envelope kind preserved from the first page.
	Kind string `json:"kind,omitempty"`
	// Items are all video stubs, in page order (and year-ascending order
	// when the query was partitioned).
	Items []SearchItem `json:"items"`
	// Partitioned reports whether the year-partitioned strategy was used.
	Partitioned bool `json:"partitioned"`
	// FailedYears lists partition years whose queries failed; their items
	// are missing from this result.
	FailedYears []int `json:"failed_years,omitempty"`
	// CollectedAt is when this record was written.
	CollectedAt time.Time `json:"collected_at"`
}

// VideoIDs returns the ids of all video stubs, in item order.
func (r VideoSearchResult) VideoIDs() []string {
	ids := make([]string, len(r.Items))
	for i, item := range r.Items {
		ids[i] = item.VideoID
	}
	return ids
}

// Thumbnail is one thumbnail variant of a video.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

// Thumbnail resolution keys as named by the remote API.
const (
	ThumbnailStandard = "standard"
	ThumbnailHigh     = "high"
)

// VideoDetailRecord is the full detail payload for one video plus the
// enrichment fields computed from its thumbnail. Written once by the
// VideoDetailCollector; enrichment runs exactly once per video id.
type VideoDetailRecord struct {
	// ID is the YouTube video ID.
	ID string `json:"id"`
	// ChannelID is the owning channel.
	ChannelID string `json:"channel_id,omitempty"`
	// Title is the video title.
	Title string `json:"title"`
	// Description is the video description.
	Description string `json:"description,omitempty"`
	// PublishedAt is the video publish time.
	PublishedAt time.Time `json:"published_at,omitempty"`
	// Duration is the ISO-8601 video duration (e.g., "PT4M13S").
	Duration string `json:"duration,omitempty"`
	// ViewCount is the view count at collection time.
	ViewCount uint64 `json:"view_count,omitempty"`
	// Thumbnails maps resolution keys ("default", "high", "standard", ...)
	// to thumbnail variants.
	Thumbnails map[string]Thumbnail `json:"thumbnails,omitempty"`

	// HasFace reports whether a face was detected in the video thumbnail.
	HasFace bool `json:"has_face"`
	// FaceConfidence is the confidence of the first detection.
	// Present iff HasFace is true.
	FaceConfidence *float64 `json:"face_confidence,omitempty"`

	// CollectedAt is when this record was written.
	CollectedAt time.Time `json:"collected_at"`
}

// ThumbnailURL returns the image reference to use for enrichment, preferring
// the standard resolution and falling back to high. The second return is
// false when neither variant is present.
func (v VideoDetailRecord) ThumbnailURL() (string, bool) {
	if t, ok := v.Thumbnails[ThumbnailStandard]; ok && t.URL != "" {
		return t.URL, true
	}
	if t, ok := v.Thumbnails[ThumbnailHigh]; ok && t.URL != "" {
		return t.URL, true
	}
	return "", false
}

// Query describes one search listing request. A zero PublishedAfter and
// PublishedBefore means the query is undated.
type Query struct {
	// ChannelID restricts results to one channel.
	ChannelID string
	// PublishedAfter is the inclusive lower publish-time bound (UTC).
	PublishedAfter time.Time
	// PublishedBefore is the exclusive upper publish-time bound (UTC).
	PublishedBefore time.Time
	// MaxResults is the page size to request.
	MaxResults int64
}
