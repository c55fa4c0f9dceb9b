package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adosib/youtube-content-analysis/storage"
)

// Default tuning for the video search strategy.
const (
	// DefaultPartitionThreshold is the video count above which a channel's
	// search is partitioned by calendar year. The remote search API
	// silently caps total results for a single undated query, so a
	// prolific channel can only be retrieved completely with bounded
	// date-range sub-queries. The exact ceiling is undocumented; this
	// value is a configurable working assumption, not a verified constant.
	DefaultPartitionThreshold = 500
	// DefaultFallbackYear is the first partition year used when a channel
	// record carries no creation timestamp.
	DefaultFallbackYear = 2000
	// DefaultMaxPageSize is the remote API's maximum search page size.
	DefaultMaxPageSize = 50
)

// VideoSearchCollector fetches the complete video search result for a
// channel, choosing between a single bulk query and a year-partitioned
// fan-out based on the channel's cached video count.
type VideoSearchCollector struct {
	api       VideoAPI
	store     storage.RecordStore
	paginator *Paginator
	threshold int64
	pageSize  int64
	firstYear int
	now       func() time.Time
	logger    zerolog.Logger
}

// VideoSearchOptions tunes the search strategy. Zero values fall back to
// the package defaults.
type VideoSearchOptions struct {
	// PartitionThreshold is the video count above which year partitioning
	// is used.
	PartitionThreshold int64
	// MaxPageSize is the page size requested per search call.
	MaxPageSize int
	// FallbackYear is the first partition year for channels with an
	// unknown creation date.
	FallbackYear int
	// Now supplies the current time; tests override it.
	Now func() time.Time
}

func (o VideoSearchOptions) withDefaults() VideoSearchOptions {
	if o.PartitionThreshold <= 0 {
		o.PartitionThreshold = DefaultPartitionThreshold
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = DefaultMaxPageSize
	}
	if o.FallbackYear <= 0 {
		o.FallbackYear = DefaultFallbackYear
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewVideoSearchCollector creates a video search collector.
func NewVideoSearchCollector(api VideoAPI, store storage.RecordStore, opts VideoSearchOptions, logger zerolog.Logger) *VideoSearchCollector {
	opts = opts.withDefaults()
	return &VideoSearchCollector{
		api:       api,
		store:     store,
		paginator: NewPaginator(api, opts.MaxPageSize, logger),
		threshold: opts.PartitionThreshold,
		pageSize:  int64(opts.MaxPageSize),
		firstYear: opts.FallbackYear,
		now:       opts.Now,
		logger:    logger,
	}
}

// Collect fetches and stores the complete search result for one channel.
// It is a no-op when a result is already stored: per-channel idempotency is
// all-or-nothing, so a stored result is always complete as of its
// collection time. The channel's metadata record must already exist — the
// video count drives the partitioning decision.
//
// In partitioned mode, a single year's failure is reported, that year's
// items are omitted, and collection continues with the remaining years.
// The aggregate is written once, after all partitions finished.
func (c *VideoSearchCollector) Collect(ctx context.Context, channelID string) error {
	exists, err := c.store.Exists(ctx, CollectionVideoSearch, channelID)
	if err != nil {
		return fmt.Errorf("check video search cache: %w", err)
	}
	if exists {
		c.logger.Debug().Str("channel_id", channelID).Msg("video search already collected")
		return nil
	}

	var channel ChannelRecord
	if err := c.store.Get(ctx, CollectionChannels, channelID, &channel); err != nil {
		return fmt.Errorf("channel %s must be collected before video search: %w", channelID, err)
	}

	var result *VideoSearchResult
	if channel.VideoCount > c.threshold {
		result, err = c.collectPartitioned(ctx, channel)
	} else {
		result, err = c.collectSingle(ctx, channelID)
	}
	if err != nil {
		return err
	}

	result.CollectedAt = c.now()
	if err := c.store.Put(ctx, CollectionVideoSearch, channelID, result); err != nil {
		return fmt.Errorf("store video search result: %w", err)
	}

	c.logger.Info().
		Str("channel_id", channelID).
		Int("videos", len(result.Items)).
		Bool("partitioned", result.Partitioned).
		Ints("failed_years", result.FailedYears).
		Msg("stored video search result")
	return nil
}

// collectSingle issues one undated query and drains it.
func (c *VideoSearchCollector) collectSingle(ctx context.Context, channelID string) (*VideoSearchResult, error) {
	q := Query{ChannelID: channelID, MaxResults: c.pageSize}

	first, err := c.api.SearchVideos(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search channel %s: %w", channelID, err)
	}
	full, err := c.paginator.Drain(ctx, q, first)
	if err != nil {
		return nil, fmt.Errorf("search channel %s: %w", channelID, err)
	}

	return &VideoSearchResult{
		ChannelID: channelID,
		Kind:      full.Kind,
		Items:     full.Items,
	}, nil
}

// collectPartitioned issues one bounded-date-range query per calendar year
// from the channel's creation year through the current year inclusive, and
// concatenates the drained results in year-ascending order.
func (c *VideoSearchCollector) collectPartitioned(ctx context.Context, channel ChannelRecord) (*VideoSearchResult, error) {
	startYear := channel.CreationYear(c.firstYear)
	currentYear := c.now().UTC().Year()

	result := &VideoSearchResult{
		ChannelID:   channel.ID,
		Items:       []SearchItem{},
		Partitioned: true,
	}

	c.logger.Info().
		Str("channel_id", channel.ID).
		Int64("video_count", channel.VideoCount).
		Int("from_year", startYear).
		Int("to_year", currentYear).
		Msg("video count above threshold, partitioning search by year")

	succeeded := 0
	for year := startYear; year <= currentYear; year++ {
		q := Query{
			ChannelID:       channel.ID,
			PublishedAfter:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			PublishedBefore: time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
			MaxResults:      c.pageSize,
		}

		full, err := c.drainYear(ctx, q)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				return nil, fmt.Errorf("search channel %s year %d: %w", channel.ID, year, err)
			}
			c.logger.Error().
				Err(err).
				Str("channel_id", channel.ID).
				Int("year", year).
				Msg("year partition failed, omitting its items")
			result.FailedYears = append(result.FailedYears, year)
			continue
		}

		if result.Kind == "" {
			result.Kind = full.Kind
		}
		result.Items = append(result.Items, full.Items...)
		succeeded++
	}

	if succeeded == 0 {
		// Nothing collected at all: writing a record now would make the
		// empty result look complete and block the rerun.
		return nil, fmt.Errorf("search channel %s: all %d year partitions failed", channel.ID, len(result.FailedYears))
	}

	return result, nil
}

func (c *VideoSearchCollector) drainYear(ctx context.Context, q Query) (*SearchPage, error) {
	first, err := c.api.SearchVideos(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.paginator.Drain(ctx, q, first)
}
