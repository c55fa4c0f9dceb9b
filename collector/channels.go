package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adosib/youtube-content-analysis/storage"
)

// ChannelCollector fetches and caches channel-level metadata for ids not
// already cached. It must run before video search: the search collector
// reads the cached video count and creation date to pick its strategy.
type ChannelCollector struct {
	api       VideoAPI
	store     storage.RecordStore
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewChannelCollector creates a channel collector. batchSize bounds the
// number of ids sent per channels.list call.
func NewChannelCollector(api VideoAPI, store storage.RecordStore, batchSize int, logger zerolog.Logger) *ChannelCollector {
	return &ChannelCollector{
		api:       api,
		store:     store,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// Collect fetches and stores metadata for every channel id that has no
// record yet. Already-collected ids issue zero remote calls. Ids are
// fetched in batches; a failed batch is abandoned for this run (no partial
// writes from it) and reported, while the remaining batches proceed —
// unless the failure is quota-class, which ends the pass immediately.
func (c *ChannelCollector) Collect(ctx context.Context, channelIDs []string) error {
	toFetch, err := c.store.FilterUncollected(ctx, CollectionChannels, channelIDs)
	if err != nil {
		return fmt.Errorf("filter uncollected channels: %w", err)
	}
	if len(toFetch) == 0 {
		c.logger.Debug().Int("requested", len(channelIDs)).Msg("all channels already collected")
		return nil
	}

	c.logger.Info().
		Int("requested", len(channelIDs)).
		Int("to_fetch", len(toFetch)).
		Msg("collecting channel metadata")

	for i, batch := range chunkIDs(toFetch, c.batchSize) {
		records, err := c.api.ListChannels(ctx, batch)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				return fmt.Errorf("channel batch %d: %w", i, err)
			}
			c.logger.Error().
				Err(err).
				Int("batch", i).
				Strs("channel_ids", batch).
				Msg("channel batch failed, skipping")
			continue
		}

		for _, record := range records {
			record.CollectedAt = c.now()
			if err := c.store.Put(ctx, CollectionChannels, record.ID, record); err != nil {
				// Fatal for this record only; sibling writes proceed.
				c.logger.Error().Err(err).Str("channel_id", record.ID).Msg("failed to store channel record")
				continue
			}
			c.logger.Debug().Str("channel_id", record.ID).Int64("video_count", record.VideoCount).Msg("stored channel record")
		}
	}

	return nil
}
