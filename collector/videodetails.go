package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adosib/youtube-content-analysis/facedetect"
	"github.com/adosib/youtube-content-analysis/storage"
)

// VideoDetailCollector batches previously discovered video ids, fetches
// detail records per batch, enriches each with the face-detection result
// for its thumbnail, and writes one immutable record per video id.
type VideoDetailCollector struct {
	api       VideoAPI
	store     storage.RecordStore
	detector  facedetect.Detector
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewVideoDetailCollector creates a video detail collector. batchSize
// bounds the number of ids sent per videos.list call.
func NewVideoDetailCollector(api VideoAPI, store storage.RecordStore, detector facedetect.Detector, batchSize int, logger zerolog.Logger) *VideoDetailCollector {
	return &VideoDetailCollector{
		api:       api,
		store:     store,
		detector:  detector,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// Collect builds the global candidate video-id set from every stored
// video-search result, strips already-collected ids, and fetches the rest
// in fixed-size batches. Per item, the thumbnail is classified and the
// enriched record stored. A quota-class batch failure abandons all
// remaining batches immediately — quota exhaustion is global and will not
// clear within the run. Any other batch failure is logged and the next
// batch proceeds; that batch's ids stay uncollected and the next run
// retries them.
func (c *VideoDetailCollector) Collect(ctx context.Context) error {
	candidates, err := c.candidateVideoIDs(ctx)
	if err != nil {
		return err
	}

	toFetch, err := c.store.FilterUncollected(ctx, CollectionVideoDetails, candidates)
	if err != nil {
		return fmt.Errorf("filter uncollected videos: %w", err)
	}
	if len(toFetch) == 0 {
		c.logger.Debug().Int("candidates", len(candidates)).Msg("all video details already collected")
		return nil
	}

	c.logger.Info().
		Int("candidates", len(candidates)).
		Int("to_fetch", len(toFetch)).
		Msg("collecting video details")

	for i, batch := range chunkIDs(toFetch, c.batchSize) {
		records, err := c.api.ListVideos(ctx, batch)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				c.logger.Error().Err(err).Int("batch", i).Msg("quota exhausted, abandoning remaining batches")
				return fmt.Errorf("video detail batch %d: %w", i, err)
			}
			c.logger.Error().
				Err(err).
				Int("batch", i).
				Int("batch_size", len(batch)).
				Msg("video detail batch failed, skipping")
			continue
		}

		for _, record := range records {
			c.enrichAndStore(ctx, record)
		}
	}

	return nil
}

// candidateVideoIDs concatenates the video ids of every stored search
// result, de-duplicated with first occurrence preserved.
func (c *VideoDetailCollector) candidateVideoIDs(ctx context.Context) ([]string, error) {
	channelIDs, err := c.store.ListIDs(ctx, CollectionVideoSearch)
	if err != nil {
		return nil, fmt.Errorf("list video search results: %w", err)
	}

	seen := make(map[string]struct{})
	var candidates []string
	for _, channelID := range channelIDs {
		var result VideoSearchResult
		if err := c.store.Get(ctx, CollectionVideoSearch, channelID, &result); err != nil {
			c.logger.Error().Err(err).Str("channel_id", channelID).Msg("failed to read video search result")
			continue
		}
		for _, id := range result.VideoIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, id)
		}
	}
	return candidates, nil
}

// enrichAndStore classifies the record's thumbnail and writes the record.
// Every failure here is contained to this one video id: the record stays
// uncollected and the next run retries it.
func (c *VideoDetailCollector) enrichAndStore(ctx context.Context, record VideoDetailRecord) {
	imageURL, ok := record.ThumbnailURL()
	if !ok {
		c.logger.Warn().Str("video_id", record.ID).Msg("no usable thumbnail, skipping enrichment")
		return
	}

	detection, err := c.detector.Detect(ctx, imageURL)
	if err != nil {
		c.logger.Error().Err(err).Str("video_id", record.ID).Str("image_url", imageURL).Msg("face detection failed")
		return
	}

	record.HasFace = detection.HasFace
	if conf, ok := detection.Confidence(); ok {
		record.FaceConfidence = &conf
	}
	record.CollectedAt = c.now()

	if err := c.store.Put(ctx, CollectionVideoDetails, record.ID, record); err != nil {
		c.logger.Error().Err(err).Str("video_id", record.ID).Msg("failed to store video detail record")
		return
	}

	c.logger.Debug().
		Str("video_id", record.ID).
		Bool("has_face", record.HasFace).
		Msg("stored video detail record")
}
