package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adosib/youtube-content-analysis/facedetect"
	"github.com/adosib/youtube-content-analysis/storage"
)

// Pipeline runs the three collection stages strictly in dependency order:
// channels, then per-channel video search, then video details. Each stage
// reads only what the previous stage persisted, so a partially completed
// run is a normal terminal state — the next run resumes from the store.
type Pipeline struct {
	api      VideoAPI
	store    storage.RecordStore
	detector facedetect.Detector
	opts     Options
	logger   zerolog.Logger
}

// Options tunes the pipeline's collectors.
type Options struct {
	// BatchSize bounds the ids per channels.list and videos.list call.
	BatchSize int
	// Search tunes the video search strategy.
	Search VideoSearchOptions
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultMaxPageSize
	}
	o.Search = o.Search.withDefaults()
	return o
}

// NewPipeline wires the collectors over a shared api client, record store
// and enrichment detector.
func NewPipeline(api VideoAPI, store storage.RecordStore, detector facedetect.Detector, opts Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		api:      api,
		store:    store,
		detector: detector,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Run executes all three stages for the given channel ids. Stage failures
// are contained per channel where possible; a quota-class failure ends the
// run, since every further remote call would also fail.
func (p *Pipeline) Run(ctx context.Context, channelIDs []string) error {
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()
	start := time.Now()

	logger.Info().Int("channels", len(channelIDs)).Msg("collection run started")

	channels := NewChannelCollector(p.api, p.store, p.opts.BatchSize, logger)
	if err := channels.Collect(ctx, channelIDs); err != nil {
		return fmt.Errorf("channel stage: %w", err)
	}

	search := NewVideoSearchCollector(p.api, p.store, p.opts.Search, logger)
	for _, channelID := range channelIDs {
		if err := search.Collect(ctx, channelID); err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				return fmt.Errorf("video search stage: %w", err)
			}
			logger.Error().Err(err).Str("channel_id", channelID).Msg("video search failed for channel")
		}
	}

	details := NewVideoDetailCollector(p.api, p.store, p.detector, p.opts.BatchSize, logger)
	if err := details.Collect(ctx); err != nil {
		return fmt.Errorf("video detail stage: %w", err)
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("collection run finished")
	return nil
}
