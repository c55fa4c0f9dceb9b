// Package ytca collects YouTube channel and video metadata into a durable,
// id-keyed record store and enriches videos with thumbnail face detection.
//
// # Overview
//
// Collection runs in three stages, each re-runnable and idempotent:
//
//   - ChannelCollector: fetches channel metadata (publish date, video count)
//   - VideoSearchCollector: fetches the complete video list per channel,
//     partitioning the search by calendar year for prolific channels to
//     work around the API's per-query result ceiling
//   - VideoDetailCollector: fetches video details in batches and classifies
//     each video's thumbnail with the face-detection collaborator
//
// All inter-stage state lives in the record store — one immutable JSON
// record per resource id — so a run interrupted by quota exhaustion or a
// crash simply resumes on the next invocation: already-collected ids issue
// zero remote calls.
//
// # Quick Start
//
//	ctx := context.Background()
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//
//	store, err := storage.NewFileStore("data")
//	if err != nil {
//		log.Fatal(err)
//	}
//	api, err := youtube.NewClient(ctx, apiKey, youtube.ClientOptions{}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	detector := facedetect.NewHTTPDetector(detectorURL, 0)
//
//	pipeline := collector.NewPipeline(api, store, detector, collector.Options{}, logger)
//	if err := pipeline.Run(ctx, []string{"UCfzlCWGWYyIQ0aLC5w48gBQ"}); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration
//
// The ytca command loads settings from multiple sources:
//
//  1. Environment variables (highest priority)
//  2. Config file (ytca.json or ~/.config/ytca/ytca.json)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTCA_API_KEY: YouTube Data API v3 key
//   - YTCA_DATA_DIR: Record store directory
//   - YTCA_POSTGRES_DSN: Use Postgres instead of the file store
//   - YTCA_CHANNEL_LIST: Path to the channel-id CSV
//   - YTCA_PARTITION_THRESHOLD: Video count above which search is
//     partitioned by year
//   - YTCA_BATCH_SIZE: Ids per channels.list/videos.list call
//   - YTCA_DETECTOR_ENDPOINT: Face-detection service URL
//
// # Error Handling
//
// All operations return errors that implement standard Go error handling:
//
//	if errors.Is(err, ytca.ErrQuotaExceeded) {
//		fmt.Println("quota exhausted, rerun tomorrow")
//	}
//
//	var storErr *ytca.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s/%s: %v\n", storErr.Op, storErr.Collection, storErr.ID, storErr.Err)
//	}
//
// # Sub-packages
//
//   - collector: the collection pipeline and its data model
//   - youtube: YouTube Data API v3 adapter
//   - storage: record store implementations (file, Postgres)
//   - facedetect: face-detection collaborator
package ytca
