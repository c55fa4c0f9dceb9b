// Command ytca collects YouTube channel and video metadata into a local
// record store and enriches video records with thumbnail face detection.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adosib/youtube-content-analysis/collector"
	"github.com/adosib/youtube-content-analysis/facedetect"
	"github.com/adosib/youtube-content-analysis/internal/config"
	"github.com/adosib/youtube-content-analysis/storage"
	"github.com/adosib/youtube-content-analysis/youtube"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "channels":
		cmdChannels(args)
	case "search":
		cmdSearch(args)
	case "details":
		cmdDetails(args)
	case "run":
		cmdRun(args)
	case "status":
		cmdStatus(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytca - YouTube channel and video metadata collector

Usage:
  ytca channels [flags]   Collect channel metadata for the channel list
  ytca search [flags]     Collect per-channel video search results
  ytca details [flags]    Collect video details and thumbnail enrichment
  ytca run [flags]        Run all three stages in order
  ytca status             Show per-collection record counts
  ytca help               Show this help message

Every stage is idempotent: already-collected resources are skipped, so
rerunning after a partial run (quota exhaustion, crash) resumes where the
previous run stopped.

Configuration comes from YTCA_* environment variables, ytca.json, or
~/.config/ytca/ytca.json. YTCA_API_KEY is required for collection commands.
`)
}

// setup loads config and builds the logger and record store shared by all
// commands.
func setup() (*config.Config, zerolog.Logger, storage.RecordStore) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stderr).Level(level).With().
		Timestamp().
		Str("service", "ytca").
		Logger()

	store, err := openStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open record store")
	}

	return cfg, logger, store
}

// openStore picks the record store backend: Postgres when a DSN is
// configured, the file store otherwise.
func openStore(cfg *config.Config) (storage.RecordStore, error) {
	if cfg.PostgresDSN != "" {
		return storage.NewPostgresStore(cfg.PostgresDSN)
	}
	return storage.NewFileStore(cfg.DataDir)
}

func newAPIClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *youtube.Client {
	if cfg.APIKey == "" {
		logger.Fatal().Msg("YTCA_API_KEY is required")
	}
	client, err := youtube.NewClient(ctx, cfg.APIKey, youtube.ClientOptions{
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create youtube client")
	}
	return client
}

func newDetector(cfg *config.Config, logger zerolog.Logger) facedetect.Detector {
	if cfg.DetectorEndpoint == "" {
		logger.Fatal().Msg("YTCA_DETECTOR_ENDPOINT is required for detail collection")
	}
	return facedetect.NewHTTPDetector(cfg.DetectorEndpoint, cfg.DetectTimeout)
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func cmdChannels(args []string) {
	fs := flag.NewFlagSet("channels", flag.ExitOnError)
	listPath := fs.String("list", "", "Path to the channel-id CSV (overrides config)")
	fs.Parse(args)

	cfg, logger, store := setup()
	defer store.Close()

	channelIDs := readChannelList(cfg, *listPath, logger)

	ctx, cancel := signalContext()
	defer cancel()

	api := newAPIClient(ctx, cfg, logger)
	channels := collector.NewChannelCollector(api, store, cfg.BatchSize, logger)
	if err := channels.Collect(ctx, channelIDs); err != nil {
		logger.Fatal().Err(err).Msg("channel collection failed")
	}
}

func cmdSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	listPath := fs.String("list", "", "Path to the channel-id CSV (overrides config)")
	fs.Parse(args)

	cfg, logger, store := setup()
	defer store.Close()

	channelIDs := readChannelList(cfg, *listPath, logger)

	ctx, cancel := signalContext()
	defer cancel()

	api := newAPIClient(ctx, cfg, logger)
	search := collector.NewVideoSearchCollector(api, store, collector.VideoSearchOptions{
		PartitionThreshold: cfg.PartitionThreshold,
		MaxPageSize:        cfg.MaxPageSize,
	}, logger)

	for _, channelID := range channelIDs {
		if err := search.Collect(ctx, channelID); err != nil {
			logger.Error().Err(err).Str("channel_id", channelID).Msg("video search failed")
		}
	}
}

func cmdDetails(args []string) {
	fs := flag.NewFlagSet("details", flag.ExitOnError)
	fs.Parse(args)

	cfg, logger, store := setup()
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	api := newAPIClient(ctx, cfg, logger)
	details := collector.NewVideoDetailCollector(api, store, newDetector(cfg, logger), cfg.BatchSize, logger)
	if err := details.Collect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("video detail collection failed")
	}
	logger.Info().Int("quota_used", api.QuotaUsed()).Msg("detail collection finished")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	listPath := fs.String("list", "", "Path to the channel-id CSV (overrides config)")
	fs.Parse(args)

	cfg, logger, store := setup()
	defer store.Close()

	channelIDs := readChannelList(cfg, *listPath, logger)

	ctx, cancel := signalContext()
	defer cancel()

	api := newAPIClient(ctx, cfg, logger)
	pipeline := collector.NewPipeline(api, store, newDetector(cfg, logger), collector.Options{
		BatchSize: cfg.BatchSize,
		Search: collector.VideoSearchOptions{
			PartitionThreshold: cfg.PartitionThreshold,
			MaxPageSize:        cfg.MaxPageSize,
		},
	}, logger)

	if err := pipeline.Run(ctx, channelIDs); err != nil {
		logger.Error().Err(err).Int("quota_used", api.QuotaUsed()).Msg("collection run ended with error")
		os.Exit(1)
	}
	logger.Info().Int("quota_used", api.QuotaUsed()).Msg("collection run complete")
}

func cmdStatus(args []string) {
	_, logger, store := setup()
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	collections := []string{
		collector.CollectionChannels,
		collector.CollectionVideoSearch,
		collector.CollectionVideoDetails,
	}
	for _, collection := range collections {
		ids, err := store.ListIDs(ctx, collection)
		if err != nil {
			logger.Fatal().Err(err).Str("collection", collection).Msg("failed to list records")
		}
		fmt.Printf("%-15s %d\n", collection, len(ids))
	}
}

// readChannelList reads the channel-id list from the tabular file: one id
// per row, first column. A header row and '#' comment lines are tolerated.
func readChannelList(cfg *config.Config, override string, logger zerolog.Logger) []string {
	path := cfg.ChannelListPath
	if override != "" {
		path = override
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to open channel list")
	}
	defer file.Close()

	ids, err := parseChannelList(file)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to parse channel list")
	}
	if len(ids) == 0 {
		logger.Fatal().Str("path", path).Msg("channel list is empty")
	}
	return ids
}

func parseChannelList(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var ids []string
	seen := make(map[string]struct{})
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" || strings.EqualFold(id, "channel_id") {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
