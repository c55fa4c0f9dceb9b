package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adosib/youtube-content-analysis/facedetect"
)

func seedSearchResult(t *testing.T, store *memStore, channelID string, videoIDs ...string) {
	t.Helper()
	items := make([]SearchItem, len(videoIDs))
	for i, id := range videoIDs {
		items[i] = SearchItem{VideoID: id}
	}
	err := store.Put(context.Background(), CollectionVideoSearch, channelID, VideoSearchResult{
		ChannelID: channelID,
		Items:     items,
	})
	if err != nil {
		t.Fatalf("seed search result: %v", err)
	}
}

func TestVideoDetailCollectorStoresEnrichedRecords(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "v1", "v2")
	detector := &fakeDetector{result: facedetect.Result{
		HasFace:    true,
		Detections: []facedetect.Region{{X: 1, Y: 2, Width: 3, Height: 4, Confidence: 0.91}},
	}}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	for _, id := range []string{"v1", "v2"} {
		var record VideoDetailRecord
		if err := store.Get(context.Background(), CollectionVideoDetails, id, &record); err != nil {
			t.Fatalf("video %s not stored: %v", id, err)
		}
		if !record.HasFace {
			t.Errorf("video %s has_face = false, want true", id)
		}
		if record.FaceConfidence == nil || *record.FaceConfidence != 0.91 {
			t.Errorf("video %s face_confidence = %v, want 0.91", id, record.FaceConfidence)
		}
		if record.CollectedAt.IsZero() {
			t.Errorf("video %s collected_at not set", id)
		}
	}
	if len(detector.urls) != 2 {
		t.Errorf("detector calls = %d, want 2", len(detector.urls))
	}
}

// TestVideoDetailCollectorNoFace verifies the confidence field is absent
// when no face was detected.
func TestVideoDetailCollectorNoFace(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "v1")
	detector := &fakeDetector{result: facedetect.Result{HasFace: false}}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var record VideoDetailRecord
	if err := store.Get(context.Background(), CollectionVideoDetails, "v1", &record); err != nil {
		t.Fatal(err)
	}
	if record.HasFace {
		t.Error("has_face = true, want false")
	}
	if record.FaceConfidence != nil {
		t.Errorf("face_confidence = %v, want nil", *record.FaceConfidence)
	}
}

// TestVideoDetailCollectorBatches verifies fixed-size batching: 123
// candidates split into batches of 50, 50 and 23, every id exactly once.
func TestVideoDetailCollectorBatches(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	ids := make([]string, 123)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%03d", i)
	}
	seedSearchResult(t, store, "UCa", ids...)
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	wantSizes := []int{50, 50, 23}
	if len(api.videoCalls) != len(wantSizes) {
		t.Fatalf("batches = %d, want %d", len(api.videoCalls), len(wantSizes))
	}
	seen := make(map[string]int)
	for i, batch := range api.videoCalls {
		if len(batch) != wantSizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(batch), wantSizes[i])
		}
		for _, id := range batch {
			seen[id]++
		}
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("id %s fetched %d times, want exactly 1", id, seen[id])
		}
	}
}

// TestVideoDetailCollectorDeduplicatesAcrossChannels verifies a video id
// appearing in multiple channels' search results is fetched once.
func TestVideoDetailCollectorDeduplicatesAcrossChannels(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "shared", "onlyA")
	seedSearchResult(t, store, "UCb", "shared", "onlyB")
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(api.videoCalls) != 1 {
		t.Fatalf("batches = %d, want 1", len(api.videoCalls))
	}
	if got := len(api.videoCalls[0]); got != 3 {
		t.Errorf("batch size = %d, want 3 (shared fetched once)", got)
	}
}

// TestVideoDetailCollectorIdempotent verifies already-collected ids are
// stripped before batching.
func TestVideoDetailCollectorIdempotent(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "v1", "v2")
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("first Collect() error = %v", err)
	}
	calls := len(api.videoCalls)

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("second Collect() error = %v", err)
	}
	if len(api.videoCalls) != calls {
		t.Errorf("remote calls after rerun = %d, want %d", len(api.videoCalls), calls)
	}
}

// TestVideoDetailCollectorQuotaAbortsRemainingBatches verifies a
// quota-class failure on an early batch abandons every batch after it.
func TestVideoDetailCollectorQuotaAbortsRemainingBatches(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%03d", i)
	}
	seedSearchResult(t, store, "UCa", ids...)
	api.videosErr = func(batch int) error {
		if batch == 1 {
			return fmt.Errorf("videos.list: %w", ErrQuotaExceeded)
		}
		return nil
	}
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	err := c.Collect(context.Background())
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Collect() error = %v, want quota-class", err)
	}
	if len(api.videoCalls) != 2 {
		t.Errorf("batches attempted = %d, want 2 (batch 0 ok, batch 1 quota, stop)", len(api.videoCalls))
	}
}

// TestVideoDetailCollectorSkipsFailedBatch verifies a transient batch
// failure only abandons that batch.
func TestVideoDetailCollectorSkipsFailedBatch(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%03d", i)
	}
	seedSearchResult(t, store, "UCa", ids...)
	api.videosErr = func(batch int) error {
		if batch == 1 {
			return errors.New("upstream 503")
		}
		return nil
	}
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(api.videoCalls) != 3 {
		t.Fatalf("batches attempted = %d, want 3", len(api.videoCalls))
	}

	stored, _ := store.ListIDs(context.Background(), CollectionVideoDetails)
	if len(stored) != 100 {
		t.Errorf("stored records = %d, want 100 (middle batch of 50 skipped)", len(stored))
	}
	exists, _ := store.Exists(context.Background(), CollectionVideoDetails, "v050")
	if exists {
		t.Error("record from the failed batch was stored")
	}
}

// TestVideoDetailCollectorThumbnailFallback verifies the high-resolution
// thumbnail is used when the standard one is absent.
func TestVideoDetailCollectorThumbnailFallback(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "v1")
	api.videos["v1"] = VideoDetailRecord{
		ID:         "v1",
		Thumbnails: map[string]Thumbnail{ThumbnailHigh: {URL: "https://img.example/v1/hqdefault.jpg"}},
	}
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(detector.urls) != 1 || detector.urls[0] != "https://img.example/v1/hqdefault.jpg" {
		t.Errorf("detector urls = %v, want the high-res fallback", detector.urls)
	}
}

// TestVideoDetailCollectorSkipsWithoutThumbnail verifies a record with no
// usable thumbnail is skipped and stays uncollected.
func TestVideoDetailCollectorSkipsWithoutThumbnail(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "v1", "v2")
	api.videos["v1"] = VideoDetailRecord{ID: "v1"}
	detector := &fakeDetector{}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	exists, _ := store.Exists(context.Background(), CollectionVideoDetails, "v1")
	if exists {
		t.Error("record without thumbnail was stored")
	}
	exists, _ = store.Exists(context.Background(), CollectionVideoDetails, "v2")
	if !exists {
		t.Error("sibling record was not stored")
	}
}

// TestVideoDetailCollectorDetectorFailureSkipsItem verifies a detection
// failure is contained to its video id.
func TestVideoDetailCollectorDetectorFailureSkipsItem(t *testing.T) {
	api := newFakeAPI()
	store := newMemStore()
	seedSearchResult(t, store, "UCa", "v1")
	detector := &fakeDetector{err: errors.New("service unavailable")}

	c := NewVideoDetailCollector(api, store, detector, 50, testLogger())
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	exists, _ := store.Exists(context.Background(), CollectionVideoDetails, "v1")
	if exists {
		t.Error("record stored despite detection failure")
	}
}
