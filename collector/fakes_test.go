package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adosib/youtube-content-analysis/facedetect"
	"github.com/adosib/youtube-content-analysis/storage"
)

// fakeAPI is a scripted VideoAPI implementation that records every call.
type fakeAPI struct {
	mu sync.Mutex

	// pages maps a continuation token ("" for the first page) to the page
	// returned for it. Used by SearchVideos/NextSearchPage when pagesFn
	// is nil.
	pages map[string]*SearchPage
	// pagesFn, when set, computes search pages per query.
	pagesFn func(q Query, token string) (*SearchPage, error)

	channels    map[string]ChannelRecord
	channelsErr func(batch int) error

	videos    map[string]VideoDetailRecord
	videosErr func(batch int) error

	searchCalls   []Query
	nextCalls     []string
	channelCalls  [][]string
	videoCalls    [][]string
	requestsTotal int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages:    make(map[string]*SearchPage),
		channels: make(map[string]ChannelRecord),
		videos:   make(map[string]VideoDetailRecord),
	}
}

func (f *fakeAPI) SearchVideos(ctx context.Context, q Query) (*SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, q)
	f.requestsTotal++
	if f.pagesFn != nil {
		return f.pagesFn(q, "")
	}
	page, ok := f.pages[""]
	if !ok {
		return &SearchPage{Kind: "youtube#searchListResponse"}, nil
	}
	return page, nil
}

func (f *fakeAPI) NextSearchPage(ctx context.Context, q Query, token string) (*SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCalls = append(f.nextCalls, token)
	f.requestsTotal++
	if f.pagesFn != nil {
		return f.pagesFn(q, token)
	}
	page, ok := f.pages[token]
	if !ok {
		return nil, fmt.Errorf("next page %q: %w", token, ErrPagingUnavailable)
	}
	return page, nil
}

func (f *fakeAPI) ListChannels(ctx context.Context, ids []string) ([]ChannelRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := len(f.channelCalls)
	f.channelCalls = append(f.channelCalls, append([]string(nil), ids...))
	if f.channelsErr != nil {
		if err := f.channelsErr(batch); err != nil {
			return nil, err
		}
	}
	records := make([]ChannelRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := f.channels[id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeAPI) ListVideos(ctx context.Context, ids []string) ([]VideoDetailRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := len(f.videoCalls)
	f.videoCalls = append(f.videoCalls, append([]string(nil), ids...))
	if f.videosErr != nil {
		if err := f.videosErr(batch); err != nil {
			return nil, err
		}
	}
	records := make([]VideoDetailRecord, 0, len(ids))
	for _, id := range ids {
		if record, ok := f.videos[id]; ok {
			records = append(records, record)
		} else {
			records = append(records, VideoDetailRecord{
				ID:         id,
				Thumbnails: map[string]Thumbnail{ThumbnailStandard: {URL: "https://img.example/" + id + "/sddefault.jpg"}},
			})
		}
	}
	return records, nil
}

// page builds a search page with n sequentially-numbered items.
func page(prefix string, n int, next string) *SearchPage {
	items := make([]SearchItem, n)
	for i := range items {
		items[i] = SearchItem{VideoID: fmt.Sprintf("%s-%03d", prefix, i)}
	}
	return &SearchPage{Kind: "youtube#searchListResponse", Items: items, NextPageToken: next}
}

// memStore is an in-memory RecordStore that records the raw bytes of every
// write, so tests can assert records stay byte-for-byte unchanged.
type memStore struct {
	mu      sync.Mutex
	records map[string]map[string][]byte
	puts    int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]map[string][]byte)}
}

func (s *memStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[collection][id]
	return ok, nil
}

func (s *memStore) Get(ctx context.Context, collection, id string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[collection][id]
	if !ok {
		return &storage.StorageError{Op: "read", Collection: collection, ID: id, Err: storage.ErrNotFound}
	}
	return json.Unmarshal(data, dst)
}

func (s *memStore) Put(ctx context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[collection] == nil {
		s.records[collection] = make(map[string][]byte)
	}
	s.records[collection][id] = data
	s.puts++
	return nil
}

func (s *memStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records[collection]))
	for id := range s.records[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memStore) FilterUncollected(ctx context.Context, collection string, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uncollected := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.records[collection][id]; !ok {
			uncollected = append(uncollected, id)
		}
	}
	return uncollected, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) raw(collection, id string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[collection][id]
}

// fakeDetector returns a fixed result and records the image URLs it saw.
type fakeDetector struct {
	mu     sync.Mutex
	result facedetect.Result
	err    error
	urls   []string
}

func (d *fakeDetector) Detect(ctx context.Context, imageURL string) (facedetect.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, imageURL)
	if d.err != nil {
		return facedetect.Result{}, d.err
	}
	return d.result, nil
}

// fixedNow returns a deterministic clock for tests.
func fixedNow(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
}
