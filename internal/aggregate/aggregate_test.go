package aggregate

import (
	"context"
	"sync"
	"testing"
	"time"

	"gdelttrends/internal/core"
	"gdelttrends/internal/persistence"
)

type fakeStore struct {
	mu     sync.Mutex
	trends map[core.Key]core.Trend
}

func newFakeStore() *fakeStore {
	return &fakeStore{trends: make(map[core.Key]core.Trend)}
}

func (f *fakeStore) UpsertTrend(ctx context.Context, trend core.Trend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trends[trend.Key()] = trend
	return nil
}

func (f *fakeStore) FindTrend(ctx context.Context, query persistence.TrendQuery) (*core.Trend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trends[core.Key{Type: query.Type, Date: query.Date, Category: query.Category}]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) FindTrends(ctx context.Context, query persistence.TrendQuery) ([]core.Trend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Trend
	for _, t := range f.trends {
		if t.Type == query.Type {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) Ping(ctx context.Context) error  { return nil }
func (f *fakeStore) Close(ctx context.Context) error { return nil }

type fakeCache struct {
	mu   sync.Mutex
	sets int
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (f *fakeCache) SetWithTTL(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	return nil
}
func (f *fakeCache) Del(ctx context.Context, key string) error { return nil }
func (f *fakeCache) Close() error                              { return nil }

func TestAggregateFromFileWritesAllCategories(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{}
	agg := New(store, cache, 50, 15)

	collector := &core.Collector{
		Themes:              []string{"economy", "economy", "politics"},
		Persons:             []string{"jane doe"},
		Orgs:                []string{"acme corp"},
		Locations:           []string{"paris"},
		DocumentIdentifiers: []string{"http://example.com/a", "http://example.com/a", "http://example.com/b"},
	}

	ts := time.Date(2026, 7, 15, 12, 30, 0, 0, time.UTC)
	if err := agg.AggregateFromFile(context.Background(), collector, ts, core.CategoryAll); err != nil {
		t.Fatalf("AggregateFromFile returned error: %v", err)
	}

	themes, err := store.FindTrend(context.Background(), persistence.TrendQuery{Type: core.TrendRealtime, Date: "2026-07-15", Category: core.CategoryThemes})
	if err != nil || themes == nil {
		t.Fatalf("Expected a themes trend to be persisted, err=%v", err)
	}
	if len(themes.Keywords) != 2 || themes.Keywords[0].Word != "economy" || themes.Keywords[0].Count != 2 {
		t.Errorf("Expected economy:2 ranked first, got %v", themes.Keywords)
	}

	docs, err := store.FindTrend(context.Background(), persistence.TrendQuery{Type: core.TrendRealtime, Date: "2026-07-15", Category: core.CategoryDocuments})
	if err != nil || docs == nil {
		t.Fatalf("Expected a documents trend to be persisted, err=%v", err)
	}
	if len(docs.Keywords) != 2 {
		t.Errorf("Expected 2 deduplicated document identifiers, got %d", len(docs.Keywords))
	}
	for _, kw := range docs.Keywords {
		if kw.Count != 1 {
			t.Errorf("Expected every document keyword to have count 1, got %+v", kw)
		}
	}
}

func TestAggregateDailyMergesCollectors(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{}
	agg := New(store, cache, 50, 15)

	collectors := []*core.Collector{
		{Themes: []string{"economy"}},
		{Themes: []string{"economy", "sports"}},
		nil,
	}

	if err := agg.AggregateDaily(context.Background(), collectors, "2026-07-15", core.CategoryThemes); err != nil {
		t.Fatalf("AggregateDaily returned error: %v", err)
	}

	themes, err := store.FindTrend(context.Background(), persistence.TrendQuery{Type: core.TrendDaily, Date: "2026-07-15", Category: core.CategoryThemes})
	if err != nil || themes == nil {
		t.Fatalf("Expected a daily themes trend to be persisted, err=%v", err)
	}
	if themes.Keywords[0].Word != "economy" || themes.Keywords[0].Count != 2 {
		t.Errorf("Expected economy:2 after merge, got %v", themes.Keywords)
	}
}

func TestAggregateCategoryFilterSkipsDocuments(t *testing.T) {
	store := newFakeStore()
	agg := New(store, &fakeCache{}, 50, 15)

	collector := &core.Collector{Themes: []string{"economy"}, DocumentIdentifiers: []string{"http://example.com/a"}}
	ts := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	if err := agg.AggregateFromFile(context.Background(), collector, ts, core.CategoryThemes); err != nil {
		t.Fatalf("AggregateFromFile returned error: %v", err)
	}

	docs, err := store.FindTrend(context.Background(), persistence.TrendQuery{Type: core.TrendRealtime, Date: "2026-07-15", Category: core.CategoryDocuments})
	if err != nil {
		t.Fatalf("FindTrend returned error: %v", err)
	}
	if docs != nil {
		t.Errorf("Expected no documents trend when category filter excludes it, got %v", docs)
	}
}
