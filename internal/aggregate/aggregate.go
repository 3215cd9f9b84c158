// Package aggregate merges collector output into realtime and daily Trend
// documents and upserts them to the store and cache.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gdelttrends/internal/cache"
	"gdelttrends/internal/core"
	"gdelttrends/internal/logger"
	"gdelttrends/internal/persistence"
	"gdelttrends/internal/ranker"
)

const (
	realtimeKeyPrefix = "realtime"
	dailyKeyPrefix    = "daily"
	dailyCacheTTL     = 24 * 60 * 60
)

// Aggregator ranks collector bags into Trend documents and upserts them to
// a TrendStore and Cache.
type Aggregator struct {
	store               persistence.TrendStore
	cache               cache.Cache
	topN                int
	realtimeIntervalMin int
}

// New builds an Aggregator. topN bounds every persisted Trend's keyword
// list; realtimeIntervalMin sets the TTL (in minutes) used for realtime
// cache entries.
func New(store persistence.TrendStore, c cache.Cache, topN, realtimeIntervalMin int) *Aggregator {
	return &Aggregator{store: store, cache: c, topN: topN, realtimeIntervalMin: realtimeIntervalMin}
}

// AggregateFromFile ranks a single fetched collector into realtime Trend
// documents for the requested category (or all four entity categories
// plus documents, when category is core.CategoryAll) and upserts them.
func (a *Aggregator) AggregateFromFile(ctx context.Context, collector *core.Collector, timestamp time.Time, category core.Category) error {
	date := isoDate(timestamp)
	ttl := a.realtimeIntervalMin * 60
	return a.write(ctx, core.TrendRealtime, date, timestamp, collector, category, realtimeKeyPrefix, ttl)
}

// AggregateDaily concatenates every per-15-minute collector's bags across a
// full day and upserts daily Trend documents for the requested category.
func (a *Aggregator) AggregateDaily(ctx context.Context, collectors []*core.Collector, date string, category core.Category) error {
	merged := &core.Collector{}
	for _, c := range collectors {
		if c != nil {
			merged.Merge(c)
		}
	}
	timestamp := middayUTC(date)
	return a.write(ctx, core.TrendDaily, date, timestamp, merged, category, dailyKeyPrefix, dailyCacheTTL)
}

// write ranks merged's bags for every category implied by category and
// upserts each resulting Trend to the store, firing the matching cache
// write concurrently.
func (a *Aggregator) write(ctx context.Context, trendType core.TrendType, date string, timestamp time.Time, merged *core.Collector, category core.Category, keyPrefix string, ttlSeconds int) error {
	categories := categoriesFor(category)

	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for _, cat := range categories {
		keywords := ranker.RankWords(merged.Bag(cat), a.topN)
		trend := core.Trend{Type: trendType, Date: date, Category: cat, Timestamp: timestamp, Keywords: keywords}

		if err := a.store.UpsertTrend(ctx, trend); err != nil {
			return fmt.Errorf("aggregate: upsert %s/%s/%s: %w", trendType, date, cat, err)
		}

		wg.Add(1)
		go func(trend core.Trend, cat core.Category) {
			defer wg.Done()
			if err := a.writeCache(ctx, keyPrefix, date, cat, trend, ttlSeconds); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(trend, cat)
	}

	if len(merged.DocumentIdentifiers) > 0 && (category == core.CategoryAll || category == core.CategoryDocuments) {
		docsTrend := documentsTrend(trendType, date, timestamp, merged.DocumentIdentifiers, a.topN)
		if err := a.store.UpsertTrend(ctx, docsTrend); err != nil {
			return fmt.Errorf("aggregate: upsert %s/%s/documents: %w", trendType, date, err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.writeCache(ctx, keyPrefix, date, core.CategoryDocuments, docsTrend, ttlSeconds); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	if firstErr != nil {
		logger.Warn("aggregate: cache write failed", "error", firstErr)
	}
	return nil
}

func (a *Aggregator) writeCache(ctx context.Context, keyPrefix, date string, cat core.Category, trend core.Trend, ttlSeconds int) error {
	if a.cache == nil {
		return nil
	}
	body, err := json.Marshal(trend)
	if err != nil {
		return fmt.Errorf("aggregate: marshal cache value: %w", err)
	}
	key := fmt.Sprintf("%s:%s:%s", keyPrefix, date, cat)
	return a.cache.SetWithTTL(ctx, key, body, ttlSeconds)
}

// categoriesFor expands the requested category filter into the concrete
// entity categories a caller asked to (re)compute.
func categoriesFor(category core.Category) []core.Category {
	if category == "" || category == core.CategoryAll {
		return core.AllCategories
	}
	if category == core.CategoryDocuments {
		return nil
	}
	return []core.Category{category}
}

// documentsTrend builds the deduplicated documents-category Trend per
// invariant 5: each distinct document identifier becomes a keyword with
// count 1, truncated to topN.
func documentsTrend(trendType core.TrendType, date string, timestamp time.Time, ids []string, topN int) core.Trend {
	seen := make(map[string]bool, len(ids))
	keywords := make([]core.Keyword, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		keywords = append(keywords, core.Keyword{Word: id, Count: 1})
	}
	if topN > 0 && len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return core.Trend{Type: trendType, Date: date, Category: core.CategoryDocuments, Timestamp: timestamp, Keywords: keywords}
}

func isoDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func middayUTC(date string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
}
