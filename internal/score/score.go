// Package score computes the composite novelty/volume score for a day's
// keywords against a trailing baseline window, with graceful-degradation
// fallback tiers for noisy or sparse upstream data.
package score

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"gdelttrends/internal/core"
	"gdelttrends/internal/fetch"
	"gdelttrends/internal/logger"
	"gdelttrends/internal/persistence"
	"gdelttrends/internal/tokenizer"

	"github.com/montanaflynn/stats"
)

const (
	maxParallelBaselineFetches = 31
	maxBackgroundFetches       = 8
	backgroundFetchTimeout     = 60 * time.Second
)

// Scorer computes ranked trends for a (date, category) pair, ensuring
// baseline coverage by invoking the Fetcher for any missing daily Trends.
type Scorer struct {
	store   persistence.TrendStore
	fetcher *fetch.Fetcher
	topN    int
}

// New builds a Scorer.
func New(store persistence.TrendStore, fetcher *fetch.Fetcher, topN int) *Scorer {
	return &Scorer{store: store, fetcher: fetcher, topN: topN}
}

// ScoreTrends is the scorer's entry point: it ensures baseline coverage,
// loads the current and baseline daily Trends, scores through fallback
// tiers until a non-empty result is produced, persists a ranked Trend, and
// returns the same keywords.
func (s *Scorer) ScoreTrends(ctx context.Context, date string, category core.Category, windowDays int) ([]core.Keyword, error) {
	if category == "" {
		category = core.CategoryThemes
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	topN := s.topN
	if topN <= 0 {
		topN = 50
	}

	if err := s.ensureBaselineCoverage(ctx, date, windowDays); err != nil {
		return nil, fmt.Errorf("score: ensure baseline coverage: %w", err)
	}

	current, baseline, err := s.load(ctx, date, category, windowDays)
	if err != nil {
		return nil, fmt.Errorf("score: load trends: %w", err)
	}
	if current == nil || len(current.Keywords) == 0 {
		return nil, nil
	}

	result := s.scoreTiers(current.Keywords, baseline, windowDays, topN)
	if len(result) == 0 {
		return nil, nil
	}

	ranked := core.Trend{
		Type:      core.TrendRanked,
		Date:      date,
		Category:  category,
		Timestamp: time.Now().UTC(),
		Keywords:  result,
	}
	if err := s.store.UpsertTrend(ctx, ranked); err != nil {
		return nil, fmt.Errorf("score: upsert ranked trend: %w", err)
	}
	return result, nil
}

// ensureBaselineCoverage computes D = {date, date-1, ..., date-windowDays},
// finds which of those days lack a persisted daily Trend, and fetches up to
// the first 31 of them awaited in parallel. Any remainder is fetched by a
// bounded pool of background tasks whose errors are swallowed.
func (s *Scorer) ensureBaselineCoverage(ctx context.Context, date string, windowDays int) error {
	refDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	days := make([]time.Time, 0, windowDays+1)
	for i := 0; i <= windowDays; i++ {
		days = append(days, refDate.AddDate(0, 0, -i))
	}

	existing, err := s.store.FindTrends(ctx, persistence.TrendQuery{
		Type:  core.TrendDaily,
		Dates: isoDates(days),
	})
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, t := range existing {
		present[t.Date] = true
	}

	var missing []time.Time
	for _, d := range days {
		if !present[d.Format("2006-01-02")] {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	awaited := missing
	var background []time.Time
	if len(awaited) > maxParallelBaselineFetches {
		awaited, background = missing[:maxParallelBaselineFetches], missing[maxParallelBaselineFetches:]
	}

	var wg sync.WaitGroup
	for _, day := range awaited {
		wg.Add(1)
		go func(day time.Time) {
			defer wg.Done()
			if err := s.fetcher.FetchDailyAndAggregate(ctx, day); err != nil {
				logger.Warn("score: baseline fetch failed", "date", day.Format("2006-01-02"), "error", err)
			}
		}(day)
	}
	wg.Wait()

	s.fetchBackground(background)
	return nil
}

// fetchBackground drains background through a small fixed worker pool so
// orphan fetches are bounded rather than spawned unboundedly; each runs
// against its own timeout, detached from the caller's context and errors.
func (s *Scorer) fetchBackground(days []time.Time) {
	if len(days) == 0 {
		return
	}
	go func() {
		sem := make(chan struct{}, maxBackgroundFetches)
		for _, day := range days {
			sem <- struct{}{}
			go func(day time.Time) {
				defer func() { <-sem }()
				ctx, cancel := context.WithTimeout(context.Background(), backgroundFetchTimeout)
				defer cancel()
				if err := s.fetcher.FetchDailyAndAggregate(ctx, day); err != nil {
					logger.Warn("score: background baseline fetch failed", "date", day.Format("2006-01-02"), "error", err)
				}
			}(day)
		}
	}()
}

func (s *Scorer) load(ctx context.Context, date string, category core.Category, windowDays int) (*core.Trend, []core.Trend, error) {
	current, err := s.store.FindTrend(ctx, persistence.TrendQuery{Type: core.TrendDaily, Date: date, Category: category})
	if err != nil {
		return nil, nil, err
	}

	refDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	from := refDate.AddDate(0, 0, -windowDays).Format("2006-01-02")

	baseline, err := s.store.FindTrends(ctx, persistence.TrendQuery{
		Type:     core.TrendDaily,
		Category: category,
		DateFrom: from,
		DateTo:   date,
	})
	if err != nil {
		return nil, nil, err
	}
	return current, baseline, nil
}

// scoreTiers attempts strict, then loose, then volume-only scoring, in
// order, until one produces a non-empty result. volume-only never fails to
// produce a result when current is non-empty, so the cascade as a whole
// only returns empty when the raw current-day keyword set itself is empty.
func (s *Scorer) scoreTiers(current []core.Keyword, baseline []core.Trend, windowDays, topN int) []core.Keyword {
	strictCurrent := filterNoise(current)
	strictBaseline := filterNoiseBaseline(baseline)
	if result := scoreCore(strictCurrent, baselineMap(strictBaseline), windowDays, topN); len(result) > 0 {
		return result
	}

	looseCurrent := filterNumericVectors(current)
	looseBaseline := filterNumericVectorsBaseline(baseline)
	if result := scoreCore(looseCurrent, baselineMap(looseBaseline), windowDays, topN); len(result) > 0 {
		return result
	}

	return volumeOnly(current, topN)
}

// scoreCore computes the composite score for every current keyword against
// baselineMap's aggregate counts, normalizes linearly so the maximum raw
// score maps to 100, and returns the top-N by descending score.
func scoreCore(current []core.Keyword, baseline map[string]int, windowDays, topN int) []core.Keyword {
	if len(current) == 0 {
		return nil
	}
	if windowDays <= 0 {
		windowDays = 1
	}

	mu, sigma := populationStats(baseline)

	type scored struct {
		word  string
		count int
		raw   float64
	}
	raws := make([]scored, len(current))
	maxRaw := math.Inf(-1)

	for i, kw := range current {
		base := float64(baseline[kw.Word])
		volume := math.Log(1 + float64(kw.Count))
		growth := (float64(kw.Count) + 1) / (base/float64(windowDays) + 1)
		z := 0.0
		if sigma > 0 {
			z = (float64(kw.Count) - mu) / sigma
		}
		raw := 0.6*volume + 0.3*math.Log(1+growth) + 0.1*math.Max(0, z)
		raws[i] = scored{word: kw.Word, count: kw.Count, raw: raw}
		if raw > maxRaw {
			maxRaw = raw
		}
	}

	result := make([]core.Keyword, len(raws))
	for i, r := range raws {
		score := 0
		if maxRaw > 0 {
			score = int(math.Round(r.raw / maxRaw * 100))
		}
		result[i] = core.Keyword{Word: r.word, Count: r.count, Score: score}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if topN > 0 && len(result) > topN {
		result = result[:topN]
	}
	return result
}

// populationStats computes the population mean and standard deviation of
// baseline's values; an empty map is treated as the single value [0].
func populationStats(baseline map[string]int) (mean, stddev float64) {
	values := make(stats.Float64Data, 0, len(baseline))
	for _, v := range baseline {
		values = append(values, float64(v))
	}
	if len(values) == 0 {
		values = stats.Float64Data{0}
	}

	mean, err := stats.Mean(values)
	if err != nil {
		logger.Warn("score: mean computation failed", "error", err)
		return 0, 0
	}
	stddev, err = stats.StandardDeviationPopulation(values)
	if err != nil {
		logger.Warn("score: stddev computation failed", "error", err)
		return mean, 0
	}
	return mean, stddev
}

// volumeOnly is the third scoring tier: current keywords filtered for
// noise, sorted by descending raw count, every result scored 100. It is
// the guaranteed-non-empty floor of the cascade — if noise filtering would
// empty the set entirely (every keyword the upstream feed produced was
// noise), every current keyword is kept unfiltered instead, so a non-empty
// raw current-day set never produces an empty scored result.
func volumeOnly(current []core.Keyword, topN int) []core.Keyword {
	filtered := filterNoise(current)
	if len(filtered) == 0 {
		filtered = make([]core.Keyword, len(current))
		copy(filtered, current)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Count > filtered[j].Count
	})
	if topN > 0 && len(filtered) > topN {
		filtered = filtered[:topN]
	}
	result := make([]core.Keyword, len(filtered))
	for i, kw := range filtered {
		result[i] = core.Keyword{Word: kw.Word, Count: kw.Count, Score: 100}
	}
	return result
}

func filterNoise(keywords []core.Keyword) []core.Keyword {
	return tokenizer.FilterNoise(keywords)
}

func filterNumericVectors(keywords []core.Keyword) []core.Keyword {
	out := make([]core.Keyword, 0, len(keywords))
	for _, kw := range keywords {
		if !tokenizer.IsNumericVector(kw.Word) {
			out = append(out, kw)
		}
	}
	return out
}

func filterNoiseBaseline(trends []core.Trend) []core.Trend {
	out := make([]core.Trend, len(trends))
	for i, t := range trends {
		out[i] = t
		out[i].Keywords = filterNoise(t.Keywords)
	}
	return out
}

func filterNumericVectorsBaseline(trends []core.Trend) []core.Trend {
	out := make([]core.Trend, len(trends))
	for i, t := range trends {
		out[i] = t
		out[i].Keywords = filterNumericVectors(t.Keywords)
	}
	return out
}

// baselineMap sums keyword counts across every baseline day's Trend.
func baselineMap(trends []core.Trend) map[string]int {
	m := make(map[string]int)
	for _, t := range trends {
		for _, kw := range t.Keywords {
			m[kw.Word] += kw.Count
		}
	}
	return m
}

func isoDates(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
