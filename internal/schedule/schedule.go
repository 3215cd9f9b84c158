// Package schedule runs the two recurring ingestion jobs — realtime
// fetch-and-aggregate and the daily rollup — on UTC wall-clock ticks.
package schedule

import (
	"context"
	"time"

	"gdelttrends/internal/aggregate"
	"gdelttrends/internal/core"
	"gdelttrends/internal/fetch"
	"gdelttrends/internal/logger"
)

// Scheduler periodically triggers the fetch→collect→aggregate pipeline.
type Scheduler struct {
	fetcher             *fetch.Fetcher
	aggregator          *aggregate.Aggregator
	realtimeIntervalMin int
	dailyHourUTC        int
}

// New builds a Scheduler. realtimeIntervalMin is the realtime job's period
// in minutes; dailyHourUTC is the UTC hour the daily rollup runs at.
func New(fetcher *fetch.Fetcher, aggregator *aggregate.Aggregator, realtimeIntervalMin, dailyHourUTC int) *Scheduler {
	return &Scheduler{
		fetcher:             fetcher,
		aggregator:          aggregator,
		realtimeIntervalMin: realtimeIntervalMin,
		dailyHourUTC:        dailyHourUTC,
	}
}

// Start launches the realtime and daily jobs as background goroutines. It
// returns immediately; both jobs run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runRealtime(ctx)
	go s.runDaily(ctx)
}

func (s *Scheduler) runRealtime(ctx context.Context) {
	interval := time.Duration(s.realtimeIntervalMin) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			go func(now time.Time) {
				if err := s.fetcher.FetchAndProcess(ctx, now, core.JobRealtime); err != nil {
					logger.Warn("schedule: realtime job failed", "error", err, "timestamp", now)
				}
			}(now)
		}
	}
}

// runDaily fires the rollup once per UTC day when the wall clock crosses
// dailyHourUTC. It polls once a minute rather than sleeping to the exact
// instant so a missed tick (e.g. process startup mid-hour) self-corrects on
// the next minute rather than waiting a full day.
func (s *Scheduler) runDaily(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastRun := ""
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			now = now.UTC()
			today := now.Format("2006-01-02")
			if now.Hour() == s.dailyHourUTC && lastRun != today {
				lastRun = today
				go s.runDailyRollup(ctx, today)
			}
		}
	}
}

// runDailyRollup fetches the last 96 fifteen-minute slots of date
// sequentially (bounding memory to one archive at a time) and merges them
// into a single daily aggregation. Individual slot failures are logged and
// skipped; they do not abort the rollup.
func (s *Scheduler) runDailyRollup(ctx context.Context, date string) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		logger.Warn("schedule: invalid rollup date", "date", date, "error", err)
		return
	}

	collectors := make([]*core.Collector, 0, 96)
	for slot := 0; slot < 96; slot++ {
		timestamp := day.Add(time.Duration(slot) * 15 * time.Minute)
		collector, err := s.fetcher.FetchRealtimeCollector(ctx, timestamp)
		if err != nil {
			logger.Warn("schedule: daily rollup slot fetch failed", "timestamp", timestamp, "error", err)
			continue
		}
		collectors = append(collectors, collector)
	}

	if err := s.aggregator.AggregateDaily(ctx, collectors, date, core.CategoryAll); err != nil {
		logger.Warn("schedule: daily rollup aggregate failed", "date", date, "error", err)
	}
}
