// Package fetch locates, downloads, and decompresses GDELT GKG archives,
// and drives the fetch→collect→aggregate pipeline for a single artifact.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gdelttrends/internal/aggregate"
	"gdelttrends/internal/core"
	"gdelttrends/internal/gkg"
	"gdelttrends/internal/logger"
)

const (
	realtimeTimeout = 300 * time.Second
	dailyTimeout    = 60 * time.Second
)

// Fetcher retrieves GDELT GKG artifacts over HTTP and hands them to the
// collector and aggregator.
type Fetcher struct {
	httpClient   *http.Client
	baseURL      string
	dailyBaseURL string
	aggregator   *aggregate.Aggregator
}

// New builds a Fetcher. baseURL and dailyBaseURL are the GDELT endpoint
// roots for 15-minute and daily archives respectively.
func New(baseURL, dailyBaseURL string, aggregator *aggregate.Aggregator) *Fetcher {
	return &Fetcher{
		httpClient:   &http.Client{},
		baseURL:      baseURL,
		dailyBaseURL: dailyBaseURL,
		aggregator:   aggregator,
	}
}

// RealtimeFilename returns the 15-minute archive name for t, with minutes
// floored to the nearest quarter hour.
func RealtimeFilename(t time.Time) string {
	floored := floorToQuarterHour(t)
	return floored.UTC().Format("200601021504") + "00.gkg.csv.zip"
}

// DailyFilename returns the daily rollup archive name for t's calendar day.
func DailyFilename(t time.Time) string {
	return t.UTC().Format("20060102") + ".gkg.csv.zip"
}

func floorToQuarterHour(t time.Time) time.Time {
	t = t.UTC()
	minute := (t.Minute() / 15) * 15
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, time.UTC)
}

// FetchAndProcess implements the realtime ingestion path with its
// daily→daily-yesterday fallback ladder. jobType selects the cadence; a
// zero value defaults to core.JobRealtime.
func (f *Fetcher) FetchAndProcess(ctx context.Context, timestamp time.Time, jobType core.JobType) error {
	if jobType == "" {
		jobType = core.JobRealtime
	}

	if jobType == core.JobRealtime {
		err := f.fetchRealtimeAndAggregate(ctx, timestamp)
		if err == nil {
			return nil
		}
		logger.Warn("fetch: realtime fetch failed, falling back to daily ladder", "error", err, "timestamp", timestamp)
	}

	return f.fallbackDaily(ctx, timestamp)
}

func (f *Fetcher) fetchRealtimeAndAggregate(ctx context.Context, timestamp time.Time) error {
	collector, err := f.FetchRealtimeCollector(ctx, timestamp)
	if err != nil {
		return err
	}
	return f.aggregator.AggregateFromFile(ctx, collector, timestamp, core.CategoryAll)
}

// fallbackDaily tries the daily archive for today, then yesterday,
// persisting whichever succeeds first as a daily Trend.
func (f *Fetcher) fallbackDaily(ctx context.Context, reference time.Time) error {
	for offset := 0; offset <= 1; offset++ {
		day := reference.UTC().AddDate(0, 0, -offset)
		collector, err := f.FetchDailyCollector(ctx, day)
		if err != nil {
			logger.Warn("fetch: daily fallback attempt failed", "offset", offset, "error", err)
			continue
		}
		date := day.Format("2006-01-02")
		if err := f.aggregator.AggregateDaily(ctx, []*core.Collector{collector}, date, core.CategoryAll); err != nil {
			return fmt.Errorf("fetch: aggregate daily fallback for %s: %w", date, err)
		}
		return nil
	}
	return fmt.Errorf("fetch: all fallback attempts failed for %s", reference.Format("2006-01-02"))
}

// FetchRealtimeCollector downloads and parses the 15-minute archive
// covering timestamp, without aggregating it.
func (f *Fetcher) FetchRealtimeCollector(ctx context.Context, timestamp time.Time) (*core.Collector, error) {
	url := f.baseURL + "/" + RealtimeFilename(timestamp)
	data, err := f.downloadAndUnzip(ctx, url, realtimeTimeout)
	if err != nil {
		return nil, err
	}
	collector, skipped, err := gkg.Collect(bytes.NewReader(data), gkg.Columns{})
	if err != nil {
		return nil, fmt.Errorf("fetch: collect %s: %w", url, err)
	}
	if skipped > 0 {
		logger.Warn("fetch: rows skipped during collection", "url", url, "skipped", skipped)
	}
	return collector, nil
}

// FetchDailyCollector downloads and parses the daily rollup archive for
// day's calendar date, without aggregating it.
func (f *Fetcher) FetchDailyCollector(ctx context.Context, day time.Time) (*core.Collector, error) {
	url := f.dailyBaseURL + "/" + DailyFilename(day)
	data, err := f.downloadAndUnzip(ctx, url, dailyTimeout)
	if err != nil {
		return nil, err
	}
	collector, skipped, err := gkg.Collect(bytes.NewReader(data), gkg.Columns{})
	if err != nil {
		return nil, fmt.Errorf("fetch: collect %s: %w", url, err)
	}
	if skipped > 0 {
		logger.Warn("fetch: rows skipped during collection", "url", url, "skipped", skipped)
	}
	return collector, nil
}

// FetchDailyAndAggregate downloads the daily archive for day and upserts it
// directly as a daily Trend, used by the scorer's baseline-ensure phase.
func (f *Fetcher) FetchDailyAndAggregate(ctx context.Context, day time.Time) error {
	collector, err := f.FetchDailyCollector(ctx, day)
	if err != nil {
		return err
	}
	date := day.Format("2006-01-02")
	return f.aggregator.AggregateDaily(ctx, []*core.Collector{collector}, date, core.CategoryAll)
}

// downloadAndUnzip GETs url with the given timeout and returns the bytes of
// its single contained archive entry.
func (f *Fetcher) downloadAndUnzip(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %s: %w", url, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body of %s: %w", url, err)
	}

	zipReader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("fetch: open zip from %s: %w", url, err)
	}
	if len(zipReader.File) == 0 {
		return nil, fmt.Errorf("fetch: %s contained no entries", url)
	}

	entry, err := zipReader.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("fetch: open zip entry in %s: %w", url, err)
	}
	defer func() { _ = entry.Close() }()

	decompressed, err := io.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("fetch: decompress entry in %s: %w", url, err)
	}
	return decompressed, nil
}
