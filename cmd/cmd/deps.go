package cmd

import (
	"context"
	"fmt"

	"gdelttrends/internal/aggregate"
	"gdelttrends/internal/cache"
	"gdelttrends/internal/config"
	"gdelttrends/internal/fetch"
	"gdelttrends/internal/persistence"
	"gdelttrends/internal/score"
	"gdelttrends/internal/store"
)

// deps bundles the wired pipeline components shared by the serve, fetch,
// and score commands.
type deps struct {
	cfg        *config.Config
	trendStore persistence.TrendStore
	trendCache cache.Cache
	aggregator *aggregate.Aggregator
	fetcher    *fetch.Fetcher
	scorer     *score.Scorer
}

// buildDeps connects to Mongo and Redis and wires the pipeline components
// on top of them.
func buildDeps(ctx context.Context) (*deps, error) {
	cfg := config.Get()

	mongoStore, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	aggregator := aggregate.New(mongoStore, redisCache, cfg.TopN, cfg.Realtime.IntervalMin)
	fetcher := fetch.New(cfg.GDELT.BaseURL, cfg.GDELT.DailyBaseURL, aggregator)
	scorer := score.New(mongoStore, fetcher, cfg.TopN)

	return &deps{
		cfg:        cfg,
		trendStore: mongoStore,
		trendCache: redisCache,
		aggregator: aggregator,
		fetcher:    fetcher,
		scorer:     scorer,
	}, nil
}

func (d *deps) Close(ctx context.Context) {
	_ = d.trendStore.Close(ctx)
	_ = d.trendCache.Close()
}
