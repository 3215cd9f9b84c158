// Package store implements the trend document store on top of MongoDB.
package store

import (
	"context"
	"fmt"
	"time"

	"gdelttrends/internal/core"
	"gdelttrends/internal/persistence"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trendsCollection = "trends"

// MongoStore adapts a go.mongodb.org/mongo-driver client to
// persistence.TrendStore. Trend documents are whole-body upserts keyed on
// (type, date, category), matching the store's atomicity contract.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri and verifies connectivity before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	collection := client.Database(database).Collection(trendsCollection)
	if _, err := collection.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "type", Value: 1}, {Key: "date", Value: 1}, {Key: "category", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("mongo: create index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) UpsertTrend(ctx context.Context, trend core.Trend) error {
	filter := bson.D{
		{Key: "type", Value: trend.Type},
		{Key: "date", Value: trend.Date},
		{Key: "category", Value: trend.Category},
	}
	_, err := s.collection.ReplaceOne(ctx, filter, trend, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: upsert trend %s/%s/%s: %w", trend.Type, trend.Date, trend.Category, err)
	}
	return nil
}

func (s *MongoStore) FindTrend(ctx context.Context, query persistence.TrendQuery) (*core.Trend, error) {
	var trend core.Trend
	err := s.collection.FindOne(ctx, buildFilter(query)).Decode(&trend)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find trend: %w", err)
	}
	return &trend, nil
}

func (s *MongoStore) FindTrends(ctx context.Context, query persistence.TrendQuery) ([]core.Trend, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := s.collection.Find(ctx, buildFilter(query), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find trends: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var trends []core.Trend
	if err := cursor.All(ctx, &trends); err != nil {
		return nil, fmt.Errorf("mongo: decode trends: %w", err)
	}
	return trends, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func buildFilter(query persistence.TrendQuery) bson.D {
	filter := bson.D{{Key: "type", Value: query.Type}}

	switch {
	case query.Date != "":
		filter = append(filter, bson.E{Key: "date", Value: query.Date})
	case len(query.Dates) > 0:
		filter = append(filter, bson.E{Key: "date", Value: bson.D{{Key: "$in", Value: query.Dates}}})
	case query.DateFrom != "" && query.DateTo != "":
		filter = append(filter, bson.E{Key: "date", Value: bson.D{
			{Key: "$gte", Value: query.DateFrom},
			{Key: "$lt", Value: query.DateTo},
		}})
	}

	if query.Category != "" && query.Category != core.CategoryAll {
		filter = append(filter, bson.E{Key: "category", Value: query.Category})
	}

	return filter
}
