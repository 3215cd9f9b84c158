// Package persistence provides the trend document store abstraction
// consumed by the aggregator, scorer, and HTTP query surface.
package persistence

import (
	"context"

	"gdelttrends/internal/core"
)

// TrendQuery expresses the predicates the aggregator and scorer need:
// an exact date, a set of dates, or a half-open date range, always scoped
// to a type and (optionally) a category.
type TrendQuery struct {
	Type core.TrendType

	// Date selects a single day. Mutually exclusive with Dates and
	// DateFrom/DateTo.
	Date string

	// Dates selects date ∈ set.
	Dates []string

	// DateFrom/DateTo select date ∈ [DateFrom, DateTo) when both are set.
	DateFrom string
	DateTo   string

	// Category restricts to one category; CategoryAll (or empty) means
	// every category.
	Category core.Category

	// Limit caps the number of results; 0 means unlimited.
	Limit int
}

// TrendStore persists Trend documents keyed by (type, date, category).
// Implementations must make UpsertTrend atomic on that key: an absent
// document is created, a present one has its body replaced whole.
type TrendStore interface {
	UpsertTrend(ctx context.Context, trend core.Trend) error
	FindTrend(ctx context.Context, query TrendQuery) (*core.Trend, error)
	FindTrends(ctx context.Context, query TrendQuery) ([]core.Trend, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
