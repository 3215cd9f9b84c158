// Package core holds the shared domain types passed between the fetch,
// collection, aggregation, and scoring stages of the trend pipeline.
package core

import "time"

// TrendType distinguishes the three flavors of persisted Trend document.
type TrendType string

const (
	TrendRealtime TrendType = "realtime"
	TrendDaily    TrendType = "daily"
	TrendRanked   TrendType = "ranked"
)

// Category is the entity class a Trend's keywords were extracted from.
type Category string

const (
	CategoryThemes    Category = "themes"
	CategoryPersons   Category = "persons"
	CategoryOrgs      Category = "orgs"
	CategoryLocations Category = "locations"
	CategoryDocuments Category = "documents"
	CategoryAll       Category = "all"
)

// AllCategories are the entity categories the collector extracts per record,
// excluding the synthetic "documents" and "all" pseudo-categories.
var AllCategories = []Category{CategoryThemes, CategoryPersons, CategoryOrgs, CategoryLocations}

// Keyword is a single ranked entry within a Trend's keyword list.
//
// Score is only populated on ranked trends. Documents is carried (and
// unioned across folded duplicates) by ranker.RankByCount when a caller
// supplies it; the aggregator's bag-based ranking does not populate it, and
// it is never serialized to JSON or BSON.
type Keyword struct {
	Word      string          `json:"word" bson:"word"`
	Count     int             `json:"count" bson:"count"`
	Score     int             `json:"score,omitempty" bson:"score,omitempty"`
	Documents map[string]bool `json:"-" bson:"-"`
}

// Trend is a materialized aggregation keyed by (Type, Date, Category).
type Trend struct {
	Type      TrendType `json:"type" bson:"type"`
	Date      string    `json:"date" bson:"date"` // ISO YYYY-MM-DD, UTC
	Category  Category  `json:"category" bson:"category"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Keywords  []Keyword `json:"keywords" bson:"keywords"`
}

// Key identifies the (type, date, category) upsert key of a Trend. Per the
// data model, at most one persisted Trend exists per Key; writes are upserts
// and the body is always replaced whole.
type Key struct {
	Type     TrendType
	Date     string
	Category Category
}

func (t Trend) Key() Key {
	return Key{Type: t.Type, Date: t.Date, Category: t.Category}
}

// GetWord satisfies tokenizer.FilterNoise's type constraint.
func (k Keyword) GetWord() string {
	return k.Word
}

// Collector is the transient per-file aggregation buffer produced by the GKG
// stream collector. Bags preserve multiplicity; insertion order is
// irrelevant to correctness but the ranker that later folds a bag into
// Keywords preserves first-seen order for tie-breaking.
type Collector struct {
	Themes              []string
	Persons             []string
	Orgs                []string
	Locations           []string
	DocumentIdentifiers []string
}

// Bag returns the collector's bag for the given entity category. Category
// "documents" is handled separately by callers since it is not a GKG entity
// column but a derived view over DocumentIdentifiers.
func (c *Collector) Bag(cat Category) []string {
	switch cat {
	case CategoryThemes:
		return c.Themes
	case CategoryPersons:
		return c.Persons
	case CategoryOrgs:
		return c.Orgs
	case CategoryLocations:
		return c.Locations
	default:
		return nil
	}
}

// Merge concatenates another collector's bags into this one, used when
// combining the 96 fifteen-minute collectors of a day into one daily bag.
func (c *Collector) Merge(other *Collector) {
	c.Themes = append(c.Themes, other.Themes...)
	c.Persons = append(c.Persons, other.Persons...)
	c.Orgs = append(c.Orgs, other.Orgs...)
	c.Locations = append(c.Locations, other.Locations...)
	c.DocumentIdentifiers = append(c.DocumentIdentifiers, other.DocumentIdentifiers...)
}

// JobType mirrors the GDELT artifact cadence a fetch/aggregate call is
// operating against.
type JobType string

const (
	JobRealtime JobType = "realtime"
	JobDaily    JobType = "daily"
)
