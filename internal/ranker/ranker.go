// Package ranker folds raw token occurrences into ordered top-N keyword
// lists, the shape the realtime/daily aggregator persists.
package ranker

import (
	"sort"
	"strings"

	"gdelttrends/internal/core"
)

// RankWords folds a bag of words (case-insensitively, keyed and returned in
// lowercase) into deduplicated counts, sorts by descending count with
// first-seen order breaking ties, and returns the first topN.
func RankWords(bag []string, topN int) []core.Keyword {
	counts := make(map[string]int)
	order := make([]string, 0, len(bag))

	for _, raw := range bag {
		word := strings.ToLower(raw)
		if word == "" {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}

	keywords := make([]core.Keyword, len(order))
	for i, word := range order {
		keywords[i] = core.Keyword{Word: word, Count: counts[word]}
	}
	return RankByCount(keywords, topN)
}

// RankByCount folds identical words into a single entry summing counts and
// unioning document sets, sorts descending by count, and returns the first
// topN. Equal counts preserve first-seen order. Entries with an empty Word
// are skipped.
func RankByCount(items []core.Keyword, topN int) []core.Keyword {
	order := make([]string, 0, len(items))
	folded := make(map[string]*core.Keyword)

	for _, item := range items {
		if item.Word == "" {
			continue
		}
		existing, ok := folded[item.Word]
		if !ok {
			clone := item
			if item.Documents != nil {
				clone.Documents = make(map[string]bool, len(item.Documents))
				for doc := range item.Documents {
					clone.Documents[doc] = true
				}
			}
			folded[item.Word] = &clone
			order = append(order, item.Word)
			continue
		}
		existing.Count += item.Count
		if len(item.Documents) > 0 {
			if existing.Documents == nil {
				existing.Documents = make(map[string]bool, len(item.Documents))
			}
			for doc := range item.Documents {
				existing.Documents[doc] = true
			}
		}
	}

	result := make([]core.Keyword, len(order))
	for i, word := range order {
		result[i] = *folded[word]
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if topN > 0 && len(result) > topN {
		result = result[:topN]
	}
	return result
}
