package ranker

import (
	"testing"

	"gdelttrends/internal/core"
)

func TestRankWordsCountsAndOrder(t *testing.T) {
	bag := []string{"economy", "politics", "economy", "sports", "economy", "politics"}
	got := RankWords(bag, 10)

	if len(got) != 3 {
		t.Fatalf("Expected 3 keywords, got %d", len(got))
	}
	if got[0].Word != "economy" || got[0].Count != 3 {
		t.Errorf("Expected economy:3 first, got %+v", got[0])
	}
	if got[1].Word != "politics" || got[1].Count != 2 {
		t.Errorf("Expected politics:2 second, got %+v", got[1])
	}
	if got[2].Word != "sports" || got[2].Count != 1 {
		t.Errorf("Expected sports:1 third, got %+v", got[2])
	}
}

func TestRankWordsTopNTruncates(t *testing.T) {
	bag := []string{"a", "b", "c", "d"}
	got := RankWords(bag, 2)
	if len(got) != 2 {
		t.Errorf("Expected topN=2 to truncate to 2 entries, got %d", len(got))
	}
}

func TestRankWordsTieBreaksByFirstSeen(t *testing.T) {
	bag := []string{"zebra", "apple", "mango"}
	got := RankWords(bag, 10)

	if got[0].Word != "zebra" || got[1].Word != "apple" || got[2].Word != "mango" {
		t.Errorf("Expected insertion order preserved among equal counts, got %v", got)
	}
}

func TestRankByCountFoldsDuplicateWordsAndUnionsDocuments(t *testing.T) {
	items := []core.Keyword{
		{Word: "flood", Count: 2, Documents: map[string]bool{"doc1": true}},
		{Word: "flood", Count: 3, Documents: map[string]bool{"doc2": true}},
	}

	got := RankByCount(items, 10)

	if len(got) != 1 {
		t.Fatalf("Expected folding to a single entry, got %d", len(got))
	}
	if got[0].Count != 5 {
		t.Errorf("Expected folded Count to be 5, got %d", got[0].Count)
	}
	if len(got[0].Documents) != 2 {
		t.Errorf("Expected union of 2 documents, got %d", len(got[0].Documents))
	}
}

func TestRankByCountSkipsEmptyWord(t *testing.T) {
	items := []core.Keyword{{Word: "", Count: 5}, {Word: "valid", Count: 1}}
	got := RankByCount(items, 10)

	if len(got) != 1 || got[0].Word != "valid" {
		t.Errorf("Expected only the non-empty word to survive, got %v", got)
	}
}
