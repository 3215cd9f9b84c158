package tokenizer

import (
	"reflect"
	"testing"
)

func TestSplitAndClean(t *testing.T) {
	field := "Economy,National;  POLITICS ;the;;www.example.com;1.2,3.4,5.6,7.8;ab"
	got := SplitAndClean(field)
	want := []string{"economy,national", "politics"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitAndClean(%q) = %v, want %v", field, got, want)
	}
}

func TestSplitAndCleanEmpty(t *testing.T) {
	if got := SplitAndClean(""); got != nil {
		t.Errorf("Expected nil for empty field, got %v", got)
	}
}

func TestIsNoise(t *testing.T) {
	cases := []struct {
		token string
		want  bool
	}{
		{"ab", true},
		{"economy", false},
		{"https://example.com/path", true},
		{"example.com", true},
		{"1.2,3.4,5.6,7.8", true},
		{"12a", true},
		{"paris", false},
	}

	for _, tc := range cases {
		if got := IsNoise(tc.token); got != tc.want {
			t.Errorf("IsNoise(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestIsNumericVector(t *testing.T) {
	if !IsNumericVector("1.5,2.5,3.5,4.5") {
		t.Error("Expected 4-component comma list to be a numeric vector")
	}
	if IsNumericVector("48.8566,2.3522") {
		t.Error("Expected a 2-component coordinate pair not to be a numeric vector")
	}
}

type fakeKeyword struct {
	word string
}

func (f fakeKeyword) GetWord() string { return f.word }

func TestFilterNoise(t *testing.T) {
	in := []fakeKeyword{{"economy"}, {"ab"}, {"paris"}, {"example.com"}}
	out := FilterNoise(in)

	if len(out) != 2 {
		t.Fatalf("Expected 2 surviving keywords, got %d", len(out))
	}
	if out[0].word != "economy" || out[1].word != "paris" {
		t.Errorf("Expected [economy paris], got %v", out)
	}
}
