// Package tokenizer splits and normalizes the raw semicolon-delimited entity
// fields in a GDELT GKG record and classifies noise tokens that should never
// reach a Trend's keyword list.
package tokenizer

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	trimNonWordRegex   = regexp.MustCompile(`^[^\p{L}\p{N}]+|[^\p{L}\p{N}]+$`)
	urlRegex           = regexp.MustCompile(`^https?://|^www\.`)
	bareDomainRegex    = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	numericVectorRegex = regexp.MustCompile(`^-?\d+(\.\d+)?(,-?\d+(\.\d+)?){3,}$`)
	digitRegex         = regexp.MustCompile(`[0-9]`)
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"in": true, "for": true, "on": true, "with": true, "to": true, "from": true,
	"by": true, "at": true, "is": true, "was": true, "are": true,
}

// SplitAndClean treats field as a semicolon-delimited list. Each part is
// lowercased, stripped of leading/trailing non-word characters, has internal
// whitespace collapsed to single spaces, then dropped if it ends up empty,
// a stopword, or noise.
func SplitAndClean(field string) []string {
	if field == "" {
		return nil
	}

	parts := strings.Split(field, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.ToLower(part)
		token = trimNonWordRegex.ReplaceAllString(token, "")
		token = whitespaceRegex.ReplaceAllString(token, " ")
		token = strings.TrimSpace(token)

		if token == "" || stopWords[token] || IsNoise(token) {
			continue
		}
		out = append(out, token)
	}
	return out
}

// IsNoise reports whether token is non-semantic: too short, a URL, a bare
// domain, a numeric vector, or mostly digits.
func IsNoise(token string) bool {
	if len(token) < 3 {
		return true
	}
	if urlRegex.MatchString(token) {
		return true
	}
	if !strings.Contains(token, " ") && bareDomainRegex.MatchString(token) {
		return true
	}
	if IsNumericVector(token) {
		return true
	}
	if digitRatio(token) > 0.6 {
		return true
	}
	return false
}

// IsNumericVector reports whether token is four or more comma-separated
// integer or decimal numbers, e.g. "1.2,3.4,5.6,7.8".
func IsNumericVector(token string) bool {
	return numericVectorRegex.MatchString(token)
}

func digitRatio(token string) float64 {
	if token == "" {
		return 0
	}
	digits := len(digitRegex.FindAllString(token, -1))
	return float64(digits) / float64(len(token))
}

// FilterNoise drops keywords whose Word is noise. It is used by the scorer's
// fallback tiers, which re-derive noise filtering from persisted (and
// potentially already-stale) trend documents.
func FilterNoise[K interface{ GetWord() string }](keywords []K) []K {
	out := make([]K, 0, len(keywords))
	for _, kw := range keywords {
		if !IsNoise(kw.GetWord()) {
			out = append(out, kw)
		}
	}
	return out
}
