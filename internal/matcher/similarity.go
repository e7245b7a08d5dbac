package matcher

import "strings"

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {}, "by": {},
	"to": {}, "for": {}, "will": {}, "be": {}, "is": {}, "at": {}, "or": {},
}

// tokenize lowercases, strips punctuation and stop words, producing the
// bag of words used by the Jaccard similarity below.
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	out := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}

		out[f] = struct{}{}
	}

	return out
}

// TitleSimilarity is the Jaccard token-overlap score between two market
// questions: |intersection| / |union|, in [0,1].
func TitleSimilarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)

	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}

	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
