package search

import "strings"

// questionWords carry no content in questions put to a news archive: function
// words plus the interrogatives and reporting verbs questions are phrased with.
var questionWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "were": true, "to": true, "of": true, "and": true, "in": true,
	"that": true, "it": true, "for": true, "on": true, "with": true, "as": true,
	"at": true, "this": true, "by": true, "from": true, "about": true,
	"did": true, "do": true, "does": true, "has": true, "have": true, "had": true,
	"what": true, "who": true, "whom": true, "which": true, "where": true,
	"when": true, "why": true, "how": true, "any": true, "there": true,
	"happened": true, "happen": true, "reported": true, "report": true,
	"say": true, "said": true, "tell": true, "me": true,
	"news": true, "article": true, "articles": true,
}

// queryTerms lowercases text, trims punctuation and possessives, and drops
// question words.
func queryTerms(text string) []string {
	words := strings.Fields(text)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		term := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		term = strings.TrimSuffix(strings.TrimSuffix(term, "'s"), "’s")
		if term != "" && !questionWords[term] {
			terms = append(terms, term)
		}
	}
	return terms
}

// mentionsAllTerms reports whether passage contains every content term of query.
// A query made only of question words mentions nothing.
func mentionsAllTerms(passage, query string) bool {
	want := queryTerms(query)
	if len(want) == 0 {
		return false
	}

	have := make(map[string]bool)
	for _, term := range queryTerms(passage) {
		have[term] = true
	}
	for _, term := range want {
		if !have[term] {
			return false
		}
	}
	return true
}
