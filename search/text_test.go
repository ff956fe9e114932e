package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"paris"}, queryTerms("What happened in Paris?"))
	assert.Equal(t, []string{"company", "merger", "get"}, queryTerms("Did Company A's merger get reported?"))
	assert.Equal(t, []string{"lisbon", "storm"}, queryTerms("Lisbon's storm"))
	assert.Empty(t, queryTerms("Who said what?"))
}

func TestMentionsAllTerms(t *testing.T) {
	passage := "Company A announced a merger with Company B in Paris."

	tests := []struct {
		query string
		want  bool
	}{
		{query: "What happened in Paris?", want: true},
		{query: "Which companies announced a merger in Paris?", want: false},
		{query: "Who announced the merger?", want: true},
		{query: "What happened in Lisbon?", want: false},
		{query: "What happened?", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, mentionsAllTerms(passage, tt.query))
		})
	}
}
