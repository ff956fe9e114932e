package extract

import (
	"errors"
	"testing"

	"github.com/poiesic/newsdesk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis_Flat(t *testing.T) {
	response := `{"tone": "positive", "sentiment_score": 0.8,
		"keywords": ["merger", "growth"], "topics": ["business"],
		"people": ["Jane Doe"], "organizations": ["Company A", "Company B"],
		"locations": ["Paris"]}`

	analysis, err := ParseAnalysis(response)
	require.NoError(t, err)

	assert.Equal(t, "positive", analysis.Tone.Tone)
	assert.InDelta(t, 0.8, analysis.Tone.SentimentScore, 1e-9)
	assert.Equal(t, []string{"merger", "growth"}, analysis.Extracted.Keywords)
	assert.Equal(t, []string{"business"}, analysis.Extracted.Topics)
	assert.Equal(t, []string{"Jane Doe"}, analysis.Extracted.People)
	assert.Equal(t, []string{"Company A", "Company B"}, analysis.Extracted.Organizations)
	assert.Equal(t, []string{"Paris"}, analysis.Extracted.Locations)
}

func TestParseAnalysis_Nested(t *testing.T) {
	response := `{"tone": {"tone": "neutral", "sentiment_score": -0.1},
		"extracted": {"keywords": ["rates"], "locations": ["Frankfurt"]}}`

	analysis, err := ParseAnalysis(response)
	require.NoError(t, err)

	assert.Equal(t, "neutral", analysis.Tone.Tone)
	assert.InDelta(t, -0.1, analysis.Tone.SentimentScore, 1e-9)
	assert.Equal(t, []string{"rates"}, analysis.Extracted.Keywords)
	assert.Equal(t, []string{"Frankfurt"}, analysis.Extracted.Locations)
	assert.NotNil(t, analysis.Extracted.People)
	assert.Empty(t, analysis.Extracted.People)
}

func TestParseAnalysis_Lenient(t *testing.T) {
	tests := []struct {
		name     string
		response string
		check    func(t *testing.T, a *core.Analysis)
	}{
		{
			name:     "markdown fence",
			response: "```json\n{\"tone\": \"negative\"}\n```",
			check: func(t *testing.T, a *core.Analysis) {
				assert.Equal(t, "negative", a.Tone.Tone)
			},
		},
		{
			name:     "prose around object",
			response: "Here is the analysis: {\"tone\": \"neutral\"} Hope that helps.",
			check: func(t *testing.T, a *core.Analysis) {
				assert.Equal(t, "neutral", a.Tone.Tone)
			},
		},
		{
			name:     "score as string",
			response: `{"sentiment_score": " 0.25 "}`,
			check: func(t *testing.T, a *core.Analysis) {
				assert.InDelta(t, 0.25, a.Tone.SentimentScore, 1e-9)
			},
		},
		{
			name:     "comma separated list",
			response: `{"people": "Alice, Bob ,, Carol"}`,
			check: func(t *testing.T, a *core.Analysis) {
				assert.Equal(t, []string{"Alice", "Bob", "Carol"}, a.Extracted.People)
			},
		},
		{
			name:     "null list",
			response: `{"topics": null}`,
			check: func(t *testing.T, a *core.Analysis) {
				assert.NotNil(t, a.Extracted.Topics)
				assert.Empty(t, a.Extracted.Topics)
			},
		},
		{
			name:     "object list entries",
			response: `{"organizations": [{"name": "Company A"}, "Company B"]}`,
			check: func(t *testing.T, a *core.Analysis) {
				assert.Equal(t, []string{"Company A", "Company B"}, a.Extracted.Organizations)
			},
		},
		{
			name:     "missing quote before key",
			response: `{"tone": "neutral", keywords": ["a"]}`,
			check: func(t *testing.T, a *core.Analysis) {
				assert.Equal(t, []string{"a"}, a.Extracted.Keywords)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseAnalysis(tt.response)
			require.NoError(t, err)
			tt.check(t, analysis)
		})
	}
}

func TestParseAnalysis_Errors(t *testing.T) {
	_, err := ParseAnalysis("I cannot analyze this article.")
	assert.True(t, errors.Is(err, ErrNoJSONObject))

	_, err = ParseAnalysis(`{"sentiment_score": "very happy"}`)
	assert.True(t, errors.Is(err, ErrMalformedField))

	_, err = ParseAnalysis(`{"keywords": 42}`)
	assert.True(t, errors.Is(err, ErrMalformedField))

	_, err = ParseAnalysis(`{"tone": [1, 2]}`)
	assert.True(t, errors.Is(err, ErrMalformedField))
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"name": "x", "type": "y"}`, repairJSON(`{"name": "x", type": "y"}`))
	assert.Equal(t, `{"a": 1}`, repairJSON(`{"a": 1}`))
}
