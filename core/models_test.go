package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, IDFromContent(tt.content), IDFromContent(tt.content))
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	assert.NotEqual(t, IDFromContent("content1"), IDFromContent("content2"))
}

func TestChunkID(t *testing.T) {
	doc := DocumentID("Company A announced a merger with Company B in Paris.")

	assert.Equal(t, ChunkID(doc, 0), ChunkID(doc, 0))
	assert.NotEqual(t, ChunkID(doc, 0), ChunkID(doc, 1))
	assert.NotEqual(t, ChunkID(doc, 0), ChunkID(DocumentID("other text"), 0))
}

func TestEmptyAnalysis(t *testing.T) {
	a := EmptyAnalysis()
	require.NotNil(t, a)

	assert.True(t, a.IsEmpty())
	assert.NotNil(t, a.Extracted.Keywords)
	assert.NotNil(t, a.Extracted.Topics)
	assert.NotNil(t, a.Extracted.People)
	assert.NotNil(t, a.Extracted.Organizations)
	assert.NotNil(t, a.Extracted.Locations)
}

func TestAnalysis_IsEmpty(t *testing.T) {
	var nilAnalysis *Analysis
	assert.True(t, nilAnalysis.IsEmpty())

	a := EmptyAnalysis()
	a.Extracted.Locations = []string{"Paris"}
	assert.False(t, a.IsEmpty())

	b := EmptyAnalysis()
	b.Tone.Tone = "neutral"
	assert.False(t, b.IsEmpty())
}

func TestNewArticle(t *testing.T) {
	now := time.Now()

	t.Run("copies analysis fields in order", func(t *testing.T) {
		analysis := &Analysis{
			Tone: Tone{Tone: "positive", SentimentScore: 0.4},
			Extracted: Extracted{
				Keywords:      []string{"merger", "acquisition"},
				Organizations: []string{"Company A", "Company B"},
				Locations:     []string{"Paris"},
			},
		}

		article := NewArticle("Merger news", analysis, now)
		assert.Equal(t, "Merger news", article.Title)
		assert.Equal(t, "positive", article.Tone)
		assert.InDelta(t, 0.4, article.SentimentScore, 1e-9)
		assert.Equal(t, []string{"merger", "acquisition"}, article.Keywords)
		assert.Equal(t, []string{"Company A", "Company B"}, article.Organizations)
		assert.Equal(t, []string{}, article.People)
		assert.Equal(t, time.UTC, article.CreatedAt.Location())
	})

	t.Run("nil analysis yields empty lists", func(t *testing.T) {
		article := NewArticle("Untitled", nil, now)
		assert.Equal(t, "", article.Tone)
		assert.Equal(t, []string{}, article.Keywords)
		assert.Equal(t, []string{}, article.Locations)
	})
}

func TestSource(t *testing.T) {
	u := SourceFromURL("https://example.com/a")
	assert.True(t, u.IsURL())

	txt := SourceFromText("body")
	assert.False(t, txt.IsURL())
	assert.Equal(t, "body", txt.Text)
}
