package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
	"github.com/poiesic/newsdesk/storage/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// retrieverFunc adapts a function to Retriever.
type retrieverFunc func(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error)

func (f retrieverFunc) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return f(ctx, query, maxHits)
}

func openArticleStore(t *testing.T) storage.ArticleStore {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Dialect: sqlstore.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "articles.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedArticles(t *testing.T, store storage.ArticleStore) {
	t.Helper()
	ctx := context.Background()
	created := time.Now().Add(-time.Hour)

	_, err := store.AddArticle(ctx, core.NewArticle("Merger announced", &core.Analysis{
		Tone: core.Tone{Tone: "positive", SentimentScore: 0.6},
		Extracted: core.Extracted{
			Organizations: []string{"Company A", "Company B"},
			Locations:     []string{"Paris"},
		},
	}, created))
	require.NoError(t, err)

	_, err = store.AddArticle(ctx, core.NewArticle("Storm warning", &core.Analysis{
		Tone: core.Tone{Tone: "negative", SentimentScore: -0.4},
		Extracted: core.Extracted{
			Locations: []string{"Lisbon"},
		},
	}, created))
	require.NoError(t, err)
}

func TestStructuredLookup(t *testing.T) {
	ctx := context.Background()
	store := openArticleStore(t)
	seedArticles(t, store)

	completer := mock.NewMockCompleter().
		WithResponse("Question: Which organizations", "```sql\nSELECT title, organizations FROM Articles WHERE locations LIKE '%Paris%';\n```").
		WithResponse("Question: Delete", "DELETE FROM Articles").
		WithResponse("Question: Broken", "SELECT nope FROM nowhere")

	lookup, err := NewStructuredLookup(store, completer, nil)
	require.NoError(t, err)
	assert.Equal(t, StructuredLookupName, lookup.Name())
	assert.Equal(t, DefaultPrompts().Description(StructuredLookupName), lookup.Description())

	t.Run("answers from the table", func(t *testing.T) {
		out, err := lookup.Call(ctx, "Which organizations merged in Paris?")
		require.NoError(t, err)
		assert.Contains(t, out, "SQL: SELECT title, organizations FROM Articles WHERE locations LIKE '%Paris%'")
		assert.Contains(t, out, "Merger announced")
		assert.Contains(t, out, `["Company A","Company B"]`)
		assert.NotContains(t, out, "Storm warning")

		prompts := completer.Prompts()
		last := prompts[len(prompts)-1]
		assert.Contains(t, last, "Dialect: sqlite")
		assert.Contains(t, last, "Table Articles")
	})

	t.Run("write statements are refused", func(t *testing.T) {
		_, err := lookup.Call(ctx, "Delete everything")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrReadOnlyQuery))

		count, err := store.CountArticles(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("invalid sql", func(t *testing.T) {
		_, err := lookup.Call(ctx, "Broken query please")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrInvalidQuery))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := lookup.Call(ctx, " ")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("required dependencies", func(t *testing.T) {
		_, err := NewStructuredLookup(nil, completer, nil)
		assert.Equal(t, ErrArticleStoreRequired, err)
		_, err = NewStructuredLookup(store, nil, nil)
		assert.Equal(t, ErrCompleterRequired, err)
	})
}

func TestSemanticLookup(t *testing.T) {
	ctx := context.Background()

	passages := []*core.SearchResult{
		{Chunk: &core.Chunk{Title: "Merger announced", Source: "text", Text: "Company A announced a merger with Company B in Paris."}, Score: 0.03},
	}

	t.Run("answers from passages", func(t *testing.T) {
		var gotK int
		retriever := retrieverFunc(func(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
			gotK = maxHits
			return passages, nil
		})
		completer := mock.NewMockCompleter().WithResponse("Passages:", "Company A and Company B announced a merger in Paris.")

		lookup, err := NewSemanticLookup(retriever, completer, nil, 0)
		require.NoError(t, err)

		out, err := lookup.Call(ctx, "What happened in Paris?")
		require.NoError(t, err)
		assert.Equal(t, "Company A and Company B announced a merger in Paris.", out)
		assert.Equal(t, DefaultSemanticK, gotK)

		prompt := completer.Prompts()[0]
		assert.Contains(t, prompt, "[1] Merger announced (text)")
		assert.Contains(t, prompt, "Company A announced a merger with Company B in Paris.")
		assert.Contains(t, prompt, "Question: What happened in Paris?")
	})

	t.Run("no passages is not an error", func(t *testing.T) {
		retriever := retrieverFunc(func(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
			return nil, nil
		})
		completer := mock.NewMockCompleter()

		lookup, err := NewSemanticLookup(retriever, completer, nil, 3)
		require.NoError(t, err)

		out, err := lookup.Call(ctx, "What happened in Paris?")
		require.NoError(t, err)
		assert.Equal(t, NoPassagesAnswer, out)
		assert.Zero(t, completer.CallCount())
	})

	t.Run("retrieval failure", func(t *testing.T) {
		retriever := retrieverFunc(func(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
			return nil, errors.New("index unavailable")
		})
		lookup, err := NewSemanticLookup(retriever, mock.NewMockCompleter(), nil, 3)
		require.NoError(t, err)

		_, err = lookup.Call(ctx, "anything")
		assert.ErrorContains(t, err, "index unavailable")
	})

	t.Run("required dependencies", func(t *testing.T) {
		_, err := NewSemanticLookup(nil, mock.NewMockCompleter(), nil, 3)
		assert.Equal(t, ErrRetrieverRequired, err)
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	completer := mock.NewMockCompleter().WithResponse("concise paragraph", "A short summary.")

	summarize, err := NewSummarize(completer, nil)
	require.NoError(t, err)
	assert.Equal(t, SummarizeName, summarize.Name())

	out, err := summarize.Call(ctx, "A very long article.")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.Equal(t, []string{"Summarize the following article in a concise paragraph:\n\nA very long article."}, completer.Prompts())

	_, err = summarize.Call(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 1, completer.CallCount())

	_, err = NewSummarize(nil, nil)
	assert.Equal(t, ErrCompleterRequired, err)
}

func TestCapabilities_UseWatchedDescriptions(t *testing.T) {
	p := DefaultPrompts()
	p.ToolDescriptions[SummarizeName] = "Custom summary tool."

	summarize, err := NewSummarize(mock.NewMockCompleter(), StaticPrompts(p))
	require.NoError(t, err)
	assert.Equal(t, "Custom summary tool.", summarize.Description())
}
