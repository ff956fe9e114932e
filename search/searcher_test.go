package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) storage.ChunkIndex {
	t.Helper()
	index, err := badger.NewMemoryChunkIndex(mock.EmbeddingModel)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	return index
}

// addDocument stores one single-chunk document with an explicit vector.
func addDocument(t *testing.T, index storage.ChunkIndex, title, text string, vector []float32) *core.Chunk {
	t.Helper()
	doc := core.DocumentID(text)
	chunk := &core.Chunk{
		DocumentId: doc,
		Position:   0,
		Title:      title,
		Text:       text,
		Vector:     vector,
	}
	require.NoError(t, index.UpsertDocument(context.Background(), doc, []*core.Chunk{chunk}))
	return chunk
}

func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func TestNewSearcher(t *testing.T) {
	index := newTestIndex(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(index, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(index, embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(index, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("invalid similarity", func(t *testing.T) {
		_, err := NewSearcher(index, embedder, WithMinSimilarity(2))
		assert.Error(t, err)
	})

	t.Run("invalid rank constant", func(t *testing.T) {
		_, err := NewSearcher(index, embedder, WithRankConstant(0))
		assert.Error(t, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrChunkIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(index, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestFindSimilar_EmptyIndex(t *testing.T) {
	searcher, err := NewSearcher(newTestIndex(t), mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "test query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_BlankQuery(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	searcher, err := NewSearcher(newTestIndex(t), embedder)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, embedder.CallCount())
}

func TestFindSimilar_SemanticSearchOnly(t *testing.T) {
	index := newTestIndex(t)
	addDocument(t, index, "AI", "This is about artificial intelligence", []float32{0.9, 0.1, 0.0})
	addDocument(t, index, "ML", "This is about machine learning", []float32{0.85, 0.15, 0.0})
	addDocument(t, index, "Food", "This is about cooking recipes", []float32{0.1, 0.1, 0.8})

	searcher, err := NewSearcher(index, fixedEmbedder([]float32{0.88, 0.12, 0.0}), WithMinSimilarity(0.6))
	require.NoError(t, err)

	// no query word appears in any chunk, so only vectors contribute
	results, err := searcher.FindSimilar(context.Background(), "neural nets", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, result := range results {
		assert.NotEqual(t, "Food", result.Chunk.Title)
	}
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_KeywordSearchOnly(t *testing.T) {
	index := newTestIndex(t)
	addDocument(t, index, "Merger", "Company A announced a merger with Company B in Paris.", []float32{0, 0, 1})
	addDocument(t, index, "Weather", "Sunny skies expected across the region.", []float32{0, 1, 0})

	searcher, err := NewSearcher(index, fixedEmbedder([]float32{1, 0, 0}), WithMinSimilarity(0.5))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "What happened in Paris?", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Merger", results[0].Chunk.Title)
}

func TestFindSimilar_HybridSearch(t *testing.T) {
	index := newTestIndex(t)
	addDocument(t, index, "both", "Machine learning is fascinating", []float32{0.9, 0.1, 0.0})
	addDocument(t, index, "semantic", "Neural networks power modern AI", []float32{0.92, 0.08, 0.0})
	addDocument(t, index, "keyword", "A learning garden for children", []float32{0.0, 0.0, 1.0})

	searcher, err := NewSearcher(index, fixedEmbedder([]float32{0.9, 0.1, 0.0}), WithMinSimilarity(0.6))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "learning", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// In both lists and a verbatim match
	assert.Equal(t, "both", results[0].Chunk.Title)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_VerbatimBoost(t *testing.T) {
	index := newTestIndex(t)
	addDocument(t, index, "match", "machine learning is fascinating", []float32{0.9, 0.1, 0.0})
	addDocument(t, index, "other", "AI is the future", []float32{0.9, 0.1, 0.0})

	searcher, err := NewSearcher(index, fixedEmbedder([]float32{0.9, 0.1, 0.0}))
	require.NoError(t, err)

	monitor := &testMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), "machine learning", 10, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "match", results[0].Chunk.Title)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, 1, monitor.verbatimHits)
}

func TestFindSimilar_WithMaxHits(t *testing.T) {
	index := newTestIndex(t)
	for i := 0; i < 10; i++ {
		addDocument(t, index, "msg", fmt.Sprintf("Test message %d", i), []float32{0.9, 0.1, 0.0})
	}

	searcher, err := NewSearcher(index, fixedEmbedder([]float32{0.9, 0.1, 0.0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "query", 5)
	require.NoError(t, err)

	// Should limit to 5 results
	assert.Len(t, results, 5)
}

func TestFindSimilar_EmbedderFailureFallsBackToKeyword(t *testing.T) {
	index := newTestIndex(t)
	addDocument(t, index, "Merger", "Company A announced a merger with Company B in Paris.", []float32{0, 0, 1})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	searcher, err := NewSearcher(index, embedder)
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "merger", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Merger", results[0].Chunk.Title)
}

func TestFindSimilarWithMonitor(t *testing.T) {
	index := newTestIndex(t)
	addDocument(t, index, "msg", "Test message", []float32{0.9, 0.1, 0.0})

	searcher, err := NewSearcher(index, fixedEmbedder([]float32{0.9, 0.1, 0.0}))
	require.NoError(t, err)

	// Create a test monitor
	monitor := &testMonitor{}

	results, err := searcher.FindSimilarWithMonitor(context.Background(), "test query", 10, monitor)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	// Verify monitor was called
	assert.True(t, monitor.startCalled)
	assert.True(t, monitor.finishCalled)
	assert.Equal(t, 1, monitor.semantic)
	assert.Equal(t, 1, monitor.keyword)
}

// testMonitor is a simple test implementation of SearchMonitor
type testMonitor struct {
	startCalled  bool
	finishCalled bool
	semantic     int
	keyword      int
	verbatimHits int
}

func (m *testMonitor) Start(query string) {
	m.startCalled = true
}

func (m *testMonitor) AfterSemanticSearch(results []*core.SearchResult) {
	m.semantic = len(results)
}

func (m *testMonitor) AfterKeywordSearch(results []*core.SearchResult) {
	m.keyword = len(results)
}

func (m *testMonitor) VerbatimHit(chunk *core.Chunk) {
	m.verbatimHits++
}

func (m *testMonitor) Finish(results []*core.SearchResult) {
	m.finishCalled = true
}
