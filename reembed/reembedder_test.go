package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder(t *testing.T) {
	index := newTestIndex(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewReembedder(nil, embedder, "new", nil, nil)
	assert.Equal(t, ErrChunkIndexRequired, err)

	_, err = NewReembedder(index, nil, "new", nil, nil)
	assert.Equal(t, ErrEmbedderRequired, err)

	_, err = NewReembedder(index, embedder, " ", nil, nil)
	assert.Equal(t, ErrModelRequired, err)

	r, err := NewReembedder(index, embedder, "new", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestReembedder_Run(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)
	for i := 0; i < 4; i++ {
		seedDocument(t, index, fmt.Sprintf("article %d", i), 2)
	}

	var buf bytes.Buffer
	r, err := NewReembedder(index, scaledEmbedder(), "new-embed", testConfig(), &buf)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.Chunks)
	assert.Equal(t, "new-embed", summary.Model)

	model, err := index.EmbeddingModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-embed", model)

	count := 0
	require.NoError(t, index.ForEach(ctx, func(chunk *core.Chunk) error {
		count++
		var magnitude float32
		for _, v := range chunk.Vector {
			magnitude += v * v
		}
		assert.InDelta(t, 1.0, magnitude, 1e-5)
		return nil
	}))
	assert.Equal(t, 8, count)

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 8 chunks")
	assert.Contains(t, output, "8/8")
	assert.Contains(t, output, "chunks/s")
}

func TestReembedder_EmptyIndexStillRecordsModel(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)

	var buf bytes.Buffer
	r, err := NewReembedder(index, mock.NewMockEmbedder(), "new-embed", testConfig(), &buf)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Chunks)
	assert.Contains(t, buf.String(), "0 chunks")

	model, err := index.EmbeddingModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-embed", model)
}

func TestReembedder_FailureKeepsPreviousModel(t *testing.T) {
	ctx := context.Background()
	index := newTestIndex(t)
	seedDocument(t, index, "alpha", 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	r, err := NewReembedder(index, embedder, "new-embed", testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "provider down")

	model, err := index.EmbeddingModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, oldModel, model)
}

func TestReembedder_SwitchesOnDiskIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	index, err := badger.OpenChunkIndex(dir, oldModel)
	require.NoError(t, err)
	seedDocument(t, index, "alpha", 3)
	require.NoError(t, index.Close())

	_, err = badger.OpenChunkIndex(dir, "new-embed")
	require.ErrorIs(t, err, storage.ErrModelMismatch)

	index, err = badger.OpenChunkIndex(dir, "new-embed", badger.AllowModelChange())
	require.NoError(t, err)
	r, err := NewReembedder(index, mock.NewMockEmbedder(), "new-embed", testConfig(), nil)
	require.NoError(t, err)
	_, err = r.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, index.Close())

	index, err = badger.OpenChunkIndex(dir, "new-embed")
	require.NoError(t, err)
	n, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := index.FindKeyword(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	require.NoError(t, index.Close())

	_, err = badger.OpenChunkIndex(dir, oldModel)
	assert.ErrorIs(t, err, storage.ErrModelMismatch)
}
