package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oldModel = "old-embed"

func newTestIndex(t *testing.T) storage.ChunkIndex {
	t.Helper()
	index, err := badger.NewMemoryChunkIndex(oldModel)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	return index
}

// seedDocument writes a document of n chunks with a non-normalized placeholder vector.
func seedDocument(t *testing.T, index storage.ChunkIndex, name string, n int) core.ID {
	t.Helper()
	docID := core.DocumentID(name)
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			DocumentId: docID,
			Position:   i,
			Title:      name,
			Source:     "text",
			Text:       fmt.Sprintf("%s part %d", name, i),
			Vector:     []float32{0, 0, 5},
		}
	}
	require.NoError(t, index.UpsertDocument(context.Background(), docID, chunks))
	return docID
}

func TestDocumentIterator_GroupsWholeDocuments(t *testing.T) {
	index := newTestIndex(t)
	seedDocument(t, index, "alpha", 3)
	seedDocument(t, index, "beta", 1)
	seedDocument(t, index, "gamma", 2)

	var batches [][]Document
	err := NewDocumentIterator(index, 2).ForEach(context.Background(), func(docs []Document) error {
		batches = append(batches, docs)
		return nil
	})
	require.NoError(t, err)

	seen := make(map[core.ID]int)
	total := 0
	for _, batch := range batches {
		for _, doc := range batch {
			_, dup := seen[doc.ID]
			assert.False(t, dup, "document %s split across batches", doc.ID)
			seen[doc.ID] = len(doc.Chunks)
			total += len(doc.Chunks)
			for i, chunk := range doc.Chunks {
				assert.Equal(t, doc.ID, chunk.DocumentId)
				assert.Equal(t, i, chunk.Position)
			}
		}
	}
	assert.Equal(t, 6, total)
	assert.Equal(t, 3, seen[core.DocumentID("alpha")])
	assert.Equal(t, 1, seen[core.DocumentID("beta")])
	assert.Equal(t, 2, seen[core.DocumentID("gamma")])
	assert.GreaterOrEqual(t, len(batches), 2)
}

func TestDocumentIterator_EmptyIndex(t *testing.T) {
	index := newTestIndex(t)

	called := false
	err := NewDocumentIterator(index, 10).ForEach(context.Background(), func([]Document) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDocumentIterator_DefaultBatchSize(t *testing.T) {
	it := NewDocumentIterator(newTestIndex(t), 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestDocumentIterator_StopsOnError(t *testing.T) {
	index := newTestIndex(t)
	for i := 0; i < 4; i++ {
		seedDocument(t, index, fmt.Sprintf("doc-%d", i), 1)
	}

	boom := errors.New("boom")
	calls := 0
	err := NewDocumentIterator(index, 1).ForEach(context.Background(), func([]Document) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDocumentIterator_CancelledContext(t *testing.T) {
	index := newTestIndex(t)
	seedDocument(t, index, "alpha", 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewDocumentIterator(index, 1).ForEach(ctx, func([]Document) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
