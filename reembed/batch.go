package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// BatchProcessor re-embeds batches of documents and writes them back.
type BatchProcessor struct {
	index          storage.ChunkIndex
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a processor. Embedding calls are attempted up
// to maxRetries times with exponential backoff starting at retryBaseDelay.
func NewBatchProcessor(index storage.ChunkIndex, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		index:          index,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         logger,
	}
}

// Process embeds every chunk of docs in one call, normalizes the vectors
// and replaces each document in the index. It returns the number of
// chunks rewritten.
func (bp *BatchProcessor) Process(ctx context.Context, docs []Document) (int, error) {
	var texts []string
	for _, doc := range docs {
		for _, chunk := range doc.Chunks {
			texts = append(texts, chunk.Text)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	var vectors [][]float32
	err := retry(ctx, bp.logger, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("%w: embedding failed after %d attempts: %w", core.ErrIndex, bp.maxRetries, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(texts), len(vectors))
	}

	i := 0
	for _, doc := range docs {
		rewritten := make([]*core.Chunk, len(doc.Chunks))
		for j, chunk := range doc.Chunks {
			c := *chunk
			c.Vector = core.NormalizeVector(vectors[i])
			c.IndexedAt = time.Time{}
			rewritten[j] = &c
			i++
		}
		if err := bp.index.UpsertDocument(ctx, doc.ID, rewritten); err != nil {
			return 0, fmt.Errorf("failed to rewrite document %s: %w", doc.ID, err)
		}
	}
	return len(texts), nil
}
