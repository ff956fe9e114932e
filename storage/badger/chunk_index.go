package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// ChunkIndex is a badger-backed storage.ChunkIndex.
// Vectors are searched by brute force; keyword search uses a bleve mirror.
type ChunkIndex struct {
	backend     *Backend
	ownsBackend bool
	keyword     *keywordIndex
	allowSwap   bool

	// serializes writers so badger and the keyword mirror stay in step
	mu sync.Mutex

	logger *slog.Logger
}

var _ storage.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndexOption configures a ChunkIndex.
type ChunkIndexOption func(*ChunkIndex) error

// WithIndexLogger sets the logger.
func WithIndexLogger(logger *slog.Logger) ChunkIndexOption {
	return func(c *ChunkIndex) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// AllowModelChange skips the embedding-model identity check on open.
// Used by re-embedding, which rewrites every vector and then the identity.
func AllowModelChange() ChunkIndexOption {
	return func(c *ChunkIndex) error {
		c.allowSwap = true
		return nil
	}
}

// OpenChunkIndex opens the index stored at path for the given embedding model.
// Returns storage.ErrModelMismatch if the index was built with another model.
//
// Returns storage.ChunkIndex interface to enforce abstraction.
func OpenChunkIndex(path, model string, opts ...ChunkIndexOption) (storage.ChunkIndex, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	index, err := NewChunkIndex(backend, model, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	index.ownsBackend = true
	return index, nil
}

// NewChunkIndex creates an index over an already open backend. The backend
// is not closed by Close.
func NewChunkIndex(backend *Backend, model string, opts ...ChunkIndexOption) (*ChunkIndex, error) {
	c := &ChunkIndex{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "chunk-index")

	ctx := context.Background()
	stored, err := c.EmbeddingModel(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case stored == "" && model != "":
		if err := c.SetEmbeddingModel(ctx, model); err != nil {
			return nil, err
		}
	case stored != "" && model != "" && stored != model && !c.allowSwap:
		return nil, fmt.Errorf("%w: index built with %q, configured %q", storage.ErrModelMismatch, stored, model)
	}

	keyword, err := newKeywordIndex()
	if err != nil {
		return nil, err
	}
	c.keyword = keyword

	if err := c.rebuildKeywordIndex(ctx); err != nil {
		keyword.close()
		return nil, err
	}
	return c, nil
}

func (c *ChunkIndex) rebuildKeywordIndex(ctx context.Context) error {
	start := time.Now()
	var batch []*core.Chunk
	count := 0

	err := c.ForEach(ctx, func(chunk *core.Chunk) error {
		batch = append(batch, chunk)
		count++
		if len(batch) == 256 {
			if err := c.keyword.add(batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild keyword index: %w", err)
	}
	if err := c.keyword.add(batch...); err != nil {
		return fmt.Errorf("rebuild keyword index: %w", err)
	}

	c.logger.Debug("keyword index rebuilt", "chunks", count, "elapsed", time.Since(start))
	return nil
}

// UpsertDocument replaces every chunk of documentID in one transaction.
func (c *ChunkIndex) UpsertDocument(ctx context.Context, documentID core.ID, chunks []*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.DocumentId != documentID {
			return fmt.Errorf("%w: chunk belongs to document %s, not %s", core.ErrInvalidChunk, chunk.DocumentId, documentID)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		if removed, err = deleteDocumentTx(tx, documentID); err != nil {
			return err
		}
		for _, chunk := range chunks {
			if chunk.IndexedAt.IsZero() {
				chunk.IndexedAt = time.Now().UTC()
			}
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(documentID, chunk.Position)
			}
			if err := tx.Set(makeChunkKey(documentID, chunk.Position), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	if err := c.keyword.remove(removed...); err != nil {
		return fmt.Errorf("keyword index: %w", err)
	}
	if err := c.keyword.add(chunks...); err != nil {
		return fmt.Errorf("keyword index: %w", err)
	}

	c.logger.Debug("document upserted", "document", documentID, "chunks", len(chunks), "replaced", len(removed))
	return nil
}

// DeleteDocument removes every chunk of documentID.
func (c *ChunkIndex) DeleteDocument(ctx context.Context, documentID core.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		if removed, err = deleteDocumentTx(tx, documentID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	return c.keyword.remove(removed...)
}

// deleteDocumentTx deletes a document's chunk keys and returns their keyword ids.
func deleteDocumentTx(tx *badger.Txn, documentID core.ID) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeDocumentPrefix(documentID)
	opts.PrefetchValues = false

	var keys [][]byte
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return nil, err
		}
		if doc, pos, ok := parseChunkKey(key); ok {
			ids = append(ids, keywordDocID(doc, pos))
		}
	}
	return ids, nil
}

// FindSimilar scans every chunk and ranks by cosine similarity.
func (c *ChunkIndex) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 || len(vector) == 0 {
		return nil, nil
	}

	var results []*core.SearchResult
	err := c.ForEach(ctx, func(chunk *core.Chunk) error {
		if len(chunk.Vector) == 0 {
			return nil
		}
		similarity := cosineSimilarity(vector, chunk.Vector)
		if similarity >= minSimilarity {
			results = append(results, &core.SearchResult{Chunk: chunk, Score: similarity})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindKeyword runs query against the keyword mirror and loads matching chunks.
func (c *ChunkIndex) FindKeyword(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	hits, err := c.keyword.search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	results := make([]*core.SearchResult, 0, len(hits))
	err = c.backend.WithTx(func(tx *badger.Txn) error {
		for _, hit := range hits {
			item, err := tx.Get(makeChunkKey(hit.documentID, hit.position))
			if errors.Is(err, badger.ErrKeyNotFound) {
				// deleted between search and load
				continue
			}
			if err != nil {
				return err
			}
			var chunk *core.Chunk
			if err := item.Value(func(val []byte) error {
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, &core.SearchResult{Chunk: chunk, Score: float32(hit.score)})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ForEach visits every chunk in key order (document, then position).
func (c *ChunkIndex) ForEach(ctx context.Context, fn func(chunk *core.Chunk) error) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Count returns the number of stored chunks.
func (c *ChunkIndex) Count(ctx context.Context) (int, error) {
	n := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return ctx.Err()
	}, false)
	return n, err
}

// EmbeddingModel returns the recorded model identity or "".
func (c *ChunkIndex) EmbeddingModel(ctx context.Context) (string, error) {
	var model string
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(embeddingModelKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			model = string(val)
			return nil
		})
	}, false)
	return model, err
}

// SetEmbeddingModel records the model identity.
func (c *ChunkIndex) SetEmbeddingModel(ctx context.Context, model string) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(embeddingModelKey), []byte(model)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close releases the keyword mirror and, when opened by OpenChunkIndex, the backend.
func (c *ChunkIndex) Close() error {
	err := c.keyword.close()
	if c.ownsBackend {
		err = errors.Join(err, c.backend.Close())
	}
	return err
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func sortResults(results []*core.SearchResult) {
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
}
