package storage

import (
	"context"

	"github.com/poiesic/newsdesk/core"
)

// ArticleStore is the structured store holding one row per ingested article.
// Rows are append-only: there is no update or delete path.
type ArticleStore interface {
	// AddArticle inserts article and returns it with Id set by the store.
	// The article must pass core.ValidateArticle.
	AddArticle(ctx context.Context, article *core.Article) (*core.Article, error)

	// GetArticle retrieves one article. Returns ErrNotFound if missing.
	GetArticle(ctx context.Context, id core.ID) (*core.Article, error)

	// ListArticles returns up to limit articles, newest first.
	ListArticles(ctx context.Context, limit int) ([]*core.Article, error)

	// CountArticles returns the number of stored articles.
	CountArticles(ctx context.Context) (int, error)

	// Query runs a single read-only SQL statement and renders its rows.
	// Anything else fails with ErrReadOnlyQuery.
	Query(ctx context.Context, sql string) (*QueryResult, error)

	// Schema describes the Articles table for prompt construction.
	Schema() string

	// Dialect names the SQL dialect ("sqlite" or "postgres").
	Dialect() string

	// Close releases the database handle.
	Close() error
}

// ChunkIndex is the semantic index of embedded article chunks.
type ChunkIndex interface {
	// UpsertDocument atomically replaces every chunk of documentID with chunks.
	UpsertDocument(ctx context.Context, documentID core.ID, chunks []*core.Chunk) error

	// DeleteDocument removes every chunk of documentID.
	DeleteDocument(ctx context.Context, documentID core.ID) error

	// FindSimilar finds chunks whose cosine similarity to vector is at least
	// minSimilarity, best first, up to limit results.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// FindKeyword runs a keyword (BM25) query over chunk text, best first.
	FindKeyword(ctx context.Context, query string, limit int) ([]*core.SearchResult, error)

	// ForEach calls fn for every chunk in key order. Returning an error stops
	// the iteration and is returned.
	ForEach(ctx context.Context, fn func(chunk *core.Chunk) error) error

	// Count returns the number of chunks.
	Count(ctx context.Context) (int, error)

	// EmbeddingModel returns the model identity the index was built with,
	// or "" for an index that has never been written.
	EmbeddingModel(ctx context.Context) (string, error)

	// SetEmbeddingModel records the model identity.
	SetEmbeddingModel(ctx context.Context, model string) error

	// Close releases resources.
	Close() error
}

// CheckpointStore tracks feed ingestion progress.
type CheckpointStore interface {
	// SaveCheckpoint stores checkpoint, stamping UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint for feed, or nil if none exists.
	LoadCheckpoint(ctx context.Context, feed string) (*core.Checkpoint, error)

	// MarkSeen records item ids of feed and returns those not seen before.
	MarkSeen(ctx context.Context, feed string, ids ...string) ([]string, error)
}
