package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrChunkIndexRequired is returned when no index is supplied.
	ErrChunkIndexRequired = errors.New("chunk index is required")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrModelRequired is returned when the target model name is empty.
	ErrModelRequired = errors.New("target embedding model is required")

	// ErrEmbeddingCount is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
