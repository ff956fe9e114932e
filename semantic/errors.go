package semantic

import "errors"

var (
	// ErrChunkIndexRequired is returned when a chunk index is not provided.
	ErrChunkIndexRequired = errors.New("chunk index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexerClosed is returned by Submit after Release.
	ErrIndexerClosed = errors.New("indexer is closed")

	// ErrQueueFull is returned by Submit when the writer is saturated.
	ErrQueueFull = errors.New("index queue full")

	// ErrNoChunks is returned when text produced no chunks to index.
	ErrNoChunks = errors.New("text produced no chunks")
)
