package ai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer turns a prompt into model text.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends a single prompt and returns the model's text response.
	// Returns an error wrapping ErrTimeout if the call exceeded its bound.
	Complete(ctx context.Context, prompt string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the embedder, completer and chat model,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the single-prompt completion service.
	Completer() Completer

	// ChatModel returns a tool-calling chat model used by the query router.
	ChatModel() llms.Model

	// EmbeddingModel identifies the embedding model. The semantic index is
	// tagged with this value.
	EmbeddingModel() string

	// CompletionModel identifies the chat/completion model. Response cache
	// keys include this value.
	CompletionModel() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
