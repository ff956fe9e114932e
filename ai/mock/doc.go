// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Completer,
// llms.Model and ai.AIProvider for use in unit tests. The mocks let tests run
// without an inference server and keep model behavior deterministic.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Canned completions keyed by a prompt substring
//	completer := mock.NewMockCompleter().
//	    WithResponse("Analyze", `{"tone":"neutral","sentiment_score":0}`)
//
//	// Scripted tool-calling turns
//	chat := mock.NewMockChatModel(
//	    mock.ToolCallResponse("semantic_lookup", `{"query":"rates"}`),
//	    mock.TextResponse("Rates went up."),
//	)
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic unit vectors based on a text hash
//   - MockCompleter: returns an empty JSON object
//   - MockChatModel: replays its script, then answers with plain text
//   - MockProvider: aggregates the three
package mock
