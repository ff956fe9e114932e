package agent

import (
	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/storage"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// DefaultCapabilities builds StructuredLookup, SemanticLookup retrieving k
// passages, and Summarize, in that order.
func DefaultCapabilities(
	completer ai.Completer,
	store storage.ArticleStore,
	retriever Retriever,
	prompts PromptSource,
	k int,
) ([]tools.Tool, error) {
	prompts = orDefault(prompts)

	structured, err := NewStructuredLookup(store, completer, prompts)
	if err != nil {
		return nil, err
	}
	semantic, err := NewSemanticLookup(retriever, completer, prompts, k)
	if err != nil {
		return nil, err
	}
	summarize, err := NewSummarize(completer, prompts)
	if err != nil {
		return nil, err
	}
	return []tools.Tool{structured, semantic, summarize}, nil
}

// NewDefaultRouter builds the default capabilities and an LLMPolicy over model.
func NewDefaultRouter(
	model llms.Model,
	completer ai.Completer,
	store storage.ArticleStore,
	retriever Retriever,
	prompts PromptSource,
	opts ...Option,
) (*Router, error) {
	prompts = orDefault(prompts)

	capabilities, err := DefaultCapabilities(completer, store, retriever, prompts, DefaultSemanticK)
	if err != nil {
		return nil, err
	}
	policy, err := NewLLMPolicy(model, prompts)
	if err != nil {
		return nil, err
	}
	return NewRouter(policy, capabilities, opts...)
}
