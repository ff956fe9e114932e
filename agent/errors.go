package agent

import "errors"

var (
	// ErrChatModelRequired is returned when a chat model is not provided.
	ErrChatModelRequired = errors.New("chat model required")

	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrArticleStoreRequired is returned when an article store is not provided.
	ErrArticleStoreRequired = errors.New("article store required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrPolicyRequired is returned when a routing policy is not provided.
	ErrPolicyRequired = errors.New("routing policy required")

	// ErrNoCapabilities is returned when a router is built without capabilities.
	ErrNoCapabilities = errors.New("at least one capability required")

	// ErrEmptyInput is returned by a capability called with blank input.
	ErrEmptyInput = errors.New("capability input cannot be empty")

	// ErrUnknownCapability is returned when the policy names a capability
	// that does not exist or has been withdrawn.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrPromptsInvalid is returned when a prompts file lacks a required entry.
	ErrPromptsInvalid = errors.New("invalid prompts")
)
