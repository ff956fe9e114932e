// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import (
	"github.com/poiesic/newsdesk/ai"
	"github.com/tmc/langchaingo/llms"
)

const (
	// EmbeddingModel is the model name reported by MockProvider.
	EmbeddingModel = "mock-embed"
	// CompletionModel is the chat model name reported by MockProvider.
	CompletionModel = "mock-chat"
)

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	embedder  *MockEmbedder
	completer *MockCompleter
	chat      *MockChatModel
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns *MockProvider so tests can reach the concrete doubles.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		completer: NewMockCompleter(),
		chat:      NewMockChatModel(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// Nil arguments are replaced by defaults.
func NewMockProviderWithServices(embedder *MockEmbedder, completer *MockCompleter, chat *MockChatModel) *MockProvider {
	p := NewMockProvider()
	if embedder != nil {
		p.embedder = embedder
	}
	if completer != nil {
		p.completer = completer
	}
	if chat != nil {
		p.chat = chat
	}
	return p
}

var _ ai.AIProvider = (*MockProvider)(nil)

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Completer returns the mock completer.
func (p *MockProvider) Completer() ai.Completer {
	return p.completer
}

// ChatModel returns the mock chat model.
func (p *MockProvider) ChatModel() llms.Model {
	return p.chat
}

// EmbeddingModel returns EmbeddingModel.
func (p *MockProvider) EmbeddingModel() string {
	return EmbeddingModel
}

// CompletionModel returns CompletionModel.
func (p *MockProvider) CompletionModel() string {
	return CompletionModel
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockCompleter returns the underlying mock completer for test assertions.
func (p *MockProvider) GetMockCompleter() *MockCompleter {
	return p.completer
}

// GetMockChatModel returns the underlying mock chat model for test assertions.
func (p *MockProvider) GetMockChatModel() *MockChatModel {
	return p.chat
}
