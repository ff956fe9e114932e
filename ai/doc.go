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


// Package ai provides abstractions for the model services used by newsdesk.
//
// The core pipeline depends only on three shapes:
//
//   - Embedder: text to vectors, used by the semantic index and retrieval
//   - Completer: prompt to text, used by extraction, answers and summaries
//   - llms.Model: a tool-calling chat model, used by the query router policy
//
// AIProvider bundles them so they share configuration. Every model call is
// bounded by Config.Timeout; see Bounded.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs (OpenAI, Ollama, LocalAI, vLLM) via langchaingo
//   - ai/mock: test doubles for unit testing without external services
//   - ai/cache: a Completer wrapper that reuses responses from a persistent cache
//
// # Constructor Return Type Pattern
//
// Public production constructors (openai.NewProvider, openai.NewEmbedder)
// return INTERFACE types so callers cannot couple to a concrete provider.
// Test constructors (mock.NewMockEmbedder, mock.NewMockCompleter) return
// CONCRETE types so tests can inject behavior and assert call counts.
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Company A merges with Company B")
//	text, err := provider.Completer().Complete(ctx, "Summarize the following article ...")
package ai
