package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// MockChatModel is a test double for llms.Model that replays a script of responses.
type MockChatModel struct {
	// GenerateContentFunc overrides the script if set.
	GenerateContentFunc func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)

	mu       sync.Mutex
	script   []*llms.ContentResponse
	calls    [][]llms.MessageContent
	fallback string
}

var _ llms.Model = (*MockChatModel)(nil)

// NewMockChatModel returns a model that answers each call with the next scripted response.
// Once the script is exhausted it answers with plain text.
func NewMockChatModel(script ...*llms.ContentResponse) *MockChatModel {
	return &MockChatModel{script: script, fallback: "mock answer"}
}

// WithFallback sets the text returned after the script is exhausted.
func (m *MockChatModel) WithFallback(text string) *MockChatModel {
	m.fallback = text
	return m
}

// GenerateContent records messages and pops the next scripted response.
func (m *MockChatModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]llms.MessageContent(nil), messages...))
	fn := m.GenerateContentFunc
	var next *llms.ContentResponse
	if fn == nil && len(m.script) > 0 {
		next, m.script = m.script[0], m.script[1:]
	}
	fallback := m.fallback
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, options...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if next != nil {
		return next, nil
	}
	return TextResponse(fallback), nil
}

// Call is the single-prompt form of GenerateContent.
func (m *MockChatModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// CallCount returns the number of GenerateContent calls.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the message history passed to each call.
func (m *MockChatModel) Calls() [][]llms.MessageContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]llms.MessageContent(nil), m.calls...)
}

// TextResponse builds a response whose single choice is plain text.
func TextResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text, StopReason: "stop"}},
	}
}

// ToolCallResponse builds a response whose single choice requests one tool call.
func ToolCallResponse(name, arguments string) *llms.ContentResponse {
	return ToolCallsResponse(llms.FunctionCall{Name: name, Arguments: arguments})
}

// ToolCallsResponse builds a response requesting each of calls in order.
func ToolCallsResponse(calls ...llms.FunctionCall) *llms.ContentResponse {
	choice := &llms.ContentChoice{StopReason: "tool_calls"}
	for i, call := range calls {
		call := call
		choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
			ID:           fmt.Sprintf("call_%d", i),
			Type:         "function",
			FunctionCall: &call,
		})
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{choice}}
}
