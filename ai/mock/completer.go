package mock

import (
	"context"
	"strings"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu        sync.Mutex
	responses []cannedResponse
	prompts   []string
}

type cannedResponse struct {
	contains string
	reply    string
}

// NewMockCompleter creates a completer that answers "{}" unless configured otherwise.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// WithResponse registers reply for any prompt containing substr.
// Earlier registrations win.
func (m *MockCompleter) WithResponse(substr, reply string) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, cannedResponse{contains: substr, reply: reply})
	return m
}

// Complete records the prompt and returns the matching canned reply.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.CompleteFunc
	responses := m.responses
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range responses {
		if strings.Contains(prompt, r.contains) {
			return r.reply, nil
		}
	}
	return "{}", nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, in order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reset clears recorded prompts, canned responses and custom functions.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.responses = nil
	m.CompleteFunc = nil
}
