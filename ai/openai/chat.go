package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel is an llms.Model whose calls are bounded by the configured timeout.
type ChatModel struct {
	model   llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

var _ llms.Model = (*ChatModel)(nil)

func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return NewBoundedModel(client, config.Timeout), nil
}

// NewBoundedModel wraps any llms.Model so that each call is limited to timeout.
func NewBoundedModel(model llms.Model, timeout time.Duration) *ChatModel {
	return &ChatModel{
		model:   model,
		timeout: timeout,
		logger:  slog.Default().With("component", "openai-chat"),
	}
}

// GenerateContent forwards to the underlying model under the timeout bound.
func (m *ChatModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var resp *llms.ContentResponse
	err := ai.Bounded(ctx, m.timeout, func(ctx context.Context) error {
		var err error
		resp, err = m.model.GenerateContent(ctx, messages, options...)
		return err
	})
	if err != nil {
		m.logger.Error("chat completion failed", "messages", len(messages), "err", err)
		return nil, err
	}
	return resp, nil
}

// Call is the single-prompt form of GenerateContent.
func (m *ChatModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Completer implements ai.Completer on top of a chat model.
type Completer struct {
	model       llms.Model
	temperature float64
}

var _ ai.Completer = (*Completer)(nil)

func newCompleter(model llms.Model, temperature float64) *Completer {
	return &Completer{model: model, temperature: temperature}
}

// NewCompleter creates a completer that sends prompts to the configured chat model.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	chat, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newCompleter(chat, config.Temperature), nil
}

// Complete sends prompt as a single human message and returns the first choice.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
