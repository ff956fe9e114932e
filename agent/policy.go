package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/newsdesk/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// Call is one capability invocation requested by a policy.
type Call struct {
	Capability string
	Input      string
}

// Step is an executed call and its outcome.
type Step struct {
	Call   Call
	Output string
	Err    error
}

// Decision is a policy's next move: either a final answer or calls to run.
type Decision struct {
	Answer string
	Calls  []Call
}

// Policy decides what the router does next given the steps taken so far.
type Policy interface {
	Decide(ctx context.Context, question string, steps []Step, capabilities []tools.Tool) (*Decision, error)
}

const reformulateInstruction = "The call failed. Reformulate the input and try again, or use another tool."

// inputKeys are the argument names read back from a tool call, in preference order.
var inputKeys = []string{"input", "query", "question", "text", "content"}

// LLMPolicy lets a tool-calling chat model choose between capabilities.
type LLMPolicy struct {
	model   llms.Model
	prompts PromptSource
}

var _ Policy = (*LLMPolicy)(nil)

// NewLLMPolicy creates a policy backed by model.
func NewLLMPolicy(model llms.Model, prompts PromptSource) (*LLMPolicy, error) {
	if model == nil {
		return nil, ErrChatModelRequired
	}
	return &LLMPolicy{model: model, prompts: orDefault(prompts)}, nil
}

// Decide sends the conversation so far with the capabilities as function
// tools and reads back either tool calls or a final answer.
func (p *LLMPolicy) Decide(ctx context.Context, question string, steps []Step, capabilities []tools.Tool) (*Decision, error) {
	prompts := p.prompts.Prompts()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompts.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}
	for i, step := range steps {
		id := fmt.Sprintf("step_%d", i)
		messages = append(messages,
			llms.MessageContent{
				Role: llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.ToolCall{
					ID:   id,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      step.Call.Capability,
						Arguments: encodeInput(step.Call.Input),
					},
				}},
			},
			llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: id,
					Name:       step.Call.Capability,
					Content:    stepContent(step),
				}},
			},
		)
	}

	definitions := make([]llms.Tool, 0, len(capabilities))
	for _, capability := range capabilities {
		definitions = append(definitions, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        capability.Name(),
				Description: capability.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input passed to the tool.",
						},
					},
					"required": []string{"input"},
				},
			},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(0)}
	if len(definitions) > 0 {
		opts = append(opts, llms.WithTools(definitions))
	}

	resp, err := p.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ai.ErrEmptyResponse
	}
	choice := resp.Choices[0]

	decision := &Decision{}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		decision.Calls = append(decision.Calls, Call{
			Capability: tc.FunctionCall.Name,
			Input:      decodeInput(tc.FunctionCall.Arguments),
		})
	}
	if len(decision.Calls) == 0 && choice.FuncCall != nil {
		decision.Calls = append(decision.Calls, Call{
			Capability: choice.FuncCall.Name,
			Input:      decodeInput(choice.FuncCall.Arguments),
		})
	}
	if len(decision.Calls) == 0 {
		decision.Answer = strings.TrimSpace(choice.Content)
	}
	return decision, nil
}

func stepContent(step Step) string {
	if step.Err != nil {
		return "Error: " + step.Err.Error() + "\n" + reformulateInstruction
	}
	return step.Output
}

func encodeInput(input string) string {
	b, err := json.Marshal(map[string]string{"input": input})
	if err != nil {
		return "{}"
	}
	return string(b)
}

// decodeInput reads the capability input from tool-call arguments. Models
// do not always honor the schema, so any single string field is accepted,
// and arguments that are not a JSON object are used verbatim.
func decodeInput(arguments string) string {
	var fields map[string]any
	if err := json.Unmarshal([]byte(arguments), &fields); err != nil {
		var s string
		if json.Unmarshal([]byte(arguments), &s) == nil {
			return s
		}
		return strings.TrimSpace(arguments)
	}

	for _, key := range inputKeys {
		if s, ok := fields[key].(string); ok {
			return s
		}
	}

	var only string
	count := 0
	for _, v := range fields {
		if s, ok := v.(string); ok {
			only = s
			count++
		}
	}
	if count == 1 {
		return only
	}
	return strings.TrimSpace(arguments)
}
