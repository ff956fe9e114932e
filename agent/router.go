package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/core"
	"github.com/tmc/langchaingo/tools"
)

// FallbackAnswer is returned whenever the router cannot produce an answer.
const FallbackAnswer = "I don't have sufficient information to answer that question."

const (
	// DefaultMaxSteps bounds the number of policy decisions per question.
	DefaultMaxSteps = 5

	// DefaultMaxRetries is how many failures withdraw a capability.
	DefaultMaxRetries = 2
)

// Trace records how a question was answered.
type Trace struct {
	Question string
	Answer   string
	Steps    []Step

	// Fallback is set when Answer is FallbackAnswer; Reason says why.
	Fallback bool
	Reason   string

	// Withdrawn lists capabilities removed after repeated failures.
	Withdrawn []string
	Elapsed   time.Duration
}

// Router answers questions by letting a policy drive the capabilities.
// It never returns an error: every failure ends in FallbackAnswer.
type Router struct {
	policy       Policy
	capabilities []tools.Tool
	maxSteps     int
	maxRetries   int
	observer     func(*Trace)
	logger       *slog.Logger
}

// Option configures a Router.
type Option func(*Router) error

// WithMaxSteps bounds the number of policy decisions per question.
// Default is DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(r *Router) error {
		if n < 1 {
			return errors.New("max steps must be positive")
		}
		r.maxSteps = n
		return nil
	}
}

// WithMaxRetries sets how many failures of one capability withdraw it.
// Default is DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(r *Router) error {
		if n < 1 {
			return errors.New("max retries must be positive")
		}
		r.maxRetries = n
		return nil
	}
}

// WithObserver registers fn to be called with the trace of every question.
func WithObserver(fn func(*Trace)) Option {
	return func(r *Router) error {
		r.observer = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRouter creates a router over capabilities.
func NewRouter(policy Policy, capabilities []tools.Tool, opts ...Option) (*Router, error) {
	if policy == nil {
		return nil, ErrPolicyRequired
	}
	if len(capabilities) == 0 {
		return nil, ErrNoCapabilities
	}

	r := &Router{
		policy:       policy,
		capabilities: capabilities,
		maxSteps:     DefaultMaxSteps,
		maxRetries:   DefaultMaxRetries,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "router")
	return r, nil
}

// Answer returns the answer to question, or FallbackAnswer.
func (r *Router) Answer(ctx context.Context, question string) string {
	return r.AnswerWithTrace(ctx, question).Answer
}

// AnswerWithTrace answers question and records every step taken.
func (r *Router) AnswerWithTrace(ctx context.Context, question string) *Trace {
	start := time.Now()
	trace := &Trace{Question: question}
	r.run(ctx, trace)
	trace.Elapsed = time.Since(start)

	if trace.Fallback {
		r.logger.Warn("answering with fallback", "question", question, "reason", trace.Reason, "steps", len(trace.Steps))
	} else {
		r.logger.Info("question answered", "question", question, "steps", len(trace.Steps), "elapsed", trace.Elapsed)
	}
	if r.observer != nil {
		r.observer(trace)
	}
	return trace
}

func (r *Router) run(ctx context.Context, trace *Trace) {
	if strings.TrimSpace(trace.Question) == "" {
		r.fallback(trace, "empty question")
		return
	}

	available := append([]tools.Tool(nil), r.capabilities...)
	failures := make(map[string]int)

	for decisions := 0; decisions < r.maxSteps; decisions++ {
		if err := ctx.Err(); err != nil {
			r.fallback(trace, err.Error())
			return
		}

		decision, err := r.policy.Decide(ctx, trace.Question, trace.Steps, available)
		if err != nil {
			r.logger.Error("routing policy failed", "err", err)
			r.fallback(trace, "policy failed: "+err.Error())
			return
		}

		if len(decision.Calls) == 0 {
			if strings.TrimSpace(decision.Answer) == "" {
				r.fallback(trace, "empty answer")
				return
			}
			trace.Answer = strings.TrimSpace(decision.Answer)
			return
		}

		for _, call := range decision.Calls {
			step := r.invoke(ctx, available, call)
			trace.Steps = append(trace.Steps, step)
			if step.Err == nil {
				continue
			}

			failures[call.Capability]++
			if failures[call.Capability] >= r.maxRetries && withdraw(&available, call.Capability) {
				trace.Withdrawn = append(trace.Withdrawn, call.Capability)
				r.logger.Warn("capability withdrawn", "capability", call.Capability, "failures", failures[call.Capability])
			}
		}
	}

	r.fallback(trace, fmt.Sprintf("no answer after %d steps", r.maxSteps))
}

func (r *Router) invoke(ctx context.Context, available []tools.Tool, call Call) Step {
	step := Step{Call: call}

	capability := find(available, call.Capability)
	if capability == nil {
		step.Err = fmt.Errorf("%w: %w: %q", core.ErrRouting, ErrUnknownCapability, call.Capability)
		r.logger.Warn("policy requested unavailable capability", "capability", call.Capability)
		return step
	}

	output, err := capability.Call(ctx, call.Input)
	if err != nil {
		step.Err = fmt.Errorf("%w: %s: %w", core.ErrRouting, call.Capability, err)
		r.logger.Warn("capability failed", "capability", call.Capability, "input", call.Input, "err", err)
		return step
	}

	step.Output = output
	r.logger.Debug("capability succeeded", "capability", call.Capability, "output_length", len(output))
	return step
}

func (r *Router) fallback(trace *Trace, reason string) {
	trace.Answer = FallbackAnswer
	trace.Fallback = true
	trace.Reason = reason
}

func find(capabilities []tools.Tool, name string) tools.Tool {
	for _, c := range capabilities {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func withdraw(capabilities *[]tools.Tool, name string) bool {
	for i, c := range *capabilities {
		if c.Name() == name {
			*capabilities = append((*capabilities)[:i], (*capabilities)[i+1:]...)
			return true
		}
	}
	return false
}
