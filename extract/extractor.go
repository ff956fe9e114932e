// Package extract turns article text into a structured analysis using a
// language model. Extraction is best effort: Extract never fails and
// degrades to an empty analysis.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
)

// Extractor produces an Analysis from article text with one model call.
type Extractor struct {
	completer ai.Completer
	prompt    string
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets the logger used for degraded extractions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}

// WithPrompt replaces DefaultPrompt. The template should contain {{article}};
// if it does not, the article is appended.
func WithPrompt(template string) Option {
	return func(e *Extractor) error {
		if strings.TrimSpace(template) == "" {
			return errors.New("prompt cannot be empty")
		}
		e.prompt = template
		return nil
	}
}

// NewExtractor creates an extractor backed by completer.
func NewExtractor(completer ai.Completer, opts ...Option) (*Extractor, error) {
	if completer == nil {
		return nil, errors.New("completer cannot be nil")
	}

	e := &Extractor{
		completer: completer,
		prompt:    DefaultPrompt,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "extractor")
	return e, nil
}

// Extract analyzes text and never fails. Any model or decoding problem is
// logged and yields core.EmptyAnalysis().
func (e *Extractor) Extract(ctx context.Context, text string) *core.Analysis {
	analysis, err := e.TryExtract(ctx, text)
	if err != nil {
		e.logger.Warn("extraction degraded to empty analysis", "length", len(text), "err", err)
		return core.EmptyAnalysis()
	}
	return analysis
}

// TryExtract analyzes text and reports failures as errors wrapping
// core.ErrExtraction. Whitespace-only text returns the empty analysis
// without calling the model.
func (e *Extractor) TryExtract(ctx context.Context, text string) (*core.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return core.EmptyAnalysis(), nil
	}

	response, err := e.completer.Complete(ctx, renderPrompt(e.prompt, text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	analysis, err := ParseAnalysis(response)
	if err != nil {
		e.logger.Debug("unparseable extraction response", "response", response)
		return nil, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}
	return analysis, nil
}
