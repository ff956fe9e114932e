package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
	"github.com/tmc/langchaingo/tools"
)

// DefaultSemanticK is how many chunks SemanticLookup retrieves.
const DefaultSemanticK = 5

// NoPassagesAnswer is what SemanticLookup returns when nothing relevant is indexed.
const NoPassagesAnswer = "No relevant passages were found for this question."

// Retriever finds the chunks most relevant to a query.
type Retriever interface {
	FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error)
}

// StructuredLookup answers questions by translating them to a read-only SQL
// query over the Articles table.
type StructuredLookup struct {
	store     storage.ArticleStore
	completer ai.Completer
	prompts   PromptSource
	logger    *slog.Logger
}

var _ tools.Tool = (*StructuredLookup)(nil)

// NewStructuredLookup creates the structured lookup capability.
func NewStructuredLookup(store storage.ArticleStore, completer ai.Completer, prompts PromptSource) (*StructuredLookup, error) {
	if store == nil {
		return nil, ErrArticleStoreRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	return &StructuredLookup{
		store:     store,
		completer: completer,
		prompts:   orDefault(prompts),
		logger:    slog.Default().With("component", "structured-lookup"),
	}, nil
}

func (s *StructuredLookup) Name() string { return StructuredLookupName }

func (s *StructuredLookup) Description() string {
	return s.prompts.Prompts().Description(StructuredLookupName)
}

// Call generates SQL for question, runs it and returns the SQL with the rows.
func (s *StructuredLookup) Call(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyInput
	}

	prompt := render(s.prompts.Prompts().SQLPrompt, map[string]string{
		"dialect":  s.store.Dialect(),
		"schema":   s.store.Schema(),
		"question": question,
	})
	statement, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	result, err := s.store.Query(ctx, statement)
	if err != nil {
		s.logger.Warn("generated query rejected", "sql", statement, "err", err)
		return "", err
	}

	s.logger.Debug("structured lookup", "sql", result.SQL, "rows", len(result.Rows))
	return "SQL: " + result.SQL + "\n" + result.String(), nil
}

// SemanticLookup answers questions from the most relevant indexed passages.
type SemanticLookup struct {
	retriever Retriever
	completer ai.Completer
	prompts   PromptSource
	k         int
	logger    *slog.Logger
}

var _ tools.Tool = (*SemanticLookup)(nil)

// NewSemanticLookup creates the semantic lookup capability. A non-positive k
// means DefaultSemanticK.
func NewSemanticLookup(retriever Retriever, completer ai.Completer, prompts PromptSource, k int) (*SemanticLookup, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if k <= 0 {
		k = DefaultSemanticK
	}
	return &SemanticLookup{
		retriever: retriever,
		completer: completer,
		prompts:   orDefault(prompts),
		k:         k,
		logger:    slog.Default().With("component", "semantic-lookup"),
	}, nil
}

func (s *SemanticLookup) Name() string { return SemanticLookupName }

func (s *SemanticLookup) Description() string {
	return s.prompts.Prompts().Description(SemanticLookupName)
}

// Call retrieves the top k passages and asks the model to answer from them.
func (s *SemanticLookup) Call(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyInput
	}

	results, err := s.retriever.FindSimilar(ctx, question, s.k)
	if err != nil {
		return "", fmt.Errorf("retrieve passages: %w", err)
	}
	if len(results) == 0 {
		s.logger.Debug("no passages found", "question", question)
		return NoPassagesAnswer, nil
	}

	var passages strings.Builder
	for i, result := range results {
		chunk := result.Chunk
		fmt.Fprintf(&passages, "[%d] %s", i+1, chunk.Title)
		if chunk.Source != "" {
			fmt.Fprintf(&passages, " (%s)", chunk.Source)
		}
		passages.WriteString("\n")
		passages.WriteString(chunk.Text)
		passages.WriteString("\n\n")
	}

	prompt := render(s.prompts.Prompts().AnswerPrompt, map[string]string{
		"context":  strings.TrimSpace(passages.String()),
		"question": question,
	})
	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer from passages: %w", err)
	}

	s.logger.Debug("semantic lookup", "question", question, "passages", len(results))
	return answer, nil
}

// Summarize condenses article text into one paragraph.
type Summarize struct {
	completer ai.Completer
	prompts   PromptSource
}

var _ tools.Tool = (*Summarize)(nil)

// NewSummarize creates the summarize capability.
func NewSummarize(completer ai.Completer, prompts PromptSource) (*Summarize, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	return &Summarize{completer: completer, prompts: orDefault(prompts)}, nil
}

func (s *Summarize) Name() string { return SummarizeName }

func (s *Summarize) Description() string {
	return s.prompts.Prompts().Description(SummarizeName)
}

// Call summarizes content.
func (s *Summarize) Call(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyInput
	}
	prompt := render(s.prompts.Prompts().SummarizePrompt, map[string]string{"content": content})
	return s.completer.Complete(ctx, prompt)
}

func orDefault(prompts PromptSource) PromptSource {
	if prompts == nil {
		return StaticPrompts(DefaultPrompts())
	}
	return prompts
}
