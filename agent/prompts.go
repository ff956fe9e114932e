package agent

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Capability names as seen by the routing policy.
const (
	StructuredLookupName = "StructuredLookup"
	SemanticLookupName   = "SemanticLookup"
	SummarizeName        = "Summarize"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompts holds the router system prompt, the capability descriptions and
// the prompt templates used inside capabilities. Templates use {{name}}
// placeholders.
type Prompts struct {
	SystemPrompt     string            `yaml:"system_prompt"`
	ToolDescriptions map[string]string `yaml:"tool_descriptions"`
	SQLPrompt        string            `yaml:"sql_prompt"`
	AnswerPrompt     string            `yaml:"answer_prompt"`
	SummarizePrompt  string            `yaml:"summarize_prompt"`
}

// DefaultPrompts returns a copy of the built-in prompts.
func DefaultPrompts() *Prompts {
	var p Prompts
	if err := yaml.Unmarshal(defaultPromptsYAML, &p); err != nil {
		panic(fmt.Sprintf("built-in prompts: %v", err))
	}
	return &p
}

// ParsePrompts decodes a prompts document. Entries it omits keep their
// built-in values.
func ParsePrompts(data []byte) (*Prompts, error) {
	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPromptsInvalid, err)
	}

	p := DefaultPrompts()
	if override.SystemPrompt != "" {
		p.SystemPrompt = override.SystemPrompt
	}
	for name, description := range override.ToolDescriptions {
		p.ToolDescriptions[name] = description
	}
	if override.SQLPrompt != "" {
		p.SQLPrompt = override.SQLPrompt
	}
	if override.AnswerPrompt != "" {
		p.AnswerPrompt = override.AnswerPrompt
	}
	if override.SummarizePrompt != "" {
		p.SummarizePrompt = override.SummarizePrompt
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPrompts reads and decodes the prompts file at path.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrompts(data)
}

// Validate checks that every entry the router needs is present.
func (p *Prompts) Validate() error {
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return fmt.Errorf("%w: system_prompt is empty", ErrPromptsInvalid)
	}
	for _, name := range []string{StructuredLookupName, SemanticLookupName, SummarizeName} {
		if strings.TrimSpace(p.Description(name)) == "" {
			return fmt.Errorf("%w: tool_descriptions.%s is empty", ErrPromptsInvalid, name)
		}
	}
	return nil
}

// Description returns the description of the named capability.
// Names match case-insensitively.
func (p *Prompts) Description(name string) string {
	if d, ok := p.ToolDescriptions[name]; ok {
		return d
	}
	for k, d := range p.ToolDescriptions {
		if strings.EqualFold(k, name) {
			return d
		}
	}
	return ""
}

// render replaces each {{key}} in template with its value.
func render(template string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// PromptSource supplies the current prompts. Implementations must be safe
// for concurrent use.
type PromptSource interface {
	Prompts() *Prompts
}

type staticPrompts struct {
	prompts *Prompts
}

// StaticPrompts returns a source that always yields p.
func StaticPrompts(p *Prompts) PromptSource {
	return &staticPrompts{prompts: p}
}

func (s *staticPrompts) Prompts() *Prompts {
	return s.prompts
}

// PromptWatcher serves prompts from a file and reloads them when it changes.
// A change that fails to decode keeps the previous prompts.
type PromptWatcher struct {
	path    string
	v       *viper.Viper
	current atomic.Pointer[Prompts]
	logger  *slog.Logger
}

// WatchPrompts loads the prompts file at path and starts watching it.
func WatchPrompts(path string, logger *slog.Logger) (*PromptWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &PromptWatcher{
		path:   path,
		v:      viper.New(),
		logger: logger.With("component", "prompts", "path", path),
	}

	if err := w.Reload(); err != nil {
		return nil, err
	}

	w.v.SetConfigFile(path)
	w.v.SetConfigType("yaml")
	if err := w.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPromptsInvalid, err)
	}
	w.v.OnConfigChange(func(e fsnotify.Event) {
		if err := w.Reload(); err != nil {
			w.logger.Warn("prompts reload failed, keeping previous prompts", "event", e.Op.String(), "err", err)
			return
		}
		w.logger.Info("prompts reloaded", "event", e.Op.String())
	})
	w.v.WatchConfig()

	return w, nil
}

// Reload re-reads the prompts file.
func (w *PromptWatcher) Reload() error {
	p, err := LoadPrompts(w.path)
	if err != nil {
		return err
	}
	w.current.Store(p)
	return nil
}

// Prompts returns the most recently loaded prompts.
func (w *PromptWatcher) Prompts() *Prompts {
	return w.current.Load()
}
