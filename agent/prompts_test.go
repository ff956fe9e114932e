package agent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts(t *testing.T) {
	p := DefaultPrompts()
	require.NoError(t, p.Validate())

	assert.NotEmpty(t, p.SystemPrompt)
	assert.NotEmpty(t, p.Description(StructuredLookupName))
	assert.NotEmpty(t, p.Description(SemanticLookupName))
	assert.NotEmpty(t, p.Description(SummarizeName))
	assert.Contains(t, p.SQLPrompt, "{{schema}}")
	assert.Contains(t, p.AnswerPrompt, "{{context}}")
	assert.Equal(t, "Summarize the following article in a concise paragraph:\n\n{{content}}", p.SummarizePrompt)

	// callers get independent copies
	p.ToolDescriptions[SummarizeName] = "changed"
	assert.NotEqual(t, "changed", DefaultPrompts().Description(SummarizeName))
}

func TestParsePrompts(t *testing.T) {
	t.Run("partial override keeps defaults", func(t *testing.T) {
		p, err := ParsePrompts([]byte(`
system_prompt: "Be brief."
tool_descriptions:
  Summarize: "Shortens text."
`))
		require.NoError(t, err)
		assert.Equal(t, "Be brief.", p.SystemPrompt)
		assert.Equal(t, "Shortens text.", p.Description(SummarizeName))
		assert.Equal(t, DefaultPrompts().Description(SemanticLookupName), p.Description(SemanticLookupName))
		assert.Equal(t, DefaultPrompts().SQLPrompt, p.SQLPrompt)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParsePrompts([]byte("system_prompt: [unclosed"))
		assert.ErrorIs(t, err, ErrPromptsInvalid)
	})

	t.Run("blank description is invalid", func(t *testing.T) {
		_, err := ParsePrompts([]byte("tool_descriptions:\n  StructuredLookup: \" \"\n"))
		assert.ErrorIs(t, err, ErrPromptsInvalid)
	})
}

func TestPrompts_DescriptionIgnoresCase(t *testing.T) {
	p := &Prompts{ToolDescriptions: map[string]string{"semanticlookup": "passages"}}
	assert.Equal(t, "passages", p.Description(SemanticLookupName))
	assert.Empty(t, p.Description("Other"))
}

func TestRender(t *testing.T) {
	out := render("Q: {{question}} in {{dialect}} {{unknown}}", map[string]string{
		"question": "how many {{dialect}}?",
		"dialect":  "sqlite",
	})
	assert.Equal(t, "Q: how many {{dialect}}? in sqlite {{unknown}}", out)
}

func TestLoadPrompts_MissingFile(t *testing.T) {
	_, err := LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system_prompt: \"first\"\n"), 0o644))

	watcher, err := WatchPrompts(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", watcher.Prompts().SystemPrompt)

	writeAtomic(t, path, "system_prompt: \"second\"\n")
	require.Eventually(t, func() bool {
		return watcher.Prompts().SystemPrompt == "second"
	}, 5*time.Second, 20*time.Millisecond)

	// a broken edit keeps the last good prompts
	writeAtomic(t, path, "system_prompt: [broken")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, "second", watcher.Prompts().SystemPrompt)
}

func TestWatchPrompts_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system_prompt: [broken"), 0o644))

	_, err := WatchPrompts(path, nil)
	assert.ErrorIs(t, err, ErrPromptsInvalid)
}

// writeAtomic replaces path in one rename so watchers never see a partial file.
func writeAtomic(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}
