package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/newsdesk"
	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// testApp returns an app over a temporary config and a mock provider.
func testApp(t *testing.T) (*cli.App, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "newsdesk.yaml")
	cfg := fmt.Sprintf("articles:\n  dsn: %s\nindex:\n  path: %s\n",
		filepath.Join(dir, "articles.db"), filepath.Join(dir, "index"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	deskOptions = []newsdesk.Option{newsdesk.WithProvider(mock.NewMockProvider())}
	t.Cleanup(func() { deskOptions = nil })

	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = &bytes.Buffer{}
	return app, configPath, out
}

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	for _, level := range []string{"debug", "INFO", "warn", "error", ""} {
		assert.NoError(t, setupLogger(level), level)
	}
	err := setupLogger("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInvalidLogLevelFlag(t *testing.T) {
	app, configPath, _ := testApp(t)
	err := app.Run([]string{"newsdesk", "--config", configPath, "--log-level", "loud", "migrate", "version"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMissingConfigFile(t *testing.T) {
	app, _, _ := testApp(t)
	err := app.Run([]string{"newsdesk", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate", "version"})
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	app, configPath, out := testApp(t)

	require.NoError(t, app.Run([]string{"newsdesk", "--config", configPath, "migrate", "up"}))
	assert.Contains(t, out.String(), "version ")
	assert.NotContains(t, out.String(), "version 0")

	out.Reset()
	require.NoError(t, app.Run([]string{"newsdesk", "--config", configPath, "migrate", "down"}))
	assert.Equal(t, "version 0\n", out.String())
}

func TestIngestAndAskCommands(t *testing.T) {
	app, configPath, out := testApp(t)

	require.NoError(t, app.Run([]string{"newsdesk", "--config", configPath, "ingest", "--text",
		"Company A announced a merger with Company B in Paris.", "Merger announced"}))
	assert.Equal(t, "Article 1: Merger announced\n", out.String())

	out.Reset()
	require.NoError(t, app.Run([]string{"newsdesk", "--config", configPath, "ask", "What", "happened?"}))
	assert.Equal(t, "mock answer\n", out.String())
}

func TestIngestCommandValidation(t *testing.T) {
	app, configPath, _ := testApp(t)

	err := app.Run([]string{"newsdesk", "--config", configPath, "ingest", "https://example.com/a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 arguments")

	err = app.Run([]string{"newsdesk", "--config", configPath, "ingest", "not-a-url", "Title"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 ingestions failed")

	err = app.Run([]string{"newsdesk", "--config", configPath, "ask"})
	assert.Error(t, err)
}

func TestReadBatch(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("# urls\nhttps://example.com/a Merger announced\n\nhttps://example.com/b Storm warning\n"), 0o644))
	requests, err := readBatch(path)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "Merger announced", requests[0].Title)
	assert.Equal(t, "https://example.com/b", requests[1].Source.URL)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("https://example.com/a\n"), 0o644))
	_, err = readBatch(bad)
	assert.ErrorContains(t, err, "bad.txt:1")

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0o644))
	_, err = readBatch(empty)
	assert.Error(t, err)
}

func TestReembedCommandValidation(t *testing.T) {
	app, configPath, _ := testApp(t)

	err := app.Run([]string{"newsdesk", "--config", configPath, "reembed", "--batch-size", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-size must be greater than 0")

	err = app.Run([]string{"newsdesk", "--config", configPath, "reembed", "--max-retries", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max-retries must be greater than 0")
}

func TestReembedCommand(t *testing.T) {
	app, configPath, out := testApp(t)

	require.NoError(t, app.Run([]string{"newsdesk", "--config", configPath, "ingest", "--text",
		"A storm is expected to reach Lisbon tomorrow.", "Storm warning"}))

	out.Reset()
	require.NoError(t, app.Run([]string{"newsdesk", "--config", configPath, "reembed"}))
	assert.Contains(t, out.String(), "chunks with "+mock.EmbeddingModel)
}

func TestFeedCommandWithoutFeeds(t *testing.T) {
	app, configPath, _ := testApp(t)
	err := app.Run([]string{"newsdesk", "--config", configPath, "feed", "--once"})
	assert.Error(t, err)
}
