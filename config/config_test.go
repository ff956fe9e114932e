package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/newsdesk/feed"
	"github.com/poiesic/newsdesk/storage/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, sqlstore.DialectSQLite, cfg.Articles.Dialect)
	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 50, cfg.Index.ChunkOverlap)
	assert.InDelta(t, 0.3, cfg.Index.MinSimilarity, 1e-6)
	assert.Equal(t, CacheBadger, cfg.Cache.Backend)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 5, cfg.Agent.MaxSteps)
	assert.Equal(t, feed.DefaultMaxItems, cfg.Feeds.MaxItems)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
ai:
  chat_model: gpt-4o-mini
  timeout: 15s
articles:
  dialect: postgres
  dsn: postgres://newsdesk@localhost/newsdesk?sslmode=disable
feeds:
  max_items: 10
  sources:
    - name: wire
      url: https://example.com/rss
      schedule: "@hourly"
`)
	t.Setenv("NEWSDESK_AI_CHAT_MODEL", "qwen2.5:7b")
	t.Setenv("NEWSDESK_INDEX_PATH", "/var/lib/newsdesk/index")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "qwen2.5:7b", cfg.AI.ChatModel, "environment wins over the file")
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "/var/lib/newsdesk/index", cfg.Index.Path)
	assert.Equal(t, sqlstore.DialectPostgres, cfg.Articles.Store().Dialect)
	assert.Equal(t, []feed.Feed{{Name: "wire", URL: "https://example.com/rss", Schedule: "@hourly"}}, cfg.Feeds.List())

	provider := cfg.AI.Provider()
	assert.Equal(t, "qwen2.5:7b", provider.ChatModel)
	assert.Equal(t, 15*time.Second, provider.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "log level", body: "log:\n  level: loud\n", want: "log.level"},
		{name: "dialect", body: "articles:\n  dialect: mysql\n", want: "articles.dialect"},
		{name: "overlap", body: "index:\n  chunk_size: 100\n  chunk_overlap: 100\n", want: "index.chunk_overlap"},
		{name: "redis url", body: "cache:\n  backend: redis\n", want: "cache.redis_url"},
		{name: "fetch mode", body: "fetch:\n  mode: headless\n", want: "fetch.mode"},
		{name: "feed source", body: "feeds:\n  sources:\n    - name: wire\n", want: "feeds.sources[0]"},
		{name: "ai temperature", body: "ai:\n  temperature: 3\n", want: "Temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Address = ""
	cfg.Agent.MaxSteps = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.address")
	assert.Contains(t, err.Error(), "agent.max_steps")
}
