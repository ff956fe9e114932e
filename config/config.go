// Package config loads newsdesk configuration from an optional YAML file,
// defaults and NEWSDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/feed"
	"github.com/poiesic/newsdesk/fetch"
	"github.com/poiesic/newsdesk/storage/sqlstore"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NEWSDESK_AI_CHAT_MODEL.
const EnvPrefix = "NEWSDESK"

// Config is the full newsdesk configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Articles  ArticlesConfig  `mapstructure:"articles"`
	Index     IndexConfig     `mapstructure:"index"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
}

// LogConfig sets the slog level: debug, info, warn or error.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func (l LogConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", l.Level)
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return errors.New("server.address is required")
	}
	if s.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	return nil
}

// AIConfig describes the OpenAI-compatible model services.
type AIConfig struct {
	EmbeddingHost  string        `mapstructure:"embedding_host"`
	ChatHost       string        `mapstructure:"chat_host"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	ChatModel      string        `mapstructure:"chat_model"`
	APIToken       string        `mapstructure:"api_token"`
	Temperature    float64       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Provider converts the section into an ai.Config.
func (a AIConfig) Provider() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(a.EmbeddingHost),
		ai.WithChatHost(a.ChatHost),
		ai.WithEmbeddingModel(a.EmbeddingModel),
		ai.WithChatModel(a.ChatModel),
		ai.WithAPIToken(a.APIToken),
		ai.WithTemperature(a.Temperature),
		ai.WithTimeout(a.Timeout),
	)
}

func (a AIConfig) Validate() error {
	return a.Provider().Validate()
}

// ArticlesConfig points at the structured store.
type ArticlesConfig struct {
	Dialect      string        `mapstructure:"dialect"`
	DSN          string        `mapstructure:"dsn"`
	MaxRows      int           `mapstructure:"max_rows"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
}

// Store converts the section into a sqlstore.Config.
func (a ArticlesConfig) Store() sqlstore.Config {
	return sqlstore.Config{
		Dialect:      a.Dialect,
		DSN:          a.DSN,
		MaxRows:      a.MaxRows,
		QueryTimeout: a.QueryTimeout,
		MaxOpenConns: a.MaxOpenConns,
	}
}

func (a ArticlesConfig) Validate() error {
	if a.Dialect != sqlstore.DialectSQLite && a.Dialect != sqlstore.DialectPostgres {
		return fmt.Errorf("articles.dialect must be %q or %q (got %q)", sqlstore.DialectSQLite, sqlstore.DialectPostgres, a.Dialect)
	}
	if strings.TrimSpace(a.DSN) == "" {
		return errors.New("articles.dsn is required")
	}
	if a.MaxRows <= 0 {
		return errors.New("articles.max_rows must be positive")
	}
	return nil
}

// IndexConfig configures the badger semantic index and its chunking.
type IndexConfig struct {
	Path          string  `mapstructure:"path"`
	ChunkSize     int     `mapstructure:"chunk_size"`
	ChunkOverlap  int     `mapstructure:"chunk_overlap"`
	QueueSize     int     `mapstructure:"queue_size"`
	MinSimilarity float32 `mapstructure:"min_similarity"`
}

func (i IndexConfig) Validate() error {
	if strings.TrimSpace(i.Path) == "" {
		return errors.New("index.path is required")
	}
	if i.ChunkSize <= 0 {
		return errors.New("index.chunk_size must be positive")
	}
	if i.ChunkOverlap < 0 || i.ChunkOverlap >= i.ChunkSize {
		return errors.New("index.chunk_overlap must be in [0, chunk_size)")
	}
	if i.QueueSize <= 0 {
		return errors.New("index.queue_size must be positive")
	}
	if i.MinSimilarity < -1 || i.MinSimilarity > 1 {
		return errors.New("index.min_similarity must be in [-1, 1]")
	}
	return nil
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheBadger = "badger"
	CacheRedis  = "redis"
)

// CacheConfig selects where completion responses are cached. The badger
// backend shares the index directory.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case CacheNone, CacheBadger:
	case CacheRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be one of none, badger, redis (got %q)", c.Backend)
	}
	if c.TTL < 0 {
		return errors.New("cache.ttl cannot be negative")
	}
	return nil
}

// FetchConfig configures URL fetching.
type FetchConfig struct {
	Mode      string        `mapstructure:"mode"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (f FetchConfig) Validate() error {
	switch fetch.Mode(f.Mode) {
	case fetch.ModeParagraphs, fetch.ModeReadability:
	default:
		return fmt.Errorf("fetch.mode must be %q or %q (got %q)", fetch.ModeParagraphs, fetch.ModeReadability, f.Mode)
	}
	if f.Timeout <= 0 {
		return errors.New("fetch.timeout must be positive")
	}
	return nil
}

// AgentConfig configures the query router.
type AgentConfig struct {
	PromptsFile string `mapstructure:"prompts_file"`
	MaxSteps    int    `mapstructure:"max_steps"`
	MaxRetries  int    `mapstructure:"max_retries"`
	SemanticK   int    `mapstructure:"semantic_k"`
}

func (a AgentConfig) Validate() error {
	if a.MaxSteps <= 0 {
		return errors.New("agent.max_steps must be positive")
	}
	if a.MaxRetries <= 0 {
		return errors.New("agent.max_retries must be positive")
	}
	if a.SemanticK <= 0 {
		return errors.New("agent.semantic_k must be positive")
	}
	return nil
}

// IngestionConfig sizes the bulk ingestion pool.
type IngestionConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

func (i IngestionConfig) Validate() error {
	if i.PoolSize < 0 {
		return errors.New("ingestion.pool_size cannot be negative")
	}
	return nil
}

// FeedsConfig lists the feeds polled by `newsdesk feed`.
type FeedsConfig struct {
	MaxItems int          `mapstructure:"max_items"`
	Sources  []FeedSource `mapstructure:"sources"`
}

// FeedSource is one polled feed.
type FeedSource struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Schedule string `mapstructure:"schedule"`
}

// List converts the sources into feed definitions.
func (f FeedsConfig) List() []feed.Feed {
	out := make([]feed.Feed, len(f.Sources))
	for i, s := range f.Sources {
		out[i] = feed.Feed{Name: s.Name, URL: s.URL, Schedule: s.Schedule}
	}
	return out
}

func (f FeedsConfig) Validate() error {
	if f.MaxItems <= 0 {
		return errors.New("feeds.max_items must be positive")
	}
	for i, s := range f.Sources {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.URL) == "" {
			return fmt.Errorf("feeds.sources[%d]: name and url are required", i)
		}
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		c.Log, c.Server, c.AI, c.Articles, c.Index, c.Cache, c.Fetch, c.Agent, c.Ingestion, c.Feeds,
	}
	var errs []error
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	aiDefaults := ai.DefaultConfig()

	v.SetDefault("log.level", "info")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("ai.embedding_host", aiDefaults.EmbeddingHost)
	v.SetDefault("ai.chat_host", aiDefaults.ChatHost)
	v.SetDefault("ai.embedding_model", aiDefaults.EmbeddingModel)
	v.SetDefault("ai.chat_model", aiDefaults.ChatModel)
	v.SetDefault("ai.api_token", aiDefaults.APIToken)
	v.SetDefault("ai.temperature", aiDefaults.Temperature)
	v.SetDefault("ai.timeout", aiDefaults.Timeout)

	v.SetDefault("articles.dialect", sqlstore.DialectSQLite)
	v.SetDefault("articles.dsn", "newsdesk.db")
	v.SetDefault("articles.max_rows", 50)
	v.SetDefault("articles.query_timeout", 10*time.Second)
	v.SetDefault("articles.max_open_conns", 10)

	v.SetDefault("index.path", "newsdesk-index")
	v.SetDefault("index.chunk_size", 500)
	v.SetDefault("index.chunk_overlap", 50)
	v.SetDefault("index.queue_size", 256)
	v.SetDefault("index.min_similarity", 0.3)

	v.SetDefault("cache.backend", CacheBadger)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 0)

	v.SetDefault("fetch.mode", string(fetch.ModeParagraphs))
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.timeout", 30*time.Second)

	v.SetDefault("agent.prompts_file", "")
	v.SetDefault("agent.max_steps", 5)
	v.SetDefault("agent.max_retries", 2)
	v.SetDefault("agent.semantic_k", 5)

	v.SetDefault("ingestion.pool_size", 0)

	v.SetDefault("feeds.max_items", feed.DefaultMaxItems)
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("config defaults: %w", err))
	}
	return &cfg
}

// Load reads path (if non-empty), applies NEWSDESK_* environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
