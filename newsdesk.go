// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package newsdesk wires the ingestion, indexing and question-answering
// components together from a config.Config.
package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/newsdesk/agent"
	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/ai/cache"
	"github.com/poiesic/newsdesk/ai/openai"
	"github.com/poiesic/newsdesk/config"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/extract"
	"github.com/poiesic/newsdesk/feed"
	"github.com/poiesic/newsdesk/fetch"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/poiesic/newsdesk/metrics"
	"github.com/poiesic/newsdesk/reembed"
	"github.com/poiesic/newsdesk/search"
	"github.com/poiesic/newsdesk/semantic"
	"github.com/poiesic/newsdesk/storage"
	"github.com/poiesic/newsdesk/storage/badger"
	"github.com/poiesic/newsdesk/storage/sqlstore"
	"github.com/redis/go-redis/v9"
)

// Desk owns every long-lived component of a running newsdesk.
type Desk struct {
	cfg *config.Config

	provider    ai.AIProvider
	completer   ai.Completer
	articles    storage.ArticleStore
	backend     *badger.Backend
	index       storage.ChunkIndex
	checkpoints storage.CheckpointStore
	redis       *redis.Client

	indexer     *semantic.Indexer
	searcher    *search.Searcher
	coordinator *ingestion.Coordinator
	prompts     agent.PromptSource
	router      *agent.Router
	metrics     *metrics.Metrics

	logger *slog.Logger
}

// Option configures a Desk.
type Option func(*deskOptions)

type deskOptions struct {
	provider         ai.AIProvider
	metrics          *metrics.Metrics
	logger           *slog.Logger
	allowModelChange bool
}

// WithProvider replaces the OpenAI-compatible provider built from config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *deskOptions) {
		o.provider = provider
	}
}

// WithMetrics records into m instead of a fresh registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *deskOptions) {
		o.metrics = m
	}
}

// WithLogger sets the base logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *deskOptions) {
		o.logger = logger
	}
}

// WithModelChange opens an index built with a different embedding model.
// Only Reembed should be used on such a desk.
func WithModelChange() Option {
	return func(o *deskOptions) {
		o.allowModelChange = true
	}
}

// Open builds a Desk. On error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Desk, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &deskOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.metrics == nil {
		options.metrics = metrics.New()
	}

	d := &Desk{
		cfg:     cfg,
		metrics: options.metrics,
		logger:  options.logger.With("component", "desk"),
	}
	defer func() {
		if err != nil {
			if closeErr := d.Close(); closeErr != nil {
				d.logger.Error("error closing partially opened desk", "err", closeErr)
			}
		}
	}()

	logger := options.logger

	d.provider = options.provider
	if d.provider == nil {
		if d.provider, err = openai.NewProvider(cfg.AI.Provider()); err != nil {
			return nil, fmt.Errorf("ai provider: %w", err)
		}
	}

	if d.articles, err = sqlstore.Open(ctx, cfg.Articles.Store(), sqlstore.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("articles: %w", err)
	}

	if d.backend, err = badger.OpenBackend(cfg.Index.Path, false); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	indexOpts := []badger.ChunkIndexOption{badger.WithIndexLogger(logger)}
	if options.allowModelChange {
		indexOpts = append(indexOpts, badger.AllowModelChange())
	}
	index, err := badger.NewChunkIndex(d.backend, d.provider.EmbeddingModel(), indexOpts...)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	d.index = index
	d.checkpoints = badger.NewCheckpointRepository(d.backend)

	if d.completer, err = d.openCompleter(logger); err != nil {
		return nil, fmt.Errorf("completion cache: %w", err)
	}

	chunker, err := semantic.NewChunker(
		semantic.WithChunkSize(cfg.Index.ChunkSize),
		semantic.WithChunkOverlap(cfg.Index.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}
	d.indexer, err = semantic.NewIndexer(d.index, d.provider.Embedder(),
		semantic.WithChunker(chunker),
		semantic.WithQueueSize(cfg.Index.QueueSize),
		semantic.WithObserver(d.metrics.ObserveIndexJob),
		semantic.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	d.searcher, err = search.NewSearcher(d.index, d.provider.Embedder(),
		search.WithMinSimilarity(cfg.Index.MinSimilarity),
		search.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	fetchOpts := []fetch.Option{
		fetch.WithMode(fetch.Mode(cfg.Fetch.Mode)),
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
		fetch.WithLogger(logger),
	}
	if cfg.Fetch.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.Fetch.UserAgent))
	}
	fetcher, err := fetch.NewFetcher(fetchOpts...)
	if err != nil {
		return nil, err
	}
	extractor, err := extract.NewExtractor(d.completer, extract.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	coordinatorOpts := []ingestion.Option{
		ingestion.WithObserver(d.metrics.ObserveIngestion),
		ingestion.WithLogger(logger),
	}
	if cfg.Ingestion.PoolSize > 0 {
		coordinatorOpts = append(coordinatorOpts, ingestion.WithPoolSize(cfg.Ingestion.PoolSize))
	}
	if d.coordinator, err = ingestion.NewCoordinator(d.articles, fetcher, extractor, d.indexer, coordinatorOpts...); err != nil {
		return nil, err
	}

	if cfg.Agent.PromptsFile != "" {
		if d.prompts, err = agent.WatchPrompts(cfg.Agent.PromptsFile, logger); err != nil {
			return nil, err
		}
	} else {
		d.prompts = agent.StaticPrompts(agent.DefaultPrompts())
	}

	capabilities, err := agent.DefaultCapabilities(d.completer, d.articles, d.searcher, d.prompts, cfg.Agent.SemanticK)
	if err != nil {
		return nil, err
	}
	policy, err := agent.NewLLMPolicy(d.provider.ChatModel(), d.prompts)
	if err != nil {
		return nil, err
	}
	d.router, err = agent.NewRouter(policy, capabilities,
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithMaxRetries(cfg.Agent.MaxRetries),
		agent.WithObserver(d.metrics.ObserveQuestion),
		agent.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	d.logger.Info("desk open",
		"articles", cfg.Articles.Dialect,
		"index", cfg.Index.Path,
		"embedding_model", d.provider.EmbeddingModel(),
		"chat_model", d.provider.CompletionModel(),
		"cache", cfg.Cache.Backend)
	return d, nil
}

func (d *Desk) openCompleter(logger *slog.Logger) (ai.Completer, error) {
	var store cache.Cache
	switch d.cfg.Cache.Backend {
	case config.CacheNone:
		return d.provider.Completer(), nil
	case config.CacheBadger:
		store = badger.NewResponseCache(d.backend, d.cfg.Cache.TTL)
	case config.CacheRedis:
		opts, err := redis.ParseURL(d.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		d.redis = redis.NewClient(opts)
		store = cache.NewRedisCache(d.redis, d.cfg.Cache.TTL)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", d.cfg.Cache.Backend)
	}
	return cache.NewCachingCompleter(d.provider.Completer(), store, d.provider.CompletionModel(),
		cache.WithObserver(d.metrics.ObserveCache),
		cache.WithLogger(logger),
	)
}

// Ingest runs one ingestion: fetch, extract, persist and queue indexing.
func (d *Desk) Ingest(ctx context.Context, title string, source core.Source) (*ingestion.Ack, error) {
	return d.coordinator.Ingest(ctx, title, source)
}

// IngestMany ingests requests concurrently, returning results in order.
func (d *Desk) IngestMany(ctx context.Context, requests []ingestion.Request) []ingestion.Result {
	return d.coordinator.IngestMany(ctx, requests)
}

// Ask answers question, falling back to agent.FallbackAnswer.
func (d *Desk) Ask(ctx context.Context, question string) *agent.Trace {
	return d.router.AnswerWithTrace(ctx, question)
}

// Search runs hybrid retrieval directly.
func (d *Desk) Search(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return d.searcher.FindSimilar(ctx, query, maxHits)
}

// Article returns one stored article.
func (d *Desk) Article(ctx context.Context, id core.ID) (*core.Article, error) {
	return d.articles.GetArticle(ctx, id)
}

// Articles lists up to limit articles, newest first.
func (d *Desk) Articles(ctx context.Context, limit int) ([]*core.Article, error) {
	return d.articles.ListArticles(ctx, limit)
}

// WaitForIndex blocks until queued index jobs have finished.
func (d *Desk) WaitForIndex() {
	d.indexer.Wait()
}

// IndexStats reports background index job counts.
func (d *Desk) IndexStats() semantic.Stats {
	return d.indexer.Stats()
}

// FeedPoller creates a poller over the configured feeds.
func (d *Desk) FeedPoller(opts ...feed.Option) (*feed.Poller, error) {
	opts = append([]feed.Option{
		feed.WithMaxItems(d.cfg.Feeds.MaxItems),
		feed.WithObserver(d.metrics.ObserveFeedPoll),
		feed.WithLogger(d.logger),
	}, opts...)
	return feed.NewPoller(d.cfg.Feeds.List(), d.checkpoints, d.coordinator, opts...)
}

// Reembed rewrites every vector with the provider's embedding model. The
// desk must have been opened WithModelChange if the model differs.
func (d *Desk) Reembed(ctx context.Context, cfg *reembed.Config, progress io.Writer) (*reembed.Summary, error) {
	r, err := reembed.NewReembedder(d.index, d.provider.Embedder(), d.provider.EmbeddingModel(), cfg, progress)
	if err != nil {
		return nil, err
	}
	summary, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}

	// every vector was rewritten; reclaim the old values
	if err := d.backend.RunGC(0.5); err != nil {
		d.logger.Warn("value log gc failed", "err", err)
	}
	return summary, nil
}

// Metrics returns the collectors the desk records into.
func (d *Desk) Metrics() *metrics.Metrics {
	return d.metrics
}

// Ping checks the structured store and the index.
func (d *Desk) Ping(ctx context.Context) error {
	if _, err := d.articles.CountArticles(ctx); err != nil {
		return fmt.Errorf("articles: %w", err)
	}
	if _, err := d.index.EmbeddingModel(ctx); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

// Close drains pending index jobs and releases every resource.
func (d *Desk) Close() error {
	var errs []error

	if d.coordinator != nil {
		d.coordinator.Release()
	}
	if d.indexer != nil {
		d.indexer.Release()
	}
	if d.index != nil {
		errs = append(errs, d.index.Close())
	}
	if d.backend != nil {
		errs = append(errs, d.backend.Close())
	}
	if d.articles != nil {
		errs = append(errs, d.articles.Close())
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.provider != nil {
		errs = append(errs, d.provider.Close())
	}

	err := errors.Join(errs...)
	if err != nil {
		d.logger.Error("error closing desk", "err", err)
	}
	return err
}
