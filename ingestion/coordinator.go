package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/semantic"
	"github.com/poiesic/newsdesk/storage"
)

// TextFetcher resolves a URL to readable article text.
type TextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// MetadataExtractor analyzes article text. It never fails.
type MetadataExtractor interface {
	Extract(ctx context.Context, text string) *core.Analysis
}

// IndexSubmitter queues text for background indexing.
type IndexSubmitter interface {
	Submit(doc semantic.Document) (semantic.Job, error)
}

// Ack acknowledges a completed ingestion.
// JobID is empty when no index job could be queued.
type Ack struct {
	ArticleID  core.ID
	DocumentID core.ID
	JobID      string
}

// Request is one ingestion in a bulk call.
type Request struct {
	Title  string
	Source core.Source
}

// Result is the outcome of one bulk ingestion, in request order.
type Result struct {
	Request Request
	Ack     *Ack
	Err     error
}

// Coordinator runs ingestions: fetch, index, extract, persist.
type Coordinator struct {
	store     storage.ArticleStore
	fetcher   TextFetcher
	extractor MetadataExtractor
	indexer   IndexSubmitter
	bulkPool  *ants.Pool
	now       func() time.Time
	observer  func(err error, elapsed time.Duration)
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithPoolSize sets the worker pool size for IngestMany.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if c.bulkPool != nil {
			c.bulkPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.bulkPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithClock sets the source of created_at timestamps.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// WithObserver registers fn to be called after every Ingest.
func WithObserver(fn func(err error, elapsed time.Duration)) Option {
	return func(c *Coordinator) error {
		c.observer = fn
		return nil
	}
}

// NewCoordinator creates a new ingestion coordinator.
func NewCoordinator(
	store storage.ArticleStore,
	fetcher TextFetcher,
	extractor MetadataExtractor,
	indexer IndexSubmitter,
	opts ...Option,
) (*Coordinator, error) {
	if store == nil {
		return nil, ErrArticleStoreRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	bulkPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		store:     store,
		fetcher:   fetcher,
		extractor: extractor,
		indexer:   indexer,
		bulkPool:  bulkPool,
		now:       time.Now,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}
	c.logger = c.logger.With("component", "ingestion")

	return c, nil
}

// Ingest stores one article and queues its text for indexing.
//
// Validation, fetch (core.ErrFetch) and persistence (core.ErrPersistence)
// failures are returned and leave no article record. Extraction and index
// failures are logged only.
func (c *Coordinator) Ingest(ctx context.Context, title string, source core.Source) (*Ack, error) {
	start := time.Now()
	ack, err := c.ingest(ctx, title, source)
	if c.observer != nil {
		c.observer(err, time.Since(start))
	}
	return ack, err
}

func (c *Coordinator) ingest(ctx context.Context, title string, source core.Source) (*Ack, error) {
	// 1. Validate
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidArticle, core.ErrEmptyTitle)
	}
	if err := core.ValidateSource(source); err != nil {
		return nil, err
	}

	// 2. Resolve text
	text := source.Text
	origin := "text"
	if source.IsURL() {
		origin = strings.TrimSpace(source.URL)
		fetched, err := c.fetcher.Fetch(ctx, origin)
		if err != nil {
			c.logger.Warn("fetch failed", "url", origin, "err", err)
			if !errors.Is(err, core.ErrFetch) {
				err = fmt.Errorf("%w: %w", core.ErrFetch, err)
			}
			return nil, err
		}
		text = fetched
	}

	ack := &Ack{DocumentID: core.DocumentID(text)}

	// 3. Detached index job
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("resolved text is empty, skipping index", "title", title, "source", origin)
	} else {
		job, err := c.indexer.Submit(semantic.Document{Title: title, Source: origin, Text: text})
		if err != nil {
			c.logger.Error("error submitting index job", "title", title, "err", fmt.Errorf("%w: %w", core.ErrIndex, err))
		} else {
			ack.JobID = job.ID
		}
	}

	// 4. Extract
	analysis := c.extractor.Extract(ctx, text)

	// 5. Persist
	article := core.NewArticle(title, analysis, c.now())
	saved, err := c.store.AddArticle(ctx, article)
	if err != nil {
		c.logger.Error("error persisting article", "title", title, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	ack.ArticleID = saved.Id

	c.logger.Info("article ingested", "article", saved.Id, "document", ack.DocumentID, "job", ack.JobID, "title", title)
	return ack, nil
}

// IngestMany runs requests concurrently on the bulk pool and returns one
// result per request, in request order.
func (c *Coordinator) IngestMany(ctx context.Context, requests []Request) []Result {
	results := make([]Result, len(requests))
	var wg sync.WaitGroup

	for i, req := range requests {
		results[i].Request = req
		wg.Add(1)
		err := c.bulkPool.Submit(func() {
			defer wg.Done()
			results[i].Ack, results[i].Err = c.Ingest(ctx, req.Title, req.Source)
		})
		if err != nil {
			wg.Done()
			results[i].Err = err
			c.logger.Error("error submitting bulk ingestion", "title", req.Title, "err", err)
		}
	}

	wg.Wait()
	return results
}

// Release releases resources including worker pools.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.bulkPool != nil {
		c.bulkPool.Release()
	}
}
