package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/poiesic/newsdesk/storage"
)

const (
	// DefaultSchedule polls every 30 minutes.
	DefaultSchedule = "*/30 * * * *"

	// DefaultMaxItems bounds how many of the newest entries a poll considers.
	DefaultMaxItems = 50
)

// Feed is a named feed URL polled on a cron schedule.
type Feed struct {
	Name     string
	URL      string
	Schedule string
}

// BulkIngester ingests a batch of requests; satisfied by *ingestion.Coordinator.
type BulkIngester interface {
	IngestMany(ctx context.Context, requests []ingestion.Request) []ingestion.Result
}

// Report summarizes one poll of one feed.
type Report struct {
	Feed     string
	Items    int
	New      int
	Ingested int
	Failed   int
	Err      error
	Elapsed  time.Duration
}

type scheduledFeed struct {
	Feed
	expr *cronexpr.Expression
}

// Poller polls feeds and ingests their new entries.
type Poller struct {
	feeds       []scheduledFeed
	checkpoints storage.CheckpointStore
	ingester    BulkIngester
	reader      Reader
	maxItems    int
	now         func() time.Time
	observer    func(*Report)
	logger      *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller) error

// WithReader replaces the gofeed reader.
func WithReader(reader Reader) Option {
	return func(p *Poller) error {
		if reader == nil {
			return errors.New("reader cannot be nil")
		}
		p.reader = reader
		return nil
	}
}

// WithMaxItems bounds how many of the newest entries a poll considers.
// Default is DefaultMaxItems.
func WithMaxItems(n int) Option {
	return func(p *Poller) error {
		if n < 1 {
			return errors.New("max items must be positive")
		}
		p.maxItems = n
		return nil
	}
}

// WithClock overrides time.Now for scheduling.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		p.now = now
		return nil
	}
}

// WithObserver registers fn to be called with every poll report.
func WithObserver(fn func(*Report)) Option {
	return func(p *Poller) error {
		p.observer = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPoller validates feeds and parses their schedules. An empty schedule
// uses DefaultSchedule.
func NewPoller(feeds []Feed, checkpoints storage.CheckpointStore, ingester BulkIngester, opts ...Option) (*Poller, error) {
	if checkpoints == nil {
		return nil, ErrCheckpointStoreRequired
	}
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	if len(feeds) == 0 {
		return nil, ErrNoFeeds
	}

	p := &Poller{
		checkpoints: checkpoints,
		ingester:    ingester,
		maxItems:    DefaultMaxItems,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.reader == nil {
		p.reader = NewGoFeedReader(nil)
	}
	p.logger = p.logger.With("component", "feed-poller")

	names := make(map[string]bool, len(feeds))
	for _, f := range feeds {
		f.Name = strings.TrimSpace(f.Name)
		f.URL = strings.TrimSpace(f.URL)
		if f.Name == "" || f.URL == "" {
			return nil, fmt.Errorf("%w: name and url are required", ErrInvalidFeed)
		}
		if names[f.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidFeed, f.Name)
		}
		names[f.Name] = true

		if strings.TrimSpace(f.Schedule) == "" {
			f.Schedule = DefaultSchedule
		}
		expr, err := cronexpr.Parse(f.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: schedule %q: %w", ErrInvalidFeed, f.Name, f.Schedule, err)
		}
		p.feeds = append(p.feeds, scheduledFeed{Feed: f, expr: expr})
	}
	return p, nil
}

// Feeds returns the configured feeds with their effective schedules.
func (p *Poller) Feeds() []Feed {
	out := make([]Feed, len(p.feeds))
	for i, f := range p.feeds {
		out[i] = f.Feed
	}
	return out
}

// Run polls every feed once, then each feed again whenever its schedule
// comes due, until ctx is cancelled. Poll failures are logged and do not
// stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	next := make([]time.Time, len(p.feeds))
	start := p.now()
	for i := range next {
		next[i] = start
	}

	for {
		due, ok := earliest(next)
		if !ok {
			p.logger.Info("no feed has a future run, stopping")
			return nil
		}

		if wait := due.Sub(p.now()); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		now := p.now()
		for i, f := range p.feeds {
			if next[i].IsZero() || next[i].After(now) {
				continue
			}
			p.poll(ctx, f.Feed)
			next[i] = f.expr.Next(p.now())
			if next[i].IsZero() {
				p.logger.Warn("feed schedule has no future run", "feed", f.Name, "schedule", f.Schedule)
			}
		}
	}
}

// PollAll polls every feed once, in order.
func (p *Poller) PollAll(ctx context.Context) []*Report {
	reports := make([]*Report, 0, len(p.feeds))
	for _, f := range p.feeds {
		reports = append(reports, p.poll(ctx, f.Feed))
	}
	return reports
}

// Poll polls the named feed once.
func (p *Poller) Poll(ctx context.Context, name string) (*Report, error) {
	for _, f := range p.feeds {
		if f.Name == name {
			report := p.poll(ctx, f.Feed)
			return report, report.Err
		}
	}
	return nil, fmt.Errorf("%w: unknown feed %q", ErrInvalidFeed, name)
}

func (p *Poller) poll(ctx context.Context, f Feed) *Report {
	start := p.now()
	report := &Report{Feed: f.Name}
	report.Err = p.ingestFeed(ctx, f, report)
	report.Elapsed = p.now().Sub(start)

	if report.Err != nil {
		p.logger.Error("feed poll failed", "feed", f.Name, "err", report.Err)
	} else {
		p.logger.Info("feed polled", "feed", f.Name, "items", report.Items, "new", report.New,
			"ingested", report.Ingested, "failed", report.Failed, "elapsed", report.Elapsed)
	}
	if p.observer != nil {
		p.observer(report)
	}
	return report
}

func (p *Poller) ingestFeed(ctx context.Context, f Feed, report *Report) error {
	items, err := p.reader.Read(ctx, f.URL)
	if err != nil {
		return err
	}

	// oldest first so requests follow publication order
	slices.SortStableFunc(items, func(a, b Item) int { return a.Published.Compare(b.Published) })
	if len(items) > p.maxItems {
		items = items[len(items)-p.maxItems:]
	}
	report.Items = len(items)

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	fresh, err := p.checkpoints.MarkSeen(ctx, f.Name, ids...)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	report.New = len(fresh)
	if len(fresh) == 0 {
		return nil
	}

	isFresh := make(map[string]bool, len(fresh))
	for _, id := range fresh {
		isFresh[id] = true
	}

	var (
		requests  []ingestion.Request
		published []time.Time
	)
	for _, item := range items {
		if !isFresh[item.ID] {
			continue
		}
		delete(isFresh, item.ID)

		req, ok := toRequest(item)
		if !ok {
			report.Failed++
			p.logger.Warn("feed item has neither link nor summary", "feed", f.Name, "item", item.ID)
			continue
		}
		requests = append(requests, req)
		published = append(published, item.Published)
	}

	checkpoint, err := p.checkpoints.LoadCheckpoint(ctx, f.Name)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if checkpoint == nil {
		checkpoint = &core.Checkpoint{Feed: f.Name}
	}

	for i, result := range p.ingester.IngestMany(ctx, requests) {
		if result.Err != nil {
			report.Failed++
			p.logger.Warn("feed item not ingested", "feed", f.Name, "title", result.Request.Title, "err", result.Err)
			continue
		}
		report.Ingested++
		if published[i].After(checkpoint.LastPublished) {
			checkpoint.LastPublished = published[i]
		}
	}

	checkpoint.Ingested += report.Ingested
	if err := p.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// toRequest prefers fetching the linked article; items without a link are
// ingested from their summary.
func toRequest(item Item) (ingestion.Request, bool) {
	title := item.Title
	if title == "" {
		title = item.Link
	}
	switch {
	case item.Link != "":
		return ingestion.Request{Title: title, Source: core.SourceFromURL(item.Link)}, true
	case item.Summary != "":
		if title == "" {
			title = item.ID
		}
		return ingestion.Request{Title: title, Source: core.SourceFromText(item.Summary)}, true
	default:
		return ingestion.Request{}, false
	}
}

func earliest(times []time.Time) (time.Time, bool) {
	var first time.Time
	found := false
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if !found || t.Before(first) {
			first, found = t, true
		}
	}
	return first, found
}
