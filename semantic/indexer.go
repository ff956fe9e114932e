package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// DefaultQueueSize is how many jobs may wait for the writer before Submit
// rejects new ones with ErrQueueFull.
const DefaultQueueSize = 256

// Document is resolved article text waiting to be indexed.
type Document struct {
	Title  string
	Source string
	Text   string
}

// Job identifies a submitted index job.
type Job struct {
	ID         string
	DocumentID core.ID
}

// JobResult reports the outcome of one index job.
type JobResult struct {
	Job     Job
	Chunks  int
	Elapsed time.Duration
	Err     error
}

// Stats counts finished and rejected jobs.
type Stats struct {
	Completed int64
	Failed    int64
	// Rejected jobs were refused by Submit because the queue was full.
	Rejected int64
}

type job struct {
	Job
	doc Document
}

// Indexer chunks, embeds and writes documents to the semantic index.
// All writes happen on one worker; submitters never wait for them.
type Indexer struct {
	index     storage.ChunkIndex
	embedder  ai.Embedder
	chunker   *Chunker
	pool      *ants.Pool
	queue     chan job
	queueSize int
	observer  func(JobResult)

	// closeMu guards closed and sends on queue
	closeMu sync.RWMutex
	closed  bool
	done    chan struct{}
	pending sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64

	logger *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithChunker sets the chunker. Default is NewChunker().
func WithChunker(chunker *Chunker) Option {
	return func(ix *Indexer) error {
		if chunker == nil {
			return errors.New("chunker cannot be nil")
		}
		ix.chunker = chunker
		return nil
	}
}

// WithQueueSize sets how many jobs may be queued before Submit rejects.
// Default is DefaultQueueSize.
func WithQueueSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		ix.queueSize = size
		return nil
	}
}

// WithObserver registers fn to be called after every job, on the writer.
func WithObserver(fn func(JobResult)) Option {
	return func(ix *Indexer) error {
		ix.observer = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer and starts its writer.
func NewIndexer(index storage.ChunkIndex, embedder ai.Embedder, opts ...Option) (*Indexer, error) {
	if index == nil {
		return nil, ErrChunkIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ix := &Indexer{
		index:     index,
		embedder:  embedder,
		queueSize: DefaultQueueSize,
		done:      make(chan struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "indexer")

	if ix.chunker == nil {
		chunker, err := NewChunker()
		if err != nil {
			return nil, err
		}
		ix.chunker = chunker
	}

	// One worker is the single writer.
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	ix.pool = pool
	ix.queue = make(chan job, ix.queueSize)

	if err := pool.Submit(ix.run); err != nil {
		pool.Release()
		return nil, err
	}
	return ix, nil
}

// Submit queues doc for indexing and returns immediately with the job identity.
// The job runs on its own background context and is never cancelled. When the
// writer is busy and the queue is full the job is dropped with ErrQueueFull.
func (ix *Indexer) Submit(doc Document) (Job, error) {
	j := job{
		Job: Job{
			ID:         uuid.NewString(),
			DocumentID: core.DocumentID(doc.Text),
		},
		doc: doc,
	}

	ix.closeMu.RLock()
	defer ix.closeMu.RUnlock()
	if ix.closed {
		return Job{}, ErrIndexerClosed
	}

	ix.pending.Add(1)
	select {
	case ix.queue <- j:
	default:
		ix.pending.Done()
		ix.rejected.Add(1)
		ix.logger.Warn("index queue full, job dropped", "document", j.DocumentID, "title", doc.Title, "queue_size", ix.queueSize)
		return Job{}, ErrQueueFull
	}
	ix.logger.Debug("index job queued", "job", j.ID, "document", j.DocumentID)
	return j.Job, nil
}

// IndexDocument chunks, embeds and upserts doc synchronously.
// Returns the number of chunks written. Errors wrap core.ErrIndex.
func (ix *Indexer) IndexDocument(ctx context.Context, doc Document) (int, error) {
	documentID := core.DocumentID(doc.Text)

	texts, err := ix.chunker.Split(doc.Text)
	if err != nil {
		return 0, fmt.Errorf("%w: chunking: %w", core.ErrIndex, err)
	}
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: %w", core.ErrIndex, ErrNoChunks)
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: embedding: %w", core.ErrIndex, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: embedding result mismatch. expected %d, received %d", core.ErrIndex, len(texts), len(vectors))
	}

	now := time.Now().UTC()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(documentID, i),
			DocumentId: documentID,
			Position:   i,
			Title:      doc.Title,
			Source:     doc.Source,
			Text:       text,
			Vector:     core.NormalizeVector(vectors[i]),
			IndexedAt:  now,
		}
	}

	if err := ix.index.UpsertDocument(ctx, documentID, chunks); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrIndex, err)
	}
	return len(chunks), nil
}

func (ix *Indexer) run() {
	defer close(ix.done)
	for j := range ix.queue {
		ix.process(j)
	}
}

func (ix *Indexer) process(j job) {
	defer ix.pending.Done()

	start := time.Now()
	n, err := ix.IndexDocument(context.Background(), j.doc)
	result := JobResult{Job: j.Job, Chunks: n, Elapsed: time.Since(start), Err: err}

	if err != nil {
		ix.failed.Add(1)
		ix.logger.Error("index job failed", "job", j.ID, "document", j.DocumentID, "title", j.doc.Title, "err", err)
	} else {
		ix.completed.Add(1)
		ix.logger.Info("document indexed", "job", j.ID, "document", j.DocumentID, "chunks", n, "elapsed", result.Elapsed)
	}

	if ix.observer != nil {
		ix.observer(result)
	}
}

// Wait blocks until every job submitted so far has finished.
// It does not cancel anything.
func (ix *Indexer) Wait() {
	ix.pending.Wait()
}

// Stats returns how many jobs have completed and failed.
func (ix *Indexer) Stats() Stats {
	return Stats{
		Completed: ix.completed.Load(),
		Failed:    ix.failed.Load(),
		Rejected:  ix.rejected.Load(),
	}
}

// Release drains queued jobs, stops the writer and frees the pool.
// Submit fails with ErrIndexerClosed afterwards.
func (ix *Indexer) Release() {
	ix.closeMu.Lock()
	if ix.closed {
		ix.closeMu.Unlock()
		return
	}
	ix.closed = true
	close(ix.queue)
	ix.closeMu.Unlock()

	<-ix.done
	ix.pool.Release()
}
