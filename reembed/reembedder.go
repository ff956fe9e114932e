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

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks embedded per call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary describes a completed run.
type Summary struct {
	Chunks  int
	Model   string
	Elapsed time.Duration
}

// Reembedder rewrites every vector in a chunk index with a new model.
// Open the index with badger.AllowModelChange when the model differs from
// the one it was built with.
type Reembedder struct {
	index     storage.ChunkIndex
	model     string
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *DocumentIterator
	logger    *slog.Logger
}

// NewReembedder creates a reembedder that records model as the index's
// embedding model once every chunk has been rewritten.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(index storage.ChunkIndex, embedder ai.Embedder, model string, config *Config, progress io.Writer) (*Reembedder, error) {
	if index == nil {
		return nil, ErrChunkIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if strings.TrimSpace(model) == "" {
		return nil, ErrModelRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	logger := slog.Default().With("component", "reembedder")
	return &Reembedder{
		index:     index,
		model:     model,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(index, embedder, config.MaxRetries, config.RetryDelay, logger),
		iterator:  NewDocumentIterator(index, config.BatchSize),
		logger:    logger,
	}, nil
}

// Run re-embeds the whole index. On failure the recorded model identity
// is left unchanged, so the index still refuses to open with the new
// model until a run completes.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	total, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	previous, err := r.index.EmbeddingModel(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in index (0 chunks)\n")
	} else {
		fmt.Fprintf(r.progress, "Starting reembedding of %d chunks with %s (batch size: %d)\n",
			total, r.model, r.config.BatchSize)

		tracker := NewProgressTracker(r.progress, "chunks", total, r.config.ReportInterval)
		tracker.Start()

		processed := 0
		err = r.iterator.ForEach(ctx, func(docs []Document) error {
			n, err := r.processor.Process(ctx, docs)
			if err != nil {
				return fmt.Errorf("failed to process batch: %w", err)
			}
			processed += n
			tracker.Update(processed)
			return nil
		})
		if err != nil {
			r.logger.Error("reembedding aborted", "processed", processed, "total", total, "err", err)
			return nil, err
		}
		tracker.Finish()
	}

	if err := r.index.SetEmbeddingModel(ctx, r.model); err != nil {
		return nil, fmt.Errorf("failed to record embedding model: %w", err)
	}

	summary := &Summary{Chunks: total, Model: r.model, Elapsed: time.Since(start)}
	r.logger.Info("reembedding complete", "chunks", total, "from", previous, "to", r.model, "elapsed", summary.Elapsed)
	if total > 0 {
		fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
			total, summary.Elapsed.Round(time.Millisecond), float64(total)/summary.Elapsed.Seconds())
	}
	return summary, nil
}
