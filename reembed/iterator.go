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

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// DefaultBatchSize is the default number of chunks embedded per call.
const DefaultBatchSize = 100

// Document is every chunk of one indexed document, in position order.
type Document struct {
	ID     core.ID
	Chunks []*core.Chunk
}

// DocumentIterator walks the index one batch of whole documents at a time.
type DocumentIterator struct {
	index     storage.ChunkIndex
	batchSize int
}

// NewDocumentIterator creates an iterator yielding batches of at least
// batchSize chunks. A document is never split across batches, so a batch
// may exceed batchSize when a document is large.
func NewDocumentIterator(index storage.ChunkIndex, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &DocumentIterator{index: index, batchSize: batchSize}
}

// ForEach calls fn with each batch. Iteration stops at the first error.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]Document) error) error {
	var (
		batch   []Document
		pending int
		current *Document
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := fn(batch)
		batch, pending = nil, 0
		return err
	}

	// chunks arrive ordered by document then position
	err := it.index.ForEach(ctx, func(chunk *core.Chunk) error {
		if current == nil || current.ID != chunk.DocumentId {
			if pending >= it.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
			batch = append(batch, Document{ID: chunk.DocumentId})
			current = &batch[len(batch)-1]
		}
		current.Chunks = append(current.Chunks, chunk)
		pending++
		return nil
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return flush()
}
