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

package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

// CheckpointRepository persists feed checkpoints and seen item markers.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointStore = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new checkpoint repository using the provided backend.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{
		backend: backend,
	}
}

// SaveCheckpoint saves or updates a checkpoint for a feed.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint.UpdatedAt = time.Now().UTC()
		key := makeCheckpointKey(checkpoint.Feed)
		value := storage.MarshalCheckpoint(checkpoint)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint loads the checkpoint for a feed.
// Returns nil if no checkpoint exists (first run).
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, feed string) (*core.Checkpoint, error) {
	var checkpoint *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCheckpointKey(feed))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = storage.UnmarshalCheckpoint(val)
			return unmarshalErr
		})
	}, false)

	return checkpoint, err
}

// MarkSeen records item ids for feed and returns the ids that were new,
// in input order. Duplicates within ids count once.
func (r *CheckpointRepository) MarkSeen(ctx context.Context, feed string, ids ...string) ([]string, error) {
	var fresh []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := []byte(time.Now().UTC().Format(time.RFC3339))
		batch := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || batch[id] {
				continue
			}
			batch[id] = true

			key := makeSeenKey(feed, id)
			_, err := tx.Get(key)
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Set(key, now); err != nil {
				return err
			}
			fresh = append(fresh, id)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return fresh, nil
}
