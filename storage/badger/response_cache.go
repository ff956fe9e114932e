package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ResponseCache stores model responses under caller-computed keys.
// Entries expire after ttl; a zero ttl keeps them forever.
type ResponseCache struct {
	backend *Backend
	ttl     time.Duration
}

// NewResponseCache creates a cache on backend.
func NewResponseCache(backend *Backend, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		backend: backend,
		ttl:     ttl,
	}
}

// Get returns the cached value and whether it was present.
func (r *ResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCacheKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	}, false)
	return value, found, err
}

// Set stores value under key.
func (r *ResponseCache) Set(ctx context.Context, key, value string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeCacheKey(key), []byte(value))
		if r.ttl > 0 {
			entry = entry.WithTTL(r.ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the backend is owned by the caller.
func (r *ResponseCache) Close() error {
	return nil
}
