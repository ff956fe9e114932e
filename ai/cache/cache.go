// Package cache persists model responses so identical prompts for the same
// model are answered without another model call.
package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/newsdesk/ai"
)

// Cache is a string key/value store for model responses.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
}

// Key derives the cache key for a prompt sent to model.
func Key(model, prompt string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// CachingCompleter wraps an ai.Completer with a response cache.
// Cache failures are logged and fall through to the model.
type CachingCompleter struct {
	next     ai.Completer
	cache    Cache
	model    string
	observer func(hit bool)
	logger   *slog.Logger
}

var _ ai.Completer = (*CachingCompleter)(nil)

// Option configures a CachingCompleter.
type Option func(*CachingCompleter) error

// WithObserver registers fn to be told about every hit or miss.
func WithObserver(fn func(hit bool)) Option {
	return func(c *CachingCompleter) error {
		c.observer = fn
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachingCompleter) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewCachingCompleter wraps next. model is part of every key so switching
// models never serves stale answers.
func NewCachingCompleter(next ai.Completer, cache Cache, model string, opts ...Option) (*CachingCompleter, error) {
	if next == nil {
		return nil, errors.New("completer cannot be nil")
	}
	if cache == nil {
		return nil, errors.New("cache cannot be nil")
	}

	c := &CachingCompleter{
		next:   next,
		cache:  cache,
		model:  model,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "response-cache")
	return c, nil
}

// Complete returns the cached response for prompt or asks the model and
// caches a successful answer. Errors are never cached.
func (c *CachingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	key := Key(c.model, prompt)

	value, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", "err", err)
	} else if found {
		c.observe(true)
		return value, nil
	}
	c.observe(false)

	value, err = c.next.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, value); err != nil {
		c.logger.Warn("cache store failed", "err", err)
	}
	return value, nil
}

func (c *CachingCompleter) observe(hit bool) {
	if c.observer != nil {
		c.observer(hit)
	}
}
