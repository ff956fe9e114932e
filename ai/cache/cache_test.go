package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/newsdesk/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]string{}}
}

func (m *mapCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("m", "p"), Key("m", "p"))
	assert.NotEqual(t, Key("m1", "p"), Key("m2", "p"))
	assert.NotEqual(t, Key("m", "p1"), Key("m", "p2"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Len(t, Key("m", "p"), 64)
}

func TestCachingCompleter(t *testing.T) {
	ctx := context.Background()
	completer := mock.NewMockCompleter().WithResponse("hello", "world")
	store := newMapCache()

	var hits, misses int
	c, err := NewCachingCompleter(completer, store, "model-a", WithObserver(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := c.Complete(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, "world", got)
	}

	assert.Equal(t, 1, completer.CallCount())
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)

	other, err := NewCachingCompleter(completer, store, "model-b")
	require.NoError(t, err)
	_, err = other.Complete(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, completer.CallCount(), "different model misses")
}

func TestCachingCompleter_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", boom
	}
	store := newMapCache()

	c, err := NewCachingCompleter(completer, store, "m")
	require.NoError(t, err)

	_, err = c.Complete(ctx, "p")
	assert.Equal(t, boom, err)
	assert.Empty(t, store.values)
}

func TestCachingCompleter_CacheFailureFallsThrough(t *testing.T) {
	completer := mock.NewMockCompleter().WithResponse("", "answer")
	store := newMapCache()
	store.getErr = errors.New("cache down")

	c, err := NewCachingCompleter(completer, store, "m")
	require.NoError(t, err)

	got, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
}

func TestNewCachingCompleter_Validation(t *testing.T) {
	_, err := NewCachingCompleter(nil, newMapCache(), "m")
	assert.Error(t, err)
	_, err = NewCachingCompleter(mock.NewMockCompleter(), nil, "m")
	assert.Error(t, err)
	_, err = NewCachingCompleter(mock.NewMockCompleter(), newMapCache(), "m", WithLogger(nil))
	assert.Error(t, err)
}
