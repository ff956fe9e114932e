package badger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdesk/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
	assert.NoError(t, backend.Close(), "second close is a no-op")

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.True(t, errors.Is(err, storage.ErrStorageClosed))
}

func TestWithTx_WriteAndRead(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	var got string
	err = backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte("k"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			got = string(val)
			return nil
		})
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRunGC(t *testing.T) {
	backend, err := OpenBackend(t.TempDir(), false)
	require.NoError(t, err)
	defer backend.Close()

	assert.NoError(t, backend.RunGC(0.5))
}

func TestKeys(t *testing.T) {
	key := makeChunkKey(42, 7)
	doc, pos, ok := parseChunkKey(key)
	require.True(t, ok)
	assert.EqualValues(t, 42, doc)
	assert.Equal(t, 7, pos)
	assert.True(t, len(key) > len(makeDocumentPrefix(42)))
	assert.Equal(t, makeDocumentPrefix(42), key[:len(makeDocumentPrefix(42))])

	_, _, ok = parseChunkKey([]byte("chunk:short"))
	assert.False(t, ok)

	id := keywordDocID(0xdeadbeef, 3)
	doc, pos, ok = parseKeywordDocID(id)
	require.True(t, ok)
	assert.EqualValues(t, 0xdeadbeef, doc)
	assert.Equal(t, 3, pos)

	_, _, ok = parseKeywordDocID("garbage")
	assert.False(t, ok)
}
