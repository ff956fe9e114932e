package badger

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/newsdesk/core"
)

const (
	chunkPrefix          = "chunk:"
	embeddingModelKey    = "meta:embedding-model"
	cachePrefix          = "cache:"
	feedCheckpointPrefix = "feedchk:"
	feedSeenPrefix       = "feedseen:"
)

// makeChunkKey builds chunk:<document BE uint64><position BE uint32> so that
// a document's chunks are contiguous and ordered by position.
func makeChunkKey(documentID core.ID, position int) []byte {
	buf := make([]byte, len(chunkPrefix)+12)
	offset := copy(buf, chunkPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	binary.BigEndian.PutUint32(buf[offset+8:], uint32(position))
	return buf
}

func makeDocumentPrefix(documentID core.ID) []byte {
	buf := make([]byte, len(chunkPrefix)+8)
	offset := copy(buf, chunkPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// parseChunkKey is the inverse of makeChunkKey.
func parseChunkKey(key []byte) (core.ID, int, bool) {
	if len(key) != len(chunkPrefix)+12 || string(key[:len(chunkPrefix)]) != chunkPrefix {
		return 0, 0, false
	}
	rest := key[len(chunkPrefix):]
	return core.ID(binary.BigEndian.Uint64(rest)), int(binary.BigEndian.Uint32(rest[8:])), true
}

// keywordDocID is the bleve document id of a chunk.
func keywordDocID(documentID core.ID, position int) string {
	return fmt.Sprintf("%016x:%08x", uint64(documentID), uint32(position))
}

func parseKeywordDocID(id string) (core.ID, int, bool) {
	docHex, posHex, ok := strings.Cut(id, ":")
	if !ok {
		return 0, 0, false
	}
	doc, err := strconv.ParseUint(docHex, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	pos, err := strconv.ParseUint(posHex, 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return core.ID(doc), int(pos), true
}

func makeCacheKey(key string) []byte {
	return []byte(cachePrefix + key)
}

func makeCheckpointKey(feed string) []byte {
	return []byte(feedCheckpointPrefix + feed)
}

func makeSeenKey(feed, itemID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", feedSeenPrefix, core.IDFromContent(feed), itemID))
}
