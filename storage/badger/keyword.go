package badger

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve"
	"github.com/poiesic/newsdesk/core"
)

// keywordIndex is an in-memory BM25 mirror of chunk text.
// It is rebuilt from badger on open and never persisted.
type keywordIndex struct {
	index bleve.Index
}

type keywordDoc struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type keywordHit struct {
	documentID core.ID
	position   int
	score      float64
}

func newKeywordIndex() (*keywordIndex, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("bleve: %w", err)
	}
	return &keywordIndex{index: index}, nil
}

func (k *keywordIndex) add(chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := k.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(keywordDocID(c.DocumentId, c.Position), keywordDoc{Title: c.Title, Text: c.Text}); err != nil {
			return err
		}
	}
	return k.index.Batch(batch)
}

func (k *keywordIndex) remove(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := k.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return k.index.Batch(batch)
}

// search runs q as a query string of bare terms. Query-string operators are
// stripped first; '?' and '*' would otherwise turn words into wildcards.
func (k *keywordIndex) search(q string, limit int) ([]keywordHit, error) {
	q = plainTerms(q)
	if q == "" || limit <= 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), limit, 0, false)
	res, err := k.index.Search(req)
	if err != nil {
		req = bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), limit, 0, false)
		if res, err = k.index.Search(req); err != nil {
			return nil, err
		}
	}

	hits := make([]keywordHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, pos, ok := parseKeywordDocID(hit.ID)
		if !ok {
			continue
		}
		hits = append(hits, keywordHit{documentID: doc, position: pos, score: hit.Score})
	}
	return hits, nil
}

func plainTerms(q string) string {
	return strings.Join(strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func (k *keywordIndex) close() error {
	return k.index.Close()
}
