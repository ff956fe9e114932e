package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Articles get IDs from the structured store's sequence; documents and
// chunks get content-derived IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID in base 10.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Tone is the overall tone of an article as judged by the extractor.
type Tone struct {
	Tone           string
	SentimentScore float64
}

// Extracted holds the entity and keyword lists pulled from an article.
// Order is preserved exactly as the extractor produced it.
type Extracted struct {
	Keywords      []string
	Topics        []string
	People        []string
	Organizations []string
	Locations     []string
}

// Analysis is the transient result of metadata extraction for one article.
// It is consumed by the ingestion coordinator and never persisted as is.
type Analysis struct {
	Tone      Tone
	Extracted Extracted
}

// EmptyAnalysis returns an analysis with default tone and empty, non-nil lists.
func EmptyAnalysis() *Analysis {
	return &Analysis{
		Extracted: Extracted{
			Keywords:      []string{},
			Topics:        []string{},
			People:        []string{},
			Organizations: []string{},
			Locations:     []string{},
		},
	}
}

// IsEmpty reports whether the analysis carries no information.
func (a *Analysis) IsEmpty() bool {
	if a == nil {
		return true
	}
	e := a.Extracted
	return a.Tone.Tone == "" && a.Tone.SentimentScore == 0 &&
		len(e.Keywords) == 0 && len(e.Topics) == 0 && len(e.People) == 0 &&
		len(e.Organizations) == 0 && len(e.Locations) == 0
}

// Article is one row of the structured store.
// Articles are immutable once written; there is no update or delete path.
type Article struct {
	Id             ID
	Title          string
	Tone           string
	SentimentScore float64
	Keywords       []string
	Topics         []string
	People         []string
	Organizations  []string
	Locations      []string
	CreatedAt      time.Time
}

// NewArticle builds an unsaved article from a title and an analysis.
// Nil lists are replaced by empty ones so they serialize as [].
func NewArticle(title string, analysis *Analysis, createdAt time.Time) *Article {
	if analysis == nil {
		analysis = EmptyAnalysis()
	}
	e := analysis.Extracted
	return &Article{
		Title:          title,
		Tone:           analysis.Tone.Tone,
		SentimentScore: analysis.Tone.SentimentScore,
		Keywords:       nonNil(e.Keywords),
		Topics:         nonNil(e.Topics),
		People:         nonNil(e.People),
		Organizations:  nonNil(e.Organizations),
		Locations:      nonNil(e.Locations),
		CreatedAt:      createdAt.UTC(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Source is where the text of an article comes from: a URL to fetch or
// the raw text itself. Exactly one of the fields is set.
type Source struct {
	URL  string
	Text string
}

// SourceFromURL returns a Source that must be fetched.
func SourceFromURL(url string) Source {
	return Source{URL: url}
}

// SourceFromText returns a Source carrying the article text directly.
func SourceFromText(text string) Source {
	return Source{Text: text}
}

// IsURL reports whether the source needs fetching.
func (s Source) IsURL() bool {
	return s.URL != ""
}

// Chunk is a bounded slice of article text with its embedding.
// Chunks only exist as entries of the semantic index.
type Chunk struct {
	Id         ID
	DocumentId ID
	Position   int
	Title      string
	Source     string
	Text       string
	Vector     []float32
	IndexedAt  time.Time
}

// DocumentID derives the semantic-index document key from resolved text.
// Re-indexing identical text therefore replaces the same chunks.
func DocumentID(text string) ID {
	return IDFromContent(text)
}

// ChunkID derives a chunk key from its document and position.
func ChunkID(documentID ID, position int) ID {
	return IDFromContent(documentID.String() + ":" + strconv.Itoa(position))
}

// SearchResult represents a retrieved chunk with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// Checkpoint records how far a feed has been ingested.
type Checkpoint struct {
	Feed          string
	LastPublished time.Time
	Ingested      int
	UpdatedAt     time.Time
}
