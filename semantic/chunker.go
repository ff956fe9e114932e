package semantic

import (
	"errors"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the number of runes shared by adjacent chunks.
	DefaultChunkOverlap = 50
)

// DefaultSeparators are tried in order: paragraphs, lines, sentences, words.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits text into bounded, overlapping chunks.
type Chunker struct {
	size       int
	overlap    int
	separators []string
	splitter   textsplitter.RecursiveCharacter
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker) error

// WithChunkSize sets the maximum chunk length in runes.
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) error {
		if size < 1 {
			return errors.New("chunk size must be positive")
		}
		c.size = size
		return nil
	}
}

// WithChunkOverlap sets how many runes adjacent chunks share.
func WithChunkOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) error {
		if overlap < 0 {
			return errors.New("chunk overlap cannot be negative")
		}
		c.overlap = overlap
		return nil
	}
}

// WithSeparators replaces the separator preference list.
func WithSeparators(separators ...string) ChunkerOption {
	return func(c *Chunker) error {
		if len(separators) == 0 {
			return errors.New("at least one separator required")
		}
		c.separators = separators
		return nil
	}
}

// NewChunker creates a chunker. Defaults are DefaultChunkSize,
// DefaultChunkOverlap and DefaultSeparators.
func NewChunker(opts ...ChunkerOption) (*Chunker, error) {
	c := &Chunker{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.size {
		return nil, errors.New("chunk overlap must be smaller than chunk size")
	}

	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.size),
		textsplitter.WithChunkOverlap(c.overlap),
		textsplitter.WithSeparators(c.separators),
	)
	return c, nil
}

// Split returns the non-blank chunks of text in document order.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks, nil
}
