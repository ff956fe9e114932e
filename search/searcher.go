package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/newsdesk/ai"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
)

const (
	// DefaultMinSimilarity is the cosine floor for semantic candidates.
	DefaultMinSimilarity = 0.3

	// DefaultRankConstant is the k of reciprocal rank fusion.
	DefaultRankConstant = 60

	// candidates fetched from each list per requested hit
	candidateFactor = 3
)

// Searcher provides hybrid semantic and keyword search over indexed chunks.
type Searcher struct {
	index         storage.ChunkIndex
	embedder      ai.Embedder
	minSimilarity float32
	rankConstant  int
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the cosine floor for semantic candidates.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		if min < -1 || min > 1 {
			return errors.New("minimum similarity must be within [-1, 1]")
		}
		s.minSimilarity = min
		return nil
	}
}

// WithRankConstant sets the k of reciprocal rank fusion.
// Default is DefaultRankConstant.
func WithRankConstant(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return errors.New("rank constant must be positive")
		}
		s.rankConstant = k
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.ChunkIndex, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrChunkIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:         index,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		rankConstant:  DefaultRankConstant,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches for chunks relevant to the query.
// Returns up to maxHits results, ranked by fused score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for chunks relevant to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
//
// If one of the two lists fails the other is used alone; the error is
// returned only when both fail.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	if strings.TrimSpace(query) == "" || maxHits <= 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}
	depth := maxHits * candidateFactor

	// 1. Semantic candidates
	semantic, semanticErr := s.semanticSearch(ctx, query, depth)
	if semanticErr != nil {
		s.logger.Warn("semantic search failed", "query", query, "err", semanticErr)
	}
	monitor.AfterSemanticSearch(semantic)

	// 2. Keyword candidates
	keyword, keywordErr := s.index.FindKeyword(ctx, query, depth)
	if keywordErr != nil {
		s.logger.Warn("keyword search failed", "query", query, "err", keywordErr)
	}
	monitor.AfterKeywordSearch(keyword)

	if semanticErr != nil && keywordErr != nil {
		return nil, errors.Join(semanticErr, keywordErr)
	}

	// 3. Fuse
	fused := make(map[core.ID]*core.SearchResult)
	vote := func(list []*core.SearchResult) {
		for rank, result := range list {
			id := result.Chunk.Id
			entry, ok := fused[id]
			if !ok {
				entry = &core.SearchResult{Chunk: result.Chunk}
				fused[id] = entry
			}
			entry.Score += s.reciprocalRank(rank)
		}
	}
	vote(semantic)
	vote(keyword)

	// 4. Verbatim match boost
	results := make([]*core.SearchResult, 0, len(fused))
	for _, result := range fused {
		if mentionsAllTerms(result.Chunk.Text, query) {
			result.Score += s.reciprocalRank(0)
			monitor.VerbatimHit(result.Chunk)
		}
		results = append(results, result)
	}

	// Sort by score descending, then by chunk key for stable output
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		a, b := results[i].Chunk, results[j].Chunk
		if a.DocumentId != b.DocumentId {
			return a.DocumentId < b.DocumentId
		}
		return a.Position < b.Position
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search finished", "query", query, "semantic", len(semantic), "keyword", len(keyword), "results", len(results))
	return results, nil
}

func (s *Searcher) semanticSearch(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.index.FindSimilar(ctx, embedding, s.minSimilarity, limit)
}

func (s *Searcher) reciprocalRank(rank int) float32 {
	return 1 / float32(s.rankConstant+rank+1)
}
