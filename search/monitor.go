package search

import "github.com/poiesic/newsdesk/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(results []*core.SearchResult)
	AfterKeywordSearch(results []*core.SearchResult)
	VerbatimHit(chunk *core.Chunk)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) VerbatimHit(_ *core.Chunk)                  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
