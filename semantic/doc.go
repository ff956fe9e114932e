// Package semantic turns resolved article text into embedded chunks and
// writes them to the semantic index.
//
// The Chunker splits text into bounded, overlapping pieces on paragraph
// boundaries first. The Indexer embeds those pieces and upserts them as one
// document. Index writes go through a single worker, so concurrent ingestions
// never race on the index, and jobs are detached from their submitters:
// failures are logged and reported to an observer, never returned.
package semantic
