// Package ingestion turns an article source into a stored article record.
//
// The Coordinator runs each ingestion in a fixed order:
//   - Validate the title and source
//   - Resolve the text, fetching it when the source is a URL
//   - Submit a background index job for the text
//   - Extract metadata, degrading to an empty analysis on failure
//   - Persist the article record
//
// Fetch and persistence failures are returned; extraction and index failures
// are logged and never fail the ingestion. Index jobs are detached: Ingest
// does not wait for them, so the article table and the semantic index may
// diverge.
package ingestion
