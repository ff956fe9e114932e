package feed

import "errors"

var (
	// ErrCheckpointStoreRequired is returned when no checkpoint store is supplied.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")

	// ErrIngesterRequired is returned when no ingester is supplied.
	ErrIngesterRequired = errors.New("ingester is required")

	// ErrNoFeeds is returned when a poller is created without feeds.
	ErrNoFeeds = errors.New("at least one feed is required")

	// ErrInvalidFeed indicates a feed definition with a missing name or URL,
	// a duplicate name, or a schedule that does not parse.
	ErrInvalidFeed = errors.New("invalid feed")

	// ErrParse indicates the feed document could not be fetched or parsed.
	ErrParse = errors.New("feed parse failed")
)
