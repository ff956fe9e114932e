package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one entry of a parsed feed.
type Item struct {
	ID        string
	Title     string
	Link      string
	Summary   string
	Published time.Time
}

// Reader parses feeds into items.
type Reader interface {
	Read(ctx context.Context, url string) ([]Item, error)
}

// GoFeedReader reads RSS, Atom and JSON feeds with gofeed.
type GoFeedReader struct {
	parser *gofeed.Parser
}

var _ Reader = (*GoFeedReader)(nil)

// NewGoFeedReader creates a reader. A nil client uses http.DefaultClient.
func NewGoFeedReader(client *http.Client) *GoFeedReader {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	parser.UserAgent = "newsdesk/1.0"
	return &GoFeedReader{parser: parser}
}

// Read fetches url and converts every entry. Entries without a GUID use
// their link as id; entries with neither are dropped.
func (r *GoFeedReader) Read(ctx context.Context, url string) ([]Item, error) {
	parsed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, url, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		item := Item{
			ID:      strings.TrimSpace(entry.GUID),
			Title:   strings.TrimSpace(entry.Title),
			Link:    strings.TrimSpace(entry.Link),
			Summary: strings.TrimSpace(entry.Description),
		}
		if item.ID == "" {
			item.ID = item.Link
		}
		if item.ID == "" {
			continue
		}
		if item.Summary == "" {
			item.Summary = strings.TrimSpace(entry.Content)
		}
		switch {
		case entry.PublishedParsed != nil:
			item.Published = entry.PublishedParsed.UTC()
		case entry.UpdatedParsed != nil:
			item.Published = entry.UpdatedParsed.UTC()
		}
		items = append(items, item)
	}
	return items, nil
}
