// Package fetch resolves article URLs to readable text.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/poiesic/newsdesk/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "newsdesk/1.0"
	defaultMaxBytes  = 8 << 20
)

// Mode selects how the readable body is extracted from HTML.
type Mode string

const (
	// ModeParagraphs joins the text of every <p> element in document order.
	ModeParagraphs Mode = "paragraphs"
	// ModeReadability runs the readability algorithm and falls back to
	// ModeParagraphs when it yields nothing.
	ModeReadability Mode = "readability"
)

// StatusError reports a non-2xx response. It wraps core.ErrFetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return core.ErrFetch
}

// Fetcher downloads pages and extracts their readable body.
type Fetcher struct {
	client    *http.Client
	mode      Mode
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher) error

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		f.client = client
		return nil
	}
}

// WithMode selects the extraction mode.
func WithMode(mode Mode) Option {
	return func(f *Fetcher) error {
		switch mode {
		case ModeParagraphs, ModeReadability:
			f.mode = mode
			return nil
		case "":
			f.mode = ModeParagraphs
			return nil
		default:
			return fmt.Errorf("unknown fetch mode %q", mode)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) error {
		f.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		f.logger = logger
		return nil
	}
}

// NewFetcher creates a fetcher. The default mode is ModeParagraphs.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		mode:      ModeParagraphs,
		userAgent: defaultUserAgent,
		maxBytes:  defaultMaxBytes,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "fetcher")
	return f, nil
}

// Fetch downloads rawURL and returns its readable body.
// Every failure wraps core.ErrFetch; non-2xx statuses are *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", core.ErrFetch, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %w", core.ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request document: %w", core.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("fetch returned non-success status", "url", rawURL, "status", resp.StatusCode)
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", core.ErrFetch, err)
	}

	if f.mode == ModeReadability {
		if text := readableText(body, target); text != "" {
			return text, nil
		}
		f.logger.Debug("readability found no content, using paragraphs", "url", rawURL)
	}

	text, err := Paragraphs(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse document: %w", core.ErrFetch, err)
	}
	f.logger.Debug("fetched article", "url", rawURL, "length", len(text))
	return text, nil
}

// Paragraphs returns the trimmed, non-empty text of each <p> element in
// document order, separated by blank lines.
func Paragraphs(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n"), nil
}

func readableText(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
