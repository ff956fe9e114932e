// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// ValidateArticle validates an Article according to domain rules.
//
// Validation rules:
//   - Title must not be blank
//   - CreatedAt must be set and not in the future
//   - SentimentScore must be finite
//
// NOT validated:
//   - ID (assigned by the store on insert)
//   - Tone and list fields (may be empty when extraction degraded)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if strings.TrimSpace(article.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyTitle)
	}

	if article.CreatedAt.IsZero() || !IsValidTimestamp(article.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrInvalidTimestamp)
	}

	if math.IsNaN(article.SentimentScore) || math.IsInf(article.SentimentScore, 0) {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrInvalidSentiment)
	}

	return nil
}

// ValidateSource checks that exactly one of URL and Text is set and that a
// URL is absolute http(s).
func ValidateSource(source Source) error {
	hasURL := strings.TrimSpace(source.URL) != ""
	hasText := strings.TrimSpace(source.Text) != ""

	switch {
	case hasURL && hasText:
		return fmt.Errorf("%w: both url and text given", ErrInvalidSource)
	case !hasURL && !hasText:
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrEmptyContent)
	case hasText:
		return nil
	}

	u, err := url.Parse(strings.TrimSpace(source.URL))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be absolute http or https: %q", ErrInvalidSource, source.URL)
	}
	return nil
}

// ValidateChunk validates a Chunk before it is written to the index.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("%w: missing vector", ErrInvalidChunk)
	}
	if chunk.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidChunk, chunk.Position)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
