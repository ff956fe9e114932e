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

import "errors"

// Pipeline failure classes. Components wrap the underlying cause with one of
// these so callers can classify failures with errors.Is.
var (
	// ErrFetch indicates the article source could not be resolved to text.
	// Fatal to ingestion.
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates metadata extraction failed.
	// Absorbed: ingestion continues with an empty analysis.
	ErrExtraction = errors.New("extraction failed")

	// ErrPersistence indicates the article record could not be written.
	// Fatal to ingestion.
	ErrPersistence = errors.New("persistence failed")

	// ErrIndex indicates a background index job failed.
	// Logged only, never returned to an ingestion caller.
	ErrIndex = errors.New("index update failed")

	// ErrRouting indicates a capability invocation failed while answering.
	// Recovered by the router.
	ErrRouting = errors.New("capability invocation failed")
)

// Domain validation errors
var (
	// ErrInvalidArticle indicates an Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidSource indicates a Source failed validation.
	ErrInvalidSource = errors.New("invalid source")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates a text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is zero or in the future.
	ErrInvalidTimestamp = errors.New("timestamp must be set and not in the future")

	// ErrInvalidSentiment indicates a sentiment score that is NaN or infinite.
	ErrInvalidSentiment = errors.New("sentiment score must be finite")
)
