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

// Package storage provides the storage abstraction layer for newsdesk.
//
// Two stores back the system and may diverge:
//
//   - ArticleStore: the authoritative relational Articles table
//     (see storage/sqlstore for SQLite and Postgres)
//   - ChunkIndex: the best-effort semantic index of chunk vectors
//     (see storage/badger)
//
// # Constructor Return Type Pattern
//
// Public constructors return these interfaces so callers never couple to a
// backend:
//
//	articles, err := sqlstore.Open(ctx, sqlstore.Config{Dialect: "sqlite", DSN: "articles.db"})
//	index, err := badger.OpenChunkIndex("/var/lib/newsdesk/index", "embeddinggemma")
//
// Internal constructors may return concrete types.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use. The chunk index
// expects a single writer (see semantic.Indexer) but any number of readers.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
