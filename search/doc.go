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


// Package search provides hybrid semantic and keyword retrieval over the
// chunk index.
//
// The Searcher type combines two ranked lists:
//   - Semantic search using vector embeddings
//   - Keyword (BM25) search over chunk text
//
// The lists are merged with reciprocal rank fusion, and chunks containing
// every non-stop-word of the query get one extra first-rank vote.
package search
