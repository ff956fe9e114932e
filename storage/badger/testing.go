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

package badger

import "github.com/poiesic/newsdesk/storage"

// NewMemoryChunkIndex opens an in-memory chunk index for tests.
// Close on the returned index also closes its backend.
func NewMemoryChunkIndex(model string) (storage.ChunkIndex, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	index, err := NewChunkIndex(backend, model)
	if err != nil {
		backend.Close()
		return nil, err
	}
	index.ownsBackend = true
	return index, nil
}
