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

package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/newsdesk/core"
)

// Timestamps are stored as Unix microseconds, UTC.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	size := varint.Uint64.Size(uint64(chunk.Id)) +
		varint.Uint64.Size(uint64(chunk.DocumentId)) +
		varint.Int.Size(chunk.Position) +
		ord.String.Size(chunk.Title) +
		ord.String.Size(chunk.Source) +
		ord.String.Size(chunk.Text) +
		sizeVector(chunk.Vector) +
		sizeTime(chunk.IndexedAt)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(chunk.Id), buf)
	n += varint.Uint64.Marshal(uint64(chunk.DocumentId), buf[n:])
	n += varint.Int.Marshal(chunk.Position, buf[n:])
	n += ord.String.Marshal(chunk.Title, buf[n:])
	n += ord.String.Marshal(chunk.Source, buf[n:])
	n += ord.String.Marshal(chunk.Text, buf[n:])
	n += marshalVector(chunk.Vector, buf[n:])
	marshalTime(chunk.IndexedAt, buf[n:])
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	var (
		chunk core.Chunk
		d     = decoder{data: data}
	)
	chunk.Id = core.ID(d.uint64())
	chunk.DocumentId = core.ID(d.uint64())
	chunk.Position = d.int()
	chunk.Title = d.string()
	chunk.Source = d.string()
	chunk.Text = d.string()
	chunk.Vector = d.vector()
	chunk.IndexedAt = d.time()
	if d.err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, d.err)
	}
	return &chunk, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	size := ord.String.Size(checkpoint.Feed) +
		sizeTime(checkpoint.LastPublished) +
		varint.Int.Size(checkpoint.Ingested) +
		sizeTime(checkpoint.UpdatedAt)

	buf := make([]byte, size)
	n := ord.String.Marshal(checkpoint.Feed, buf)
	n += marshalTime(checkpoint.LastPublished, buf[n:])
	n += varint.Int.Marshal(checkpoint.Ingested, buf[n:])
	marshalTime(checkpoint.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var (
		checkpoint core.Checkpoint
		d          = decoder{data: data}
	)
	checkpoint.Feed = d.string()
	checkpoint.LastPublished = d.time()
	checkpoint.Ingested = d.int()
	checkpoint.UpdatedAt = d.time()
	if d.err != nil {
		return nil, fmt.Errorf("%w: checkpoint: %w", ErrSerializationFailed, d.err)
	}
	return &checkpoint, nil
}

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(timeToMicros(t))
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(timeToMicros(t), bs)
}

func timeToMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// decoder reads fields in order and remembers the first error.
type decoder struct {
	data []byte
	n    int
	err  error
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) vector() []float32 {
	length := d.int()
	if d.err != nil {
		return nil
	}
	if length < 0 || length > len(d.data)-d.n {
		d.err = ErrTruncatedData
		return nil
	}
	v := make([]float32, length)
	for i := range v {
		bits, n, err := varint.Uint32.Unmarshal(d.data[d.n:])
		d.n += n
		if err != nil {
			d.err = err
			return nil
		}
		v[i] = math.Float32frombits(bits)
	}
	return v
}

func (d *decoder) time() time.Time {
	if d.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(d.data[d.n:])
	d.n += n
	d.err = err
	if err != nil || v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
