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


package reembed

import (
	"context"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

const (
	// DefaultBatchSize is the default number of memories to fetch in each batch
	DefaultBatchSize = 100
)

// MemoryIterator iterates over stored memories in batches.
type MemoryIterator struct {
	repo        storage.MemoryRepository
	batchSize   int
	onlyMissing bool
}

// NewMemoryIterator creates a new memory iterator.
// batchSize: number of memories to fetch in each batch (DefaultBatchSize if <= 0)
// onlyMissing: yield only memories without an embedding
func NewMemoryIterator(repo storage.MemoryRepository, batchSize int, onlyMissing bool) *MemoryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &MemoryIterator{
		repo:        repo,
		batchSize:   batchSize,
		onlyMissing: onlyMissing,
	}
}

// ForEach calls fn for each batch of memories in ID order, together with the
// number of memories scanned so far. With onlyMissing set, a batch may be
// smaller than the batch size and batches left empty are not passed to fn.
// Iteration stops on the first error from fn or on context cancellation.
func (it *MemoryIterator) ForEach(ctx context.Context, fn func(batch []*core.Memory, scanned int) error) error {
	scanned := 0
	return it.repo.ForEachMemory(ctx, it.batchSize, func(batch []*core.Memory) error {
		scanned += len(batch)
		if it.onlyMissing {
			batch = lo.Reject(batch, func(m *core.Memory, _ int) bool { return m.HasEmbedding() })
			if len(batch) == 0 {
				return ctx.Err()
			}
		}
		if err := fn(batch, scanned); err != nil {
			return err
		}
		return ctx.Err()
	})
}
