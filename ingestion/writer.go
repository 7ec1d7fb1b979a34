package ingestion

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// writer serializes read-modify-write cycles on memories so concurrent
// processors never overwrite each other's fields.
type writer struct {
	memories storage.MemoryRepository
	mu       sync.Mutex
}

// apply reloads the memories, calls fn on each and stores those fn reports
// as changed. Missing memories are skipped.
func (w *writer) apply(ctx context.Context, ids []core.ID, fn func(m *core.Memory) bool) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	memories, err := w.memories.GetMemories(ctx, ids...)
	if err != nil {
		return 0, err
	}
	changed := lo.Filter(memories, func(m *core.Memory, _ int) bool {
		return m != nil && fn(m)
	})
	if len(changed) == 0 {
		return 0, nil
	}
	if _, err := w.memories.UpdateMemories(ctx, changed...); err != nil {
		return 0, err
	}
	return len(changed), nil
}
