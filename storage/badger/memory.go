package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// MemoryRepository implements storage.MemoryRepository, storage.CandidateQuerier
// and storage.CatalogStore for BadgerDB.
type MemoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var (
	_ storage.MemoryRepository = (*MemoryRepository)(nil)
	_ storage.CandidateQuerier = (*MemoryRepository)(nil)
	_ storage.CatalogStore     = (*MemoryRepository)(nil)
)

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(backend *Backend) (*MemoryRepository, error) {
	idSeq, err := backend.GetSequence(memoryIDSeq)
	if err != nil {
		return nil, err
	}

	return &MemoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MemoryRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *MemoryRepository) nextID() (core.ID, error) {
	next, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		if next, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}

// AddMemories adds one or more memories to storage.
func (r *MemoryRepository) AddMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, memory := range memories {
			if err := core.ValidateMemory(memory); err != nil {
				return err
			}
			if memory.Id == 0 {
				id, err := r.nextID()
				if err != nil {
					return err
				}
				memory.Id = id
			}

			now := time.Now().UTC()
			if memory.InsertedAt.IsZero() {
				memory.InsertedAt = now
			}
			memory.UpdatedAt = now
			memory.Normalize()

			if err := r.writeMemory(tx, nil, memory); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return memories, nil
}

// UpdateMemories updates existing memories.
func (r *MemoryRepository) UpdateMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, memory := range memories {
			if err := core.ValidateMemory(memory); err != nil {
				return err
			}
			old, err := readMemory(tx, memory.Id)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: memory %d", storage.ErrNotFound, memory.Id)
			}

			memory.InsertedAt = old.InsertedAt
			memory.UpdatedAt = time.Now().UTC()
			memory.Normalize()

			if err := r.writeMemory(tx, old, memory); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return memories, nil
}

// DeleteMemories removes memories by their IDs.
func (r *MemoryRepository) DeleteMemories(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			memory, err := readMemory(tx, id)
			if err != nil {
				return err
			}
			if memory == nil {
				return fmt.Errorf("%w: memory %d", storage.ErrNotFound, id)
			}
			if err := deleteIndexes(tx, memory); err != nil {
				return err
			}
			if err := tx.Delete(makeMemoryKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetMemory retrieves a single memory by ID.
func (r *MemoryRepository) GetMemory(ctx context.Context, id core.ID) (*core.Memory, error) {
	var result *core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMemory(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: memory %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetMemories retrieves multiple memories by their IDs.
func (r *MemoryRepository) GetMemories(ctx context.Context, ids ...core.ID) ([]*core.Memory, error) {
	var result []*core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			memory, err := readMemory(tx, id)
			if err != nil {
				return err
			}
			if memory != nil {
				result = append(result, memory)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindByFingerprint returns the memory with the given content fingerprint.
func (r *MemoryRepository) FindByFingerprint(ctx context.Context, fingerprint core.ID) (*core.Memory, error) {
	var result *core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readIDValue(tx, makeFingerprintKey(fingerprint))
		if err != nil {
			return err
		}
		if id != 0 {
			if result, err = readMemory(tx, id); err != nil {
				return err
			}
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecentMemories returns the most recently inserted memories, newest first.
func (r *MemoryRepository) GetRecentMemories(ctx context.Context, limit int) ([]*core.Memory, error) {
	var results []*core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(memoryInsertedPrefix)
		// Seek past the last possible key under the prefix.
		seek := append(slices.Clone(prefix), 0xff)
		for iter.Seek(seek); iter.ValidForPrefix(prefix) && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			id := core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
			memory, err := readMemory(tx, id)
			if err != nil {
				return err
			}
			if memory != nil {
				results = append(results, memory)
			}
		}
		return nil
	}, false)
	return results, err
}

// ForEachMemory calls fn with successive batches of memories in ID order.
// Each batch is read in its own transaction so fn may write.
func (r *MemoryRepository) ForEachMemory(ctx context.Context, batchSize int, fn func([]*core.Memory) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", storage.ErrInvalidQuery)
	}
	prefix := []byte(memoryPrefix)
	seek := prefix
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := make([]*core.Memory, 0, batchSize)
		var lastKey []byte
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Seek(seek); iter.Valid() && len(batch) < batchSize; iter.Next() {
				item := iter.Item()
				memory, err := decodeItem(item)
				if err != nil {
					return err
				}
				batch = append(batch, memory)
				lastKey = item.KeyCopy(nil)
			}
			return nil
		}, false)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		// Resume strictly after the last key of this batch.
		seek = append(lastKey, 0x00)
	}
}

// CountMemories returns the number of stored memories.
func (r *MemoryRepository) CountMemories(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(memoryPrefix), true, func(*badger.Item) (bool, error) {
			count++
			return true, nil
		})
	}, false)
	return count, err
}

// BulkClassify sets the category of every listed memory.
func (r *MemoryRepository) BulkClassify(ctx context.Context, ids []core.ID, category string) (int, error) {
	if category == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidCategory, core.ErrEmptyCategoryName)
	}
	return r.bulkUpdate(ids, func(m *core.Memory) {
		m.Category = category
	})
}

// BulkTag adds, removes or replaces tags on every listed memory.
func (r *MemoryRepository) BulkTag(ctx context.Context, ids []core.ID, op storage.TagOperation, tags []string) (int, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	return r.bulkUpdate(ids, func(m *core.Memory) {
		m.Tags = op.Apply(m.Tags, tags)
	})
}

func (r *MemoryRepository) bulkUpdate(ids []core.ID, apply func(m *core.Memory)) (int, error) {
	updated := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			old, err := readMemory(tx, id)
			if err != nil {
				return err
			}
			if old == nil {
				continue
			}
			next, err := readMemory(tx, id)
			if err != nil {
				return err
			}
			apply(next)
			next.UpdatedAt = time.Now().UTC()
			next.Normalize()
			if err := r.writeMemory(tx, old, next); err != nil {
				return err
			}
			updated++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// CategoryStats counts memories per category, most used first.
func (r *MemoryRepository) CategoryStats(ctx context.Context) ([]core.CategoryCount, error) {
	counts := map[string]int{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(memoryCategoryPrefix), true, func(item *badger.Item) (bool, error) {
			counts[splitTermKey(memoryCategoryPrefix, item.Key())]++
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	stats := lo.MapToSlice(counts, func(category string, n int) core.CategoryCount {
		return core.CategoryCount{Category: category, Count: n}
	})
	slices.SortFunc(stats, func(a, b core.CategoryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Category < b.Category {
			return -1
		}
		if a.Category > b.Category {
			return 1
		}
		return 0
	})
	return stats, nil
}

// ListCategories returns the distinct categories in use, sorted by name.
func (r *MemoryRepository) ListCategories(ctx context.Context) ([]string, error) {
	return r.distinctTerms(memoryCategoryPrefix)
}

// ListDistinctTags returns the distinct tags in use, sorted by name.
func (r *MemoryRepository) ListDistinctTags(ctx context.Context) ([]string, error) {
	return r.distinctTerms(memoryTagPrefix)
}

// distinctTerms walks a term index. Keys are sorted by term, so equal terms
// are adjacent.
func (r *MemoryRepository) distinctTerms(prefix string) ([]string, error) {
	var terms []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(prefix), true, func(item *badger.Item) (bool, error) {
			term := splitTermKey(prefix, item.Key())
			if term != "" && (len(terms) == 0 || terms[len(terms)-1] != term) {
				terms = append(terms, term)
			}
			return true, nil
		})
	}, false)
	return terms, err
}

// Helper methods

// writeMemory stores memory and replaces the index entries of old.
func (r *MemoryRepository) writeMemory(tx *badger.Txn, old, memory *core.Memory) error {
	if err := checkDimension(tx, memory.Vector); err != nil {
		return err
	}
	if old != nil {
		if err := deleteIndexes(tx, old); err != nil {
			return err
		}
	}
	value, err := storage.MarshalMemory(memory)
	if err != nil {
		return err
	}
	if err := tx.Set(makeMemoryKey(memory.Id), value); err != nil {
		return err
	}
	return setIndexes(tx, memory)
}

func indexKeys(memory *core.Memory) [][]byte {
	keys := [][]byte{
		makeInsertedKey(memory.InsertedAt, memory.Id),
		makeFingerprintKey(memory.Fingerprint),
	}
	for field, v := range memory.Dates {
		if v.Short != "" {
			keys = append(keys, makeDateKey(field, v.Short, memory.Id))
		}
	}
	for _, tag := range memory.Tags {
		keys = append(keys, makeTermKey(memoryTagPrefix, tag, memory.Id))
	}
	if memory.Category != "" {
		keys = append(keys, makeTermKey(memoryCategoryPrefix, memory.Category, memory.Id))
	}
	return keys
}

func setIndexes(tx *badger.Txn, memory *core.Memory) error {
	value := storage.MarshalID(memory.Id)
	for _, key := range indexKeys(memory) {
		if err := tx.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

func deleteIndexes(tx *badger.Txn, memory *core.Memory) error {
	for _, key := range indexKeys(memory) {
		// The fingerprint key may have been claimed by a newer memory.
		if slices.Equal(key, makeFingerprintKey(memory.Fingerprint)) {
			owner, err := readIDValue(tx, key)
			if err != nil {
				return err
			}
			if owner != memory.Id {
				continue
			}
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// checkDimension enforces a single embedding dimensionality per store.
func checkDimension(tx *badger.Txn, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	item, err := tx.Get([]byte(dimensionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return tx.Set([]byte(dimensionKey), binary.BigEndian.AppendUint64(nil, uint64(len(vector))))
	}
	if err != nil {
		return err
	}
	var dim uint64
	if err := item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: corrupt dimension record", storage.ErrSerializationFailed)
		}
		dim = binary.BigEndian.Uint64(val)
		return nil
	}); err != nil {
		return err
	}
	if uint64(len(vector)) != dim {
		return fmt.Errorf("%w: store holds %d-dimensional vectors, got %d", storage.ErrDimensionMismatch, dim, len(vector))
	}
	return nil
}

// readMemory reads a memory, returning nil when it does not exist.
func readMemory(tx *badger.Txn, id core.ID) (*core.Memory, error) {
	item, err := tx.Get(makeMemoryKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeItem(item)
}

func decodeItem(item *badger.Item) (*core.Memory, error) {
	var memory *core.Memory
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		memory, unmarshalErr = storage.UnmarshalMemory(val)
		return unmarshalErr
	})
	return memory, err
}

// readIDValue reads an ID stored as a value, returning 0 when key is absent.
func readIDValue(tx *badger.Txn, key []byte) (core.ID, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var id core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		id, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	return id, err
}
