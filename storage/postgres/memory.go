package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"
	"gorm.io/gorm/clause"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// MemoryRepository implements storage.MemoryRepository, storage.CandidateQuerier
// and storage.CatalogStore for PostgreSQL.
type MemoryRepository struct {
	store *Store
}

var (
	_ storage.MemoryRepository = (*MemoryRepository)(nil)
	_ storage.CandidateQuerier = (*MemoryRepository)(nil)
	_ storage.CatalogStore     = (*MemoryRepository)(nil)
)

// NewMemoryRepository creates a MemoryRepository on store.
func NewMemoryRepository(store *Store) *MemoryRepository {
	return &MemoryRepository{store: store}
}

// WithTransaction delegates to the store.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.WithTransaction(ctx, fn)
}

// Close is a no-op; the Store owns the connection.
func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) checkDimension(vector []float32) error {
	if len(vector) == 0 || r.store.dimension <= 0 || len(vector) == r.store.dimension {
		return nil
	}
	return fmt.Errorf("%w: store holds %d-dimensional vectors, got %d",
		storage.ErrDimensionMismatch, r.store.dimension, len(vector))
}

// AddMemories inserts memories. IDs are assigned by the database when zero.
func (r *MemoryRepository) AddMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	err := r.WithTransaction(ctx, func(ctx context.Context) error {
		for _, memory := range memories {
			if err := core.ValidateMemory(memory); err != nil {
				return err
			}
			if err := r.checkDimension(memory.Vector); err != nil {
				return err
			}
			now := time.Now().UTC()
			if memory.InsertedAt.IsZero() {
				memory.InsertedAt = now
			}
			memory.UpdatedAt = now
			memory.Normalize()

			row, err := toRow(memory)
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			if err := r.store.conn(ctx).Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert memory: %w", err)
			}
			memory.Id = core.ID(row.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return memories, nil
}

// UpdateMemories replaces existing memories.
func (r *MemoryRepository) UpdateMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	err := r.WithTransaction(ctx, func(ctx context.Context) error {
		for _, memory := range memories {
			if err := core.ValidateMemory(memory); err != nil {
				return err
			}
			if err := r.checkDimension(memory.Vector); err != nil {
				return err
			}
			var old memoryRow
			if err := r.store.conn(ctx).Select("id", "inserted_at").First(&old, uint64(memory.Id)).Error; err != nil {
				if isNotFound(err) {
					return fmt.Errorf("%w: memory %d", storage.ErrNotFound, memory.Id)
				}
				return err
			}
			memory.InsertedAt = old.InsertedAt
			memory.UpdatedAt = time.Now().UTC()
			memory.Normalize()

			row, err := toRow(memory)
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			if err := r.store.conn(ctx).Save(row).Error; err != nil {
				return fmt.Errorf("failed to update memory: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return memories, nil
}

// DeleteMemories removes memories by ID.
func (r *MemoryRepository) DeleteMemories(ctx context.Context, ids ...core.ID) error {
	return r.WithTransaction(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			result := r.store.conn(ctx).Delete(&memoryRow{}, uint64(id))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: memory %d", storage.ErrNotFound, id)
			}
		}
		return nil
	})
}

// GetMemory retrieves a single memory by ID.
func (r *MemoryRepository) GetMemory(ctx context.Context, id core.ID) (*core.Memory, error) {
	var row memoryRow
	if err := r.store.conn(ctx).First(&row, uint64(id)).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: memory %d", storage.ErrNotFound, id)
		}
		return nil, err
	}
	return row.toMemory()
}

// GetMemories retrieves memories in the order of ids, skipping missing ones.
func (r *MemoryRepository) GetMemories(ctx context.Context, ids ...core.ID) ([]*core.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []memoryRow
	keys := lo.Map(ids, func(id core.ID, _ int) uint64 { return uint64(id) })
	if err := r.store.conn(ctx).Where("id IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := lo.KeyBy(rows, func(row memoryRow) core.ID { return core.ID(row.ID) })

	var result []*core.Memory
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		memory, err := row.toMemory()
		if err != nil {
			return nil, err
		}
		result = append(result, memory)
	}
	return result, nil
}

// FindByFingerprint returns the oldest memory with the given fingerprint.
func (r *MemoryRepository) FindByFingerprint(ctx context.Context, fingerprint core.ID) (*core.Memory, error) {
	var row memoryRow
	err := r.store.conn(ctx).
		Where("fingerprint = ?", int64(fingerprint)).
		Order("id").
		First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return row.toMemory()
}

// GetRecentMemories returns the most recently inserted memories, newest first.
func (r *MemoryRepository) GetRecentMemories(ctx context.Context, limit int) ([]*core.Memory, error) {
	var rows []memoryRow
	err := r.store.conn(ctx).
		Order("inserted_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMemories(rows)
}

// ForEachMemory pages through memories by ID.
func (r *MemoryRepository) ForEachMemory(ctx context.Context, batchSize int, fn func([]*core.Memory) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", storage.ErrInvalidQuery)
	}
	var last uint64
	for {
		var rows []memoryRow
		err := r.store.conn(ctx).
			Where("id > ?", last).
			Order("id").
			Limit(batchSize).
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		batch, err := toMemories(rows)
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(rows) < batchSize {
			return nil
		}
		last = rows[len(rows)-1].ID
	}
}

// CountMemories returns the number of stored memories.
func (r *MemoryRepository) CountMemories(ctx context.Context) (int, error) {
	var n int64
	err := r.store.conn(ctx).Model(&memoryRow{}).Count(&n).Error
	return int(n), err
}

// BulkClassify sets the category of every listed memory.
func (r *MemoryRepository) BulkClassify(ctx context.Context, ids []core.ID, category string) (int, error) {
	if category == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidCategory, core.ErrEmptyCategoryName)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.store.conn(ctx).
		Model(&memoryRow{}).
		Where("id IN ?", lo.Map(ids, func(id core.ID, _ int) uint64 { return uint64(id) })).
		Updates(map[string]any{"category": category, "updated_at": time.Now().UTC()})
	return int(result.RowsAffected), result.Error
}

// BulkTag adds, removes or replaces tags on every listed memory.
func (r *MemoryRepository) BulkTag(ctx context.Context, ids []core.ID, op storage.TagOperation, tags []string) (int, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	updated := 0
	err := r.WithTransaction(ctx, func(ctx context.Context) error {
		var rows []memoryRow
		err := r.store.conn(ctx).
			Select("id", "tags").
			Where("id IN ?", lo.Map(ids, func(id core.ID, _ int) uint64 { return uint64(id) })).
			Find(&rows).Error
		if err != nil {
			return err
		}
		for _, row := range rows {
			next := op.Apply(row.Tags, tags)
			err := r.store.conn(ctx).
				Model(&memoryRow{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{"tags": pq.StringArray(next), "updated_at": time.Now().UTC()}).Error
			if err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// CategoryStats counts memories per category, most used first.
func (r *MemoryRepository) CategoryStats(ctx context.Context) ([]core.CategoryCount, error) {
	var stats []core.CategoryCount
	err := r.store.conn(ctx).
		Model(&memoryRow{}).
		Select("category, count(*) AS count").
		Where("category <> ''").
		Group("category").
		Order("count DESC, category ASC").
		Scan(&stats).Error
	return stats, err
}

// ListCategories returns the distinct categories in use, sorted by name.
func (r *MemoryRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.store.conn(ctx).
		Model(&memoryRow{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

// ListDistinctTags returns the distinct tags in use, sorted by name.
func (r *MemoryRepository) ListDistinctTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := r.store.conn(ctx).
		Raw("SELECT DISTINCT tag FROM memories, unnest(tags) AS tag ORDER BY tag").
		Scan(&tags).Error
	return tags, err
}

// QueryCandidates lowers q to one SQL query: q.Filter becomes the WHERE
// clause and similarity plus boosts the ORDER BY.
func (r *MemoryRepository) QueryCandidates(ctx context.Context, q storage.Query) ([]*core.Candidate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := r.checkDimension(q.Vector); err != nil {
		return nil, err
	}
	vector := pgvector.NewVector(q.Vector)

	where, err := lowerFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	score, err := scoreExpr(vector, q.Boosts)
	if err != nil {
		return nil, err
	}

	var rows []candidateRow
	err = r.store.conn(ctx).
		Model(&memoryRow{}).
		Select("memories.*, "+similaritySQL+" AS similarity", vector).
		Where(where.SQL, where.Vars...).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: score.SQL + " DESC, id ASC", Vars: score.Vars},
		}).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}

	candidates := make([]*core.Candidate, 0, len(rows))
	for i := range rows {
		memory, err := rows[i].toMemory()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &core.Candidate{Memory: memory, Similarity: rows[i].Similarity})
	}
	return candidates, nil
}

func toMemories(rows []memoryRow) ([]*core.Memory, error) {
	memories := make([]*core.Memory, 0, len(rows))
	for i := range rows {
		memory, err := rows[i].toMemory()
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}
	return memories, nil
}
