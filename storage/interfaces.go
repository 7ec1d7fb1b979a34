package storage

import (
	"context"
	"fmt"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/filter"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TagOperation selects how BulkTag changes a memory's tags.
type TagOperation int

const (
	// TagAdd adds tags to the existing set.
	TagAdd TagOperation = iota + 1
	// TagRemove removes tags from the existing set.
	TagRemove
	// TagReplace replaces the existing set.
	TagReplace
)

// MemoryRepository provides operations for managing memories.
type MemoryRepository interface {
	Repository

	// AddMemories adds one or more memories to storage.
	// Memories with ID=0 get a new ID from the sequence.
	// Tags are normalized, InsertedAt is set if zero, and vectors must
	// match the dimensionality of vectors already stored.
	AddMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error)

	// UpdateMemories updates existing memories and their indexes.
	// Returns ErrNotFound if any memory doesn't exist.
	UpdateMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error)

	// DeleteMemories removes memories by ID together with their indexes.
	// Returns ErrNotFound if any memory doesn't exist.
	DeleteMemories(ctx context.Context, ids ...core.ID) error

	// GetMemory retrieves a single memory by ID.
	// Returns ErrNotFound if the memory doesn't exist.
	GetMemory(ctx context.Context, id core.ID) (*core.Memory, error)

	// GetMemories retrieves memories by ID, skipping missing ones.
	GetMemories(ctx context.Context, ids ...core.ID) ([]*core.Memory, error)

	// FindByFingerprint returns the memory with the given content fingerprint.
	// Returns ErrNotFound if none exists.
	FindByFingerprint(ctx context.Context, fingerprint core.ID) (*core.Memory, error)

	// GetRecentMemories returns up to limit memories, newest first.
	GetRecentMemories(ctx context.Context, limit int) ([]*core.Memory, error)

	// ForEachMemory calls fn with successive batches of at most batchSize
	// memories in ID order. Iteration stops at the first error.
	ForEachMemory(ctx context.Context, batchSize int, fn func([]*core.Memory) error) error

	// CountMemories returns the number of stored memories.
	CountMemories(ctx context.Context) (int, error)

	// BulkClassify sets the category of every listed memory and returns the
	// number updated. Missing IDs are skipped.
	BulkClassify(ctx context.Context, ids []core.ID, category string) (int, error)

	// BulkTag changes the tags of every listed memory and returns the
	// number updated. Missing IDs are skipped.
	BulkTag(ctx context.Context, ids []core.ID, op TagOperation, tags []string) (int, error)

	// CategoryStats counts memories per category, most used first.
	CategoryStats(ctx context.Context) ([]core.CategoryCount, error)
}

// Query is a candidate retrieval request.
//
// Filter is a hard predicate: only matching memories are returned. Boosts
// are soft: they only influence which Limit memories are kept, by ordering
// on similarity plus filter.TotalBoost.
type Query struct {
	Vector []float32
	Filter filter.Predicate
	Boosts []filter.Boost
	Limit  int
}

// Validate checks the query is executable.
func (q Query) Validate() error {
	if len(q.Vector) == 0 {
		return fmt.Errorf("%w: empty query vector", ErrInvalidQuery)
	}
	if q.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, q.Limit)
	}
	return nil
}

// CandidateQuerier retrieves scored candidates for a search.
type CandidateQuerier interface {
	// QueryCandidates returns at most q.Limit memories satisfying q.Filter,
	// ordered by similarity plus boosts, highest first. Each candidate
	// carries its raw cosine similarity.
	QueryCandidates(ctx context.Context, q Query) ([]*core.Candidate, error)
}

// CatalogStore lists the vocabulary in use on stored memories.
type CatalogStore interface {
	// ListCategories returns the distinct categories of stored memories,
	// sorted by name.
	ListCategories(ctx context.Context) ([]string, error)

	// ListDistinctTags returns the distinct tags of stored memories,
	// sorted by name.
	ListDistinctTags(ctx context.Context) ([]string, error)
}

// CategoryRepository manages the category catalog offered to classifiers.
type CategoryRepository interface {
	// ListCatalog returns every catalog category sorted by name.
	ListCatalog(ctx context.Context) ([]*core.Category, error)

	// AddCategory adds a catalog category.
	// Returns ErrDuplicateKey if the name is taken.
	AddCategory(ctx context.Context, category *core.Category) (*core.Category, error)

	// SeedDefaults adds core.DefaultCategories that are not yet present.
	SeedDefaults(ctx context.Context) error
}
