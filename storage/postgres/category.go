package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// CategoryRepository implements storage.CategoryRepository for PostgreSQL.
type CategoryRepository struct {
	store *Store
}

var _ storage.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a CategoryRepository on store.
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

// ListCatalog returns every catalog category sorted by name.
func (r *CategoryRepository) ListCatalog(ctx context.Context) ([]*core.Category, error) {
	var rows []categoryRow
	if err := r.store.conn(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row categoryRow, _ int) *core.Category { return row.toCategory() }), nil
}

// AddCategory adds a catalog category.
func (r *CategoryRepository) AddCategory(ctx context.Context, category *core.Category) (*core.Category, error) {
	if err := core.ValidateCategory(category); err != nil {
		return nil, err
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	result := r.store.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&categoryRow{
			Name:        category.Name,
			Description: category.Description,
			Color:       category.Color,
			CreatedAt:   category.CreatedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: category %q", storage.ErrDuplicateKey, category.Name)
	}
	return category, nil
}

// SeedDefaults adds core.DefaultCategories that are not yet present.
func (r *CategoryRepository) SeedDefaults(ctx context.Context) error {
	now := time.Now().UTC()
	rows := lo.Map(core.DefaultCategories, func(c core.Category, _ int) categoryRow {
		return categoryRow{Name: c.Name, Description: c.Description, Color: c.Color, CreatedAt: now}
	})
	return r.store.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
