package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// CategoryRepository implements storage.CategoryRepository for BadgerDB.
type CategoryRepository struct {
	backend *Backend
}

var _ storage.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(backend *Backend) *CategoryRepository {
	return &CategoryRepository{backend: backend}
}

// ListCatalog returns every catalog category sorted by name.
func (r *CategoryRepository) ListCatalog(ctx context.Context) ([]*core.Category, error) {
	var categories []*core.Category
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(catalogPrefix), false, func(item *badger.Item) (bool, error) {
			return true, item.Value(func(val []byte) error {
				category, err := storage.UnmarshalCategory(val)
				if err != nil {
					return err
				}
				categories = append(categories, category)
				return nil
			})
		})
	}, false)
	return categories, err
}

// AddCategory adds a catalog category.
func (r *CategoryRepository) AddCategory(ctx context.Context, category *core.Category) (*core.Category, error) {
	if err := core.ValidateCategory(category); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := addCategory(tx, category); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// SeedDefaults adds core.DefaultCategories that are not yet present.
func (r *CategoryRepository) SeedDefaults(ctx context.Context) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, def := range core.DefaultCategories {
			category := def
			err := addCategory(tx, &category)
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func addCategory(tx *badger.Txn, category *core.Category) error {
	key := makeCatalogKey(category.Name)
	_, err := tx.Get(key)
	if err == nil {
		return fmt.Errorf("%w: category %q", storage.ErrDuplicateKey, category.Name)
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	value, err := storage.MarshalCategory(category)
	if err != nil {
		return err
	}
	return tx.Set(key, value)
}
