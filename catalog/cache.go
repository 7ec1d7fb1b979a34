// Package catalog serves the live category and tag vocabulary to the query
// analyzer.
//
// A Cache reads both lists from a storage.CatalogStore concurrently and may
// keep the result for a short TTL. With a zero TTL every call goes to the
// store, so the vocabulary always reflects the data at the time of the call.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

const cacheKey = "catalog"

// Cache implements analyzer.CatalogProvider over a storage.CatalogStore.
type Cache struct {
	store  storage.CatalogStore
	ttl    time.Duration
	cache  *ristretto.Cache[string, *core.Catalog]
	group  singleflight.Group
	logger *slog.Logger

	// gen advances on every Invalidate. A fetch only stores its result if
	// no invalidation happened while it was running.
	gen atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache) error

// WithTTL keeps a fetched catalog for ttl. Zero disables caching.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) error {
		if ttl < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithLogger sets the logger. nil selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCache creates a Cache reading from store.
func NewCache(store storage.CatalogStore, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	c := &Cache{
		store:  store,
		logger: slog.Default().With("component", "catalog"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.ttl > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, *core.Catalog]{
			NumCounters:        100,
			MaxCost:            10,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Catalog returns the distinct categories and tags currently in use.
// The returned value is owned by the caller.
func (c *Cache) Catalog(ctx context.Context) (*core.Catalog, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			return clone(cached), nil
		}
	}

	// Concurrent callers share one fetch. The fetch is detached from any
	// single caller's cancellation; each caller stops waiting on its own ctx.
	gen := c.gen.Load()
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(cacheKey, func() (any, error) {
		return c.fetch(fetchCtx, gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("catalog fetch shared")
		}
		return clone(res.Val.(*core.Catalog)), nil
	}
}

func (c *Cache) fetch(ctx context.Context, gen uint64) (*core.Catalog, error) {
	var catalog core.Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := c.store.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		catalog.Categories = categories
		return nil
	})
	g.Go(func() error {
		tags, err := c.store.ListDistinctTags(gctx)
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}
		catalog.Tags = tags
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("catalog fetched", "categories", len(catalog.Categories), "tags", len(catalog.Tags))
	if c.cache != nil && c.gen.Load() == gen {
		c.cache.SetWithTTL(cacheKey, &catalog, 1, c.ttl)
		c.cache.Wait()
	}
	return &catalog, nil
}

// Invalidate drops any cached catalog. Writers call it after changing
// categories or tags.
func (c *Cache) Invalidate() {
	c.gen.Add(1)
	c.group.Forget(cacheKey)
	if c.cache != nil {
		c.cache.Del(cacheKey)
	}
}

// Close releases the cache.
func (c *Cache) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

func clone(catalog *core.Catalog) *core.Catalog {
	return &core.Catalog{
		Categories: slices.Clone(catalog.Categories),
		Tags:       slices.Clone(catalog.Tags),
	}
}
