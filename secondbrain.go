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

// Package secondbrain wires the storage backend, AI provider, catalog cache,
// query analyzer, searcher and ingestion pipeline from one AppConfig.
package secondbrain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/ai/anthropic"
	"github.com/mrdanjohnson/secondbrainv1/ai/openai"
	"github.com/mrdanjohnson/secondbrainv1/analyzer"
	"github.com/mrdanjohnson/secondbrainv1/catalog"
	"github.com/mrdanjohnson/secondbrainv1/config"
	"github.com/mrdanjohnson/secondbrainv1/dateparse"
	"github.com/mrdanjohnson/secondbrainv1/ingestion"
	"github.com/mrdanjohnson/secondbrainv1/reembed"
	"github.com/mrdanjohnson/secondbrainv1/search"
	"github.com/mrdanjohnson/secondbrainv1/storage"
	"github.com/mrdanjohnson/secondbrainv1/storage/badger"
	"github.com/mrdanjohnson/secondbrainv1/storage/postgres"
)

// ErrUnknownBackend is returned for an unsupported storage or AI backend.
var ErrUnknownBackend = errors.New("unknown backend")

// memoryStore is what a storage backend provides to the application.
type memoryStore interface {
	storage.MemoryRepository
	storage.CandidateQuerier
	storage.CatalogStore
}

// Brain bundles the components of one open knowledge base.
type Brain struct {
	cfg        *config.AppConfig
	memories   memoryStore
	categories storage.CategoryRepository
	provider   ai.AIProvider
	catalog    *catalog.Cache
	analyzer   *analyzer.Analyzer
	searcher   *search.Searcher
	closeStore func() error
	logger     *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	now      func() time.Time
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the AI config.
// The Brain takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithClock sets the clock relative dates are resolved against.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens the configured store and assembles the search stack.
func Open(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*Brain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	b := &Brain{cfg: cfg, logger: o.logger}
	if err := b.openStore(ctx); err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		var err error
		provider, err = newProvider(cfg.AI)
		if err != nil {
			b.closeStore()
			return nil, err
		}
	}
	b.provider = provider

	if err := b.assemble(o); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Brain) openStore(ctx context.Context) error {
	switch b.cfg.Storage.Backend {
	case "badger":
		repos, err := badger.NewRepositories(b.cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		b.memories, b.categories, b.closeStore = repos.Memories, repos.Categories, repos.Close
	case "postgres":
		store, err := postgres.Open(ctx, postgres.Config{
			DSN:       b.cfg.Storage.DSN,
			Dimension: b.cfg.Storage.Dimension,
		})
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		b.memories = postgres.NewMemoryRepository(store)
		b.categories = postgres.NewCategoryRepository(store)
		b.closeStore = store.Close
	default:
		return fmt.Errorf("%w: storage %q", ErrUnknownBackend, b.cfg.Storage.Backend)
	}
	return nil
}

func newProvider(cfg config.AIConfig) (ai.AIProvider, error) {
	aiConfig := cfg.ProviderConfig()
	switch aiConfig.Backend {
	case ai.BackendOpenAI:
		return openai.NewProvider(aiConfig)
	case ai.BackendAnthropic:
		return anthropic.NewProvider(aiConfig)
	default:
		return nil, fmt.Errorf("%w: ai %q", ErrUnknownBackend, aiConfig.Backend)
	}
}

func (b *Brain) assemble(o *options) error {
	sc := b.cfg.Search

	cache, err := catalog.NewCache(b.memories,
		catalog.WithTTL(sc.CatalogTTL),
		catalog.WithLogger(b.logger.With("component", "catalog")))
	if err != nil {
		return err
	}
	b.catalog = cache

	var resolverOpts []dateparse.Option
	if o.now != nil {
		resolverOpts = append(resolverOpts, dateparse.WithClock(o.now))
	}
	b.analyzer, err = analyzer.NewAnalyzer(dateparse.NewResolver(resolverOpts...), cache,
		analyzer.WithTieBreak(sc.AnalyzerTieBreak()),
		analyzer.WithMatchMode(sc.AnalyzerMatchMode()),
		analyzer.WithLogger(b.logger.With("component", "analyzer")))
	if err != nil {
		return err
	}

	b.searcher, err = search.NewSearcher(b.memories, b.analyzer, b.provider.Embedder(),
		search.WithWeights(sc.Weights()),
		search.WithMaxFetch(sc.MaxFetch),
		search.WithEmbedTimeout(sc.EmbedTimeout),
		search.WithLogger(b.logger.With("component", "search")))
	return err
}

// Config returns the configuration the Brain was opened with.
func (b *Brain) Config() *config.AppConfig {
	return b.cfg
}

// Memories returns the memory repository.
func (b *Brain) Memories() storage.MemoryRepository {
	return b.memories
}

// Categories returns the category catalog repository.
func (b *Brain) Categories() storage.CategoryRepository {
	return b.categories
}

// Searcher returns the hybrid searcher.
func (b *Brain) Searcher() *search.Searcher {
	return b.searcher
}

// SearchOptions returns per-call options carrying the configured defaults.
func (b *Brain) SearchOptions() search.Options {
	threshold := b.cfg.Search.Threshold
	return search.Options{
		Limit:     b.cfg.Search.Limit,
		Threshold: &threshold,
	}
}

// NewIngestionPipeline creates a pipeline that invalidates the catalog
// cache as memories change. Callers must Release it.
func (b *Brain) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithPoolSize(b.cfg.Ingestion.PoolSize),
		ingestion.WithCategories(b.categories),
		ingestion.WithInvalidator(b.catalog),
		ingestion.WithLogger(b.logger.With("component", "ingestion")),
	}
	return ingestion.NewPipeline(b.memories, b.provider, append(defaults, opts...)...)
}

// NewReembedder creates a reembedder using the provider's embedder.
func (b *Brain) NewReembedder(cfg *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(b.memories, b.provider.Embedder(), cfg, progress)
}

// Close releases the provider, cache and store.
func (b *Brain) Close() error {
	var errs []error
	if b.provider != nil {
		if err := b.provider.Close(); err != nil {
			b.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if b.catalog != nil {
		b.catalog.Close()
	}
	if b.closeStore != nil {
		if err := b.closeStore(); err != nil {
			b.logger.Error("error closing storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
