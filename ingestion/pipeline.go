package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// DefaultSource labels memories ingested without an explicit source.
const DefaultSource = "cli"

// Invalidator is notified when stored categories or tags may have changed.
// catalog.Cache implements it.
type Invalidator interface {
	Invalidate()
}

// Pipeline stores new memories and enriches them in the background with an
// embedding and a classification, each on its own worker pool.
type Pipeline struct {
	memories    storage.MemoryRepository
	categories  storage.CategoryRepository
	writer      *writer
	poolSize    int
	embedding   *stage
	classify    *stage
	invalidator Invalidator
	pending     sync.WaitGroup
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of workers per stage.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		p.poolSize = max(size, 1)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithCategories sets the catalog offered to the classifier.
// Default is core.DefaultCategories.
func WithCategories(categories storage.CategoryRepository) Option {
	return func(p *Pipeline) error {
		p.categories = categories
		return nil
	}
}

// WithInvalidator registers a cache to invalidate after memories are
// classified, edited or added.
func WithInvalidator(invalidator Invalidator) Option {
	return func(p *Pipeline) error {
		p.invalidator = invalidator
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	memories storage.MemoryRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if memories == nil {
		return nil, ErrMemoryRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		memories: memories,
		writer:   &writer{memories: memories},
		poolSize: max(runtime.NumCPU()/2, 1),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Processors are built after the options so they see the final logger
	// and catalog.
	embeddingProc, err := newEmbeddingProcessor(p.writer, provider.Embedder(), p.logger)
	if err != nil {
		return nil, err
	}
	classifyProc, err := newClassificationProcessor(p.writer, provider.Classifier(), p.categories, p.logger)
	if err != nil {
		return nil, err
	}

	if p.embedding, err = newStage("embeddings", p.poolSize, embeddingProc); err != nil {
		return nil, err
	}
	if p.classify, err = newStage("classification", p.poolSize, classifyProc); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Category   string    // Initial category; classification may replace it
	Tags       []string  // Tags kept alongside the classifier's tags
	Source     string    // Origin label (DefaultSource if empty)
	SourceID   string    // Identifier of the memory at its origin
	ReceivedAt time.Time // Optional receipt time (uses current time if zero)
	OccurredAt time.Time // Optional occurrence time (uses ReceivedAt if zero)
	DueAt      time.Time // Optional due date
}

// Ingest stores content as a new memory and enriches it asynchronously.
// Processing includes generating an embedding and classifying the content.
// Errors during async processing are logged but do not fail the ingestion.
//
// Content already stored returns the existing memory and ErrDuplicateContent.
func (p *Pipeline) Ingest(ctx context.Context, content string, opts *IngestOptions) (*core.Memory, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, core.ErrEmptyContent
	}
	if p.released() {
		return nil, ErrReleased
	}

	existing, err := p.memories.FindByFingerprint(ctx, core.Fingerprint(content))
	switch {
	case err == nil:
		return existing, ErrDuplicateContent
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	received := opts.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}
	memory := &core.Memory{
		RawContent: content,
		Category:   lo.CoalesceOrEmpty(opts.Category, core.DefaultCategory),
		Tags:       opts.Tags,
		Source:     lo.CoalesceOrEmpty(opts.Source, DefaultSource),
		SourceID:   opts.SourceID,
	}
	memory.SetDate(core.DateFieldReceived, received)
	memory.SetDate(core.DateFieldOccurrence, lo.CoalesceOrEmpty(opts.OccurredAt, received))
	if !opts.DueAt.IsZero() {
		memory.SetDate(core.DateFieldDue, opts.DueAt)
	}

	added, err := p.memories.AddMemories(ctx, memory)
	if err != nil {
		return nil, err
	}
	p.invalidate()

	id := added[0].Id
	if err := p.submit(p.embedding, id); err != nil {
		return added[0], err
	}
	if err := p.submit(p.classify, id); err != nil {
		return added[0], err
	}
	return added[0], nil
}

// Edit replaces a memory's content. A changed content clears the embedding
// and queues the memory for re-embedding, so it is absent from search
// results until the new vector is stored.
func (p *Pipeline) Edit(ctx context.Context, id core.ID, content string) (*core.Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, core.ErrEmptyContent
	}
	if p.released() {
		return nil, ErrReleased
	}

	var edited *core.Memory
	changed, err := p.writer.apply(ctx, []core.ID{id}, func(m *core.Memory) bool {
		edited = m
		if m.RawContent == content {
			return false
		}
		m.RawContent = content
		m.Vector = nil
		return true
	})
	if err != nil {
		return nil, err
	}
	if edited == nil {
		return nil, fmt.Errorf("%w: memory %d", storage.ErrNotFound, id)
	}
	if changed == 0 {
		return edited, nil
	}
	if err := p.submit(p.embedding, id); err != nil {
		return edited, err
	}
	return edited, nil
}

// submit queues ids on st and tracks them until processed.
func (p *Pipeline) submit(st *stage, ids ...core.ID) error {
	p.pending.Add(1)
	err := st.submit(ids, func(err error) {
		defer p.pending.Done()
		if err != nil {
			p.logger.Error("error processing memories", "processor", st.name, "err", err)
			return
		}
		p.invalidate()
	})
	if err != nil {
		p.pending.Done()
	}
	return err
}

func (p *Pipeline) invalidate() {
	if p.invalidator != nil {
		p.invalidator.Invalidate()
	}
}

func (p *Pipeline) released() bool {
	return p.embedding.closed() || p.classify.closed()
}

// Wait blocks until all queued processing has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	for _, st := range []*stage{p.embedding, p.classify} {
		if st != nil {
			st.release()
		}
	}
}
