package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/ai/mock"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
	"github.com/mrdanjohnson/secondbrainv1/storage/badger"
)

// testEmbedder implements ai.Embedder for testing
type testEmbedder struct {
	embeddings  [][]float32
	shouldError bool
}

func (m *testEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if m.shouldError {
		return nil, errors.New("embedder error")
	}
	if len(m.embeddings) > 0 {
		return m.embeddings[0], nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *testEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.shouldError {
		return nil, errors.New("embedder error")
	}
	if len(m.embeddings) > 0 {
		return m.embeddings, nil
	}
	// Generate dynamic embeddings
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{float32(i+1) * 0.1, float32(i+1) * 0.2, float32(i+1) * 0.3}
	}
	return result, nil
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.calls.Add(1)
}

func setupTestRepositories(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func addMemories(t *testing.T, repos *badger.Repositories, memories ...*core.Memory) []*core.Memory {
	t.Helper()
	added, err := repos.Memories.AddMemories(context.Background(), memories...)
	require.NoError(t, err)
	return added
}

func TestEmbeddingProcessor_Process(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	embedder := &testEmbedder{
		embeddings: [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
	}
	ep, err := newEmbeddingProcessor(&writer{memories: repos.Memories}, embedder, nil)
	require.NoError(t, err)

	added := addMemories(t, repos,
		&core.Memory{RawContent: "First memory"},
		&core.Memory{RawContent: "Second memory"},
	)

	// Process in reverse order; vectors follow ID order
	err = ep.process(ctx, added[1].Id, added[0].Id)
	require.NoError(t, err)

	first, err := repos.Memories.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	second, err := repos.Memories.GetMemory(ctx, added[1].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, first.Vector)
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, second.Vector)
}

func TestEmbeddingProcessor_Process_EmbedderError(t *testing.T) {
	repos := setupTestRepositories(t)

	ep, err := newEmbeddingProcessor(&writer{memories: repos.Memories}, &testEmbedder{shouldError: true}, nil)
	require.NoError(t, err)

	added := addMemories(t, repos, &core.Memory{RawContent: "Test memory"})

	err = ep.process(context.Background(), added[0].Id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder error")
}

func TestEmbeddingProcessor_Process_ResultMismatch(t *testing.T) {
	repos := setupTestRepositories(t)

	embedder := &testEmbedder{embeddings: [][]float32{{1, 0, 0}}}
	ep, err := newEmbeddingProcessor(&writer{memories: repos.Memories}, embedder, nil)
	require.NoError(t, err)

	added := addMemories(t, repos, &core.Memory{RawContent: "one"}, &core.Memory{RawContent: "two"})
	err = ep.process(context.Background(), added[0].Id, added[1].Id)
	assert.ErrorContains(t, err, "embedding result mismatch")
}

func TestEmbeddingProcessor_Process_SkipsEditedContent(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()
	added := addMemories(t, repos, &core.Memory{RawContent: "Original"})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// Content changes while the embedding is in flight
		m, err := repos.Memories.GetMemory(ctx, added[0].Id)
		require.NoError(t, err)
		m.RawContent = "Edited"
		_, err = repos.Memories.UpdateMemories(ctx, m)
		require.NoError(t, err)
		return [][]float32{{1, 0, 0}}, nil
	}
	ep, err := newEmbeddingProcessor(&writer{memories: repos.Memories}, embedder, nil)
	require.NoError(t, err)

	require.NoError(t, ep.process(ctx, added[0].Id))

	got, err := repos.Memories.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Edited", got.RawContent)
	assert.Empty(t, got.Vector)
}

func TestEmbeddingProcessor_Process_MissingMemories(t *testing.T) {
	repos := setupTestRepositories(t)

	embedder := mock.NewMockEmbedder()
	ep, err := newEmbeddingProcessor(&writer{memories: repos.Memories}, embedder, nil)
	require.NoError(t, err)

	require.NoError(t, ep.process(context.Background(), 41, 42))
	assert.Zero(t, embedder.CallCount())
}

func TestNewEmbeddingProcessor_Validation(t *testing.T) {
	repos := setupTestRepositories(t)

	_, err := newEmbeddingProcessor(nil, &testEmbedder{}, nil)
	assert.ErrorIs(t, err, ErrMemoryRepositoryRequired)

	_, err = newEmbeddingProcessor(&writer{memories: repos.Memories}, nil, nil)
	assert.Error(t, err)
}

func TestClassificationProcessor_Process(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	cp, err := newClassificationProcessor(&writer{memories: repos.Memories}, mock.NewMockClassifier(), nil, nil)
	require.NoError(t, err)

	added := addMemories(t, repos, &core.Memory{
		RawContent: "Plan the project kickoff",
		Category:   core.DefaultCategory,
		Tags:       []string{"work"},
	})
	require.NoError(t, cp.process(ctx, added[0].Id))

	got, err := repos.Memories.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Project", got.Category)
	assert.Equal(t, []string{"plan", "project", "the", "work"}, got.Tags)
	assert.Equal(t, "Plan the project kickoff", got.StructuredContent["summary"])
	assert.Equal(t, "neutral", got.StructuredContent["sentiment"])
}

func TestClassificationProcessor_Process_FallbackOnError(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, text string, categories []string) (*ai.Classification, error) {
		return nil, ai.ErrMalformedResponse
	}
	cp, err := newClassificationProcessor(&writer{memories: repos.Memories}, classifier, nil, nil)
	require.NoError(t, err)

	content := strings.Repeat("a", 300)
	added := addMemories(t, repos, &core.Memory{RawContent: content, Category: "Journal", Tags: []string{"diary"}})
	require.NoError(t, cp.process(ctx, added[0].Id))

	got, err := repos.Memories.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Journal", got.Category)
	assert.Equal(t, []string{"diary"}, got.Tags)
	assert.Equal(t, content[:fallbackSummaryLength], got.StructuredContent["summary"])
	assert.Equal(t, "neutral", got.StructuredContent["sentiment"])
}

func TestClassificationProcessor_Process_Cancelled(t *testing.T) {
	repos := setupTestRepositories(t)

	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, text string, categories []string) (*ai.Classification, error) {
		return nil, context.Canceled
	}
	cp, err := newClassificationProcessor(&writer{memories: repos.Memories}, classifier, nil, nil)
	require.NoError(t, err)

	added := addMemories(t, repos, &core.Memory{RawContent: "note"})
	err = cp.process(context.Background(), added[0].Id)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassificationProcessor_Process_DueDate(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()
	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local)

	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, text string, categories []string) (*ai.Classification, error) {
		return &ai.Classification{Summary: "Submit taxes", Category: "task", DueDate: &due}, nil
	}
	cp, err := newClassificationProcessor(&writer{memories: repos.Memories}, classifier, nil, nil)
	require.NoError(t, err)

	added := addMemories(t, repos, &core.Memory{RawContent: "Submit taxes by July 1"})
	require.NoError(t, cp.process(ctx, added[0].Id))

	got, err := repos.Memories.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Task", got.Category)
	dv, ok := got.Date(core.DateFieldDue)
	require.True(t, ok)
	assert.Equal(t, "2025-07-01", dv.Short)
}

func TestClassificationProcessor_CategoryCatalog(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	var offered []string
	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, text string, categories []string) (*ai.Classification, error) {
		offered = categories
		return &ai.Classification{Category: "Recipes"}, nil
	}

	w := &writer{memories: repos.Memories}
	added := addMemories(t, repos, &core.Memory{RawContent: "Grandma's lasagna"})

	t.Run("defaults without a repository", func(t *testing.T) {
		cp, err := newClassificationProcessor(w, classifier, nil, nil)
		require.NoError(t, err)
		require.NoError(t, cp.process(ctx, added[0].Id))
		assert.Equal(t, []string{"Idea", "Task", "Project", "Reference", "Journal", "Meeting", "Learning", "Unsorted"}, offered)
	})

	t.Run("stored catalog", func(t *testing.T) {
		_, err := repos.Categories.AddCategory(ctx, &core.Category{Name: "Recipes"})
		require.NoError(t, err)

		cp, err := newClassificationProcessor(w, classifier, repos.Categories, nil)
		require.NoError(t, err)
		require.NoError(t, cp.process(ctx, added[0].Id))
		assert.Equal(t, []string{"Recipes"}, offered)

		got, err := repos.Memories.GetMemory(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "Recipes", got.Category)
	})
}

func TestNewPipeline(t *testing.T) {
	repos := setupTestRepositories(t)
	provider := mock.NewMockProvider()

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Memories, provider)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.memories)
		assert.NotNil(t, pipeline.embedding)
		assert.NotNil(t, pipeline.classify)
	})

	t.Run("nil memory repository", func(t *testing.T) {
		_, err := NewPipeline(nil, provider)
		assert.Equal(t, ErrMemoryRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(repos.Memories, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	repos := setupTestRepositories(t)
	provider := mock.NewMockProvider()

	t.Run("with pool size", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Memories, provider, WithPoolSize(4))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 4, pipeline.embedding.pool.Cap())
		assert.Equal(t, 4, pipeline.classify.pool.Cap())
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Memories, provider, WithPoolSize(0))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, 1, pipeline.embedding.pool.Cap())
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(repos.Memories, provider, WithLogger(logger))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, logger, pipeline.logger)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		pipeline, err := NewPipeline(repos.Memories, provider, WithLogger(nil))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.logger)
	})

	t.Run("with categories and invalidator", func(t *testing.T) {
		invalidator := &countingInvalidator{}
		pipeline, err := NewPipeline(repos.Memories, provider,
			WithCategories(repos.Categories), WithInvalidator(invalidator))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, repos.Categories, pipeline.categories)
		assert.Equal(t, invalidator, pipeline.invalidator)
	})
}

func TestPipeline_Ingest(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	invalidator := &countingInvalidator{}
	pipeline, err := NewPipeline(repos.Memories, mock.NewMockProvider(),
		WithPoolSize(1), WithInvalidator(invalidator))
	require.NoError(t, err)
	defer pipeline.Release()

	received := time.Date(2025, 6, 11, 9, 0, 0, 0, time.Local)

	t.Run("ingest enriches the memory", func(t *testing.T) {
		memory, err := pipeline.Ingest(ctx, "  Plan the project kickoff ", &IngestOptions{
			Tags:       []string{"Work"},
			ReceivedAt: received,
		})
		require.NoError(t, err)
		assert.Equal(t, "Plan the project kickoff", memory.RawContent)
		assert.Equal(t, DefaultSource, memory.Source)

		pipeline.Wait()

		got, err := repos.Memories.GetMemory(ctx, memory.Id)
		require.NoError(t, err)
		assert.Len(t, got.Vector, mock.DefaultDimension)
		assert.Equal(t, "Project", got.Category)
		assert.Equal(t, []string{"plan", "project", "the", "work"}, got.Tags)
		assert.Equal(t, "Plan the project kickoff", got.StructuredContent["summary"])

		for _, field := range []core.DateField{core.DateFieldReceived, core.DateFieldOccurrence} {
			dv, ok := got.Date(field)
			require.True(t, ok, field)
			assert.Equal(t, "2025-06-11", dv.Short)
		}
		_, ok := got.Date(core.DateFieldDue)
		assert.False(t, ok)

		// One for the insert and one per processor
		assert.Equal(t, int32(3), invalidator.calls.Load())
	})

	t.Run("duplicate content returns the existing memory", func(t *testing.T) {
		first, err := pipeline.Ingest(ctx, "Call the dentist", nil)
		require.NoError(t, err)

		again, err := pipeline.Ingest(ctx, "Call the dentist\n", nil)
		assert.ErrorIs(t, err, ErrDuplicateContent)
		require.NotNil(t, again)
		assert.Equal(t, first.Id, again.Id)
		pipeline.Wait()
	})

	t.Run("explicit options", func(t *testing.T) {
		occurred := received.AddDate(0, 0, -2)
		dueAt := received.AddDate(0, 0, 5)
		memory, err := pipeline.Ingest(ctx, "Renew the car registration", &IngestOptions{
			Category:   "Task",
			Source:     "slack",
			SourceID:   "C123/1718090000.000100",
			ReceivedAt: received,
			OccurredAt: occurred,
			DueAt:      dueAt,
		})
		require.NoError(t, err)
		pipeline.Wait()

		got, err := repos.Memories.GetMemory(ctx, memory.Id)
		require.NoError(t, err)
		assert.Equal(t, "slack", got.Source)
		assert.Equal(t, "C123/1718090000.000100", got.SourceID)
		dv, _ := got.Date(core.DateFieldOccurrence)
		assert.Equal(t, "2025-06-09", dv.Short)
		dv, _ = got.Date(core.DateFieldDue)
		assert.Equal(t, "2025-06-16", dv.Short)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := pipeline.Ingest(ctx, "   ", nil)
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})
}

func TestPipeline_Edit(t *testing.T) {
	repos := setupTestRepositories(t)
	ctx := context.Background()

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProvider(mock.WithEmbedder(embedder))
	pipeline, err := NewPipeline(repos.Memories, provider, WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	memory, err := pipeline.Ingest(ctx, "Buy milk", nil)
	require.NoError(t, err)
	pipeline.Wait()

	t.Run("changed content clears and regenerates the embedding", func(t *testing.T) {
		edited, err := pipeline.Edit(ctx, memory.Id, "Buy oat milk")
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", edited.RawContent)
		assert.Empty(t, edited.Vector)

		pipeline.Wait()
		got, err := repos.Memories.GetMemory(ctx, memory.Id)
		require.NoError(t, err)
		assert.Len(t, got.Vector, mock.DefaultDimension)
		assert.Equal(t, "Buy oat milk", embedder.Texts()[len(embedder.Texts())-1])
	})

	t.Run("unchanged content is a no-op", func(t *testing.T) {
		calls := embedder.CallCount()
		edited, err := pipeline.Edit(ctx, memory.Id, "Buy oat milk")
		require.NoError(t, err)
		assert.NotEmpty(t, edited.Vector)
		pipeline.Wait()
		assert.Equal(t, calls, embedder.CallCount())
	})

	t.Run("missing memory", func(t *testing.T) {
		_, err := pipeline.Edit(ctx, 9999, "anything")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := pipeline.Edit(ctx, memory.Id, "")
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})
}

func TestPipeline_Release(t *testing.T) {
	repos := setupTestRepositories(t)

	pipeline, err := NewPipeline(repos.Memories, mock.NewMockProvider())
	require.NoError(t, err)

	// Release should not panic
	pipeline.Release()

	// Multiple releases should not panic
	pipeline.Release()

	_, err = pipeline.Ingest(context.Background(), "too late", nil)
	assert.ErrorIs(t, err, ErrReleased)

	count, err := repos.Memories.CountMemories(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
