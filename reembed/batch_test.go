package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdanjohnson/secondbrainv1/ai/mock"
	"github.com/mrdanjohnson/secondbrainv1/core"
)

// unnormalizedEmbedder returns (1, 2, 2), magnitude 3, for every text.
func unnormalizedEmbedder() *mock.MockEmbedder {
	return &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			result := make([][]float32, len(texts))
			for i := range texts {
				result[i] = []float32{1.0, 2.0, 2.0}
			}
			return result, nil
		},
	}
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum
}

func TestBatchProcessor_Process(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	added := addMemories(t, repo, 2)

	processor := NewBatchProcessor(repo, unnormalizedEmbedder(), 3, 10*time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))

	updated, err := repo.GetMemories(ctx, added[0].Id, added[1].Id)
	require.NoError(t, err)
	require.Len(t, updated, 2)

	for _, memory := range updated {
		require.True(t, memory.HasEmbedding(), "should have embedding")
		assert.InDelta(t, 1.0, magnitude(memory.Vector), 0.01, "vector should be normalized")
		assert.InDelta(t, 1.0/3.0, memory.Vector[0], 0.001)
	}
}

func TestBatchProcessor_EmbedsRawContent(t *testing.T) {
	repo := setupTestDB(t)
	added := addMemories(t, repo, 2)

	embedder := mock.NewMockEmbedder()
	processor := NewBatchProcessor(repo, embedder, 1, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), added))

	assert.Equal(t, []string{"memory 0", "memory 1"}, embedder.Texts())
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repo := setupTestDB(t)
	embedder := mock.NewMockEmbedder()

	processor := NewBatchProcessor(repo, embedder, 3, 10*time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), nil), "empty batch should not error")
	assert.Zero(t, embedder.CallCount())
}

func TestBatchProcessor_EmbeddingError(t *testing.T) {
	repo := setupTestDB(t)
	added := addMemories(t, repo, 1)

	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("embedding error")
		},
	}
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	err := processor.Process(context.Background(), added)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding error")
	assert.Equal(t, 3, embedder.CallCount(), "should use every attempt")
}

func TestBatchProcessor_CountMismatchIsNotRetried(t *testing.T) {
	repo := setupTestDB(t)
	added := addMemories(t, repo, 2)

	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil
		},
	}
	processor := NewBatchProcessor(repo, embedder, 3, time.Millisecond)

	err := processor.Process(context.Background(), added)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingCount)
	assert.Equal(t, 1, embedder.CallCount())

	stored, err := repo.GetMemory(context.Background(), added[0].Id)
	require.NoError(t, err)
	assert.False(t, stored.HasEmbedding(), "nothing should be written")
}

func TestBatchProcessor_Retry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	added := addMemories(t, repo, 1)

	attempts := 0
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			attempts++
			if attempts < 2 {
				return nil, errors.New("temporary error")
			}
			return [][]float32{{1.0, 0.0, 0.0}}, nil
		},
	}
	processor := NewBatchProcessor(repo, embedder, 3, 10*time.Millisecond)

	require.NoError(t, processor.Process(ctx, added))
	assert.Equal(t, 2, attempts, "should retry on failure")

	updated, err := repo.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	assert.True(t, updated.HasEmbedding())
}

func TestBatchProcessor_ContextCancellation(t *testing.T) {
	repo := setupTestDB(t)
	added := addMemories(t, repo, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			cancel()
			return nil, errors.New("error")
		},
	}
	processor := NewBatchProcessor(repo, embedder, 3, 10*time.Millisecond)

	err := processor.Process(ctx, added)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchProcessor_VectorNormalization(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	added := addMemories(t, repo, 1)

	// Vector (3, 4) has magnitude 5
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{3.0, 4.0}}, nil
		},
	}
	processor := NewBatchProcessor(repo, embedder, 3, 10*time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))

	updated, err := repo.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)

	vec := updated.Vector
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 0.001)
	assert.InDelta(t, 0.8, vec[1], 0.001)
}

func TestBatchProcessor_KeepsOtherFields(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	added, err := repo.AddMemories(ctx, &core.Memory{
		RawContent: "pay rent",
		Category:   "Task",
		Tags:       []string{"home"},
	})
	require.NoError(t, err)

	processor := NewBatchProcessor(repo, unnormalizedEmbedder(), 1, time.Millisecond)
	require.NoError(t, processor.Process(ctx, added))

	updated, err := repo.GetMemory(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Task", updated.Category)
	assert.Equal(t, []string{"home"}, updated.Tags)
	assert.True(t, updated.HasEmbedding())
}
