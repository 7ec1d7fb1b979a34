package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// BatchProcessor generates embeddings for batches of memories.
type BatchProcessor struct {
	repo           storage.MemoryRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.MemoryRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the content of memories and stores the normalized vectors.
func (bp *BatchProcessor) Process(ctx context.Context, memories []*core.Memory) error {
	if len(memories) == 0 {
		return nil
	}

	texts := lo.Map(memories, func(m *core.Memory, _ int) string { return m.RawContent })

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(embeddings) != len(memories) {
			return Permanent(fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(memories), len(embeddings)))
		}
		return nil
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	for i, memory := range memories {
		memory.Vector = NormalizeVector(embeddings[i])
	}

	if _, err := bp.repo.UpdateMemories(ctx, memories...); err != nil {
		return fmt.Errorf("failed to update memories: %w", err)
	}
	return nil
}
