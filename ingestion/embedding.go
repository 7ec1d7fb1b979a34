package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/core"
)

// embeddingProcessor generates embeddings for memories.
type embeddingProcessor struct {
	writer   *writer
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

type embedded struct {
	fingerprint core.ID
	vector      []float32
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(w *writer, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if w == nil || w.memories == nil {
		return nil, ErrMemoryRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		writer:   w,
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified memories. A memory whose
// content changed while its embedding was computed is left for the run the
// change queued.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing memories for embeddings", "memories", len(ids))

	slices.Sort(ids)
	memories, err := ep.writer.memories.GetMemories(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving memories", "err", err)
		return err
	}
	if len(memories) == 0 {
		return nil
	}

	texts := lo.Map(memories, func(m *core.Memory, _ int) string { return m.RawContent })
	ep.logger.Debug("generating embeddings for memories", "memories", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}
	if len(embeddings) != len(memories) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(memories), len(embeddings))
	}

	byID := make(map[core.ID]embedded, len(memories))
	for i, m := range memories {
		byID[m.Id] = embedded{fingerprint: core.Fingerprint(m.RawContent), vector: embeddings[i]}
	}

	updated, err := ep.writer.apply(ctx, ids, func(m *core.Memory) bool {
		e, ok := byID[m.Id]
		if !ok || core.Fingerprint(m.RawContent) != e.fingerprint {
			return false
		}
		m.Vector = e.vector
		return true
	})
	if err != nil {
		return err
	}
	if skipped := len(memories) - updated; skipped > 0 {
		ep.logger.Debug("skipped memories edited during embedding", "memories", skipped)
	}
	return nil
}
