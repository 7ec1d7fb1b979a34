package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// fallbackSummaryLength bounds the summary stored when classification fails.
const fallbackSummaryLength = 200

// classificationProcessor asks the classifier to structure memories and
// stores its summary, category, tags and due date.
type classificationProcessor struct {
	writer     *writer
	classifier ai.Classifier
	categories storage.CategoryRepository
	logger     *slog.Logger
}

var _ processor = (*classificationProcessor)(nil)

type classified struct {
	fingerprint    core.ID
	classification *ai.Classification
}

// newClassificationProcessor creates a new classification processor.
// categories may be nil, in which case core.DefaultCategories are offered.
func newClassificationProcessor(
	w *writer,
	classifier ai.Classifier,
	categories storage.CategoryRepository,
	logger *slog.Logger,
) (processor, error) {
	if w == nil || w.memories == nil {
		return nil, ErrMemoryRepositoryRequired
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &classificationProcessor{
		writer:     w,
		classifier: classifier,
		categories: categories,
		logger:     logger.With("processor", "classification"),
	}, nil
}

// categoryNames returns the catalog offered to the classifier.
func (cp *classificationProcessor) categoryNames(ctx context.Context) []string {
	defaults := lo.Map(core.DefaultCategories, func(c core.Category, _ int) string { return c.Name })
	if cp.categories == nil {
		return defaults
	}
	catalog, err := cp.categories.ListCatalog(ctx)
	if err != nil {
		cp.logger.Warn("error listing category catalog, using defaults", "err", err)
		return defaults
	}
	if len(catalog) == 0 {
		return defaults
	}
	return lo.Map(catalog, func(c *core.Category, _ int) string { return c.Name })
}

// process classifies the specified memories. A failed classification
// falls back to a truncated summary and keeps the memory's category;
// only cancellation aborts the batch.
func (cp *classificationProcessor) process(ctx context.Context, ids ...core.ID) error {
	cp.logger.Info("processing memories for classification", "memories", len(ids))

	memories, err := cp.writer.memories.GetMemories(ctx, ids...)
	if err != nil {
		cp.logger.Error("error retrieving memories", "err", err)
		return err
	}
	if len(memories) == 0 {
		return nil
	}
	names := cp.categoryNames(ctx)

	byID := make(map[core.ID]classified, len(memories))
	for _, m := range memories {
		c, err := cp.classifier.Classify(ctx, m.RawContent, names)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			cp.logger.Warn("classification failed, using defaults", "id", m.Id, "err", err)
			c = fallbackClassification(m)
		}
		byID[m.Id] = classified{fingerprint: core.Fingerprint(m.RawContent), classification: c}
	}

	_, err = cp.writer.apply(ctx, ids, func(m *core.Memory) bool {
		e, ok := byID[m.Id]
		if !ok || core.Fingerprint(m.RawContent) != e.fingerprint {
			return false
		}
		applyClassification(m, e.classification)
		return true
	})
	return err
}

func applyClassification(m *core.Memory, c *ai.Classification) {
	m.StructuredContent = c.StructuredContent()
	if c.Category != "" {
		m.Category = c.Category
	}
	m.Tags = core.NormalizeTags(append(m.Tags, c.Tags...))
	if c.DueDate != nil {
		if _, ok := m.Date(core.DateFieldDue); !ok {
			m.SetDate(core.DateFieldDue, *c.DueDate)
		}
	}
}

func fallbackClassification(m *core.Memory) *ai.Classification {
	summary := []rune(m.RawContent)
	if len(summary) > fallbackSummaryLength {
		summary = summary[:fallbackSummaryLength]
	}
	return &ai.Classification{
		Summary:   string(summary),
		Category:  m.Category,
		Sentiment: ai.Sentiments[0],
	}
}
