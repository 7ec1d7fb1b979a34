package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mrdanjohnson/secondbrainv1/ai"
)

// Embedder implements ai.Embedder on an OpenAI-compatible embeddings API.
type Embedder struct {
	embedder  embeddings.Embedder
	model     string
	dimension atomic.Int64
	logger    *slog.Logger
}

// NewEmbedder creates an embedder for config's embedding host and model.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client for %s: %w", config.EmbeddingHost, err)
	}
	return newEmbedderWithClient(client, config.EmbeddingModel)
}

// newEmbedderWithClient wraps any langchaingo embedding client.
func newEmbedderWithClient(client embeddings.EmbedderClient, model string) (*Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}
	return &Embedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "openai-embedder", "model", model),
	}, nil
}

// Dimension is the vector length seen so far, or 0 before the first call.
func (e *Embedder) Dimension() int {
	return int(e.dimension.Load())
}

// EmbedText embeds a single memory or query text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to embed text", "length", len(text), "err", err)
		return nil, err
	}
	if err := e.check(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedTexts embeds texts in one request, keeping their order.
// An empty input makes no request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("embedding batch", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to embed batch", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmptyEmbedding, len(vectors), len(texts))
	}
	for _, v := range vectors {
		if err := e.check(v); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// check rejects empty vectors and pins the dimension on first use.
func (e *Embedder) check(vector []float32) error {
	if len(vector) == 0 {
		return ErrEmptyEmbedding
	}
	n := int64(len(vector))
	if e.dimension.CompareAndSwap(0, n) {
		return nil
	}
	if want := e.dimension.Load(); want != n {
		return fmt.Errorf("%w: model %s returned %d dimensions, expected %d", ErrDimensionChanged, e.model, n, want)
	}
	return nil
}
