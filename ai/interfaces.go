package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the provider call fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Classifier structures free-form memory content with an LLM.
// Implementations must be thread-safe for concurrent use.
type Classifier interface {
	// Classify summarizes text and assigns it a category from categories,
	// tags, sentiment, priority, entities and an optional due date.
	// The result has already been passed through Classification.Normalize.
	Classify(ctx context.Context, text string, categories []string) (*Classification, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Classifier returns the content classification service.
	Classifier() Classifier

	// Close releases resources held by the provider and its services.
	Close() error
}
