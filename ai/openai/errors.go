package openai

import "errors"

var (
	// ErrEmptyEmbedding is returned when the service returns no vector, or
	// fewer vectors than texts.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")

	// ErrDimensionChanged is returned when a vector's length differs from
	// the first vector the embedder produced.
	ErrDimensionChanged = errors.New("embedding dimension changed")

	// ErrWrongBackend is returned by NewProvider for a non-openai backend.
	ErrWrongBackend = errors.New("config backend is not openai")
)
