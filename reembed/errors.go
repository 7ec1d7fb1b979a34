package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned by RetryWithBackoff when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid reembed config")

	// ErrEmbeddingCount is returned when the embedder answers a batch with
	// a different number of vectors than it was given texts.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
