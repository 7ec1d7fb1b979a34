package ingestion

import "errors"

var (
	// ErrMemoryRepositoryRequired is returned when a memory repository is not provided.
	ErrMemoryRepositoryRequired = errors.New("memory repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrDuplicateContent is returned with the existing memory when the same
	// content was already ingested.
	ErrDuplicateContent = errors.New("content already ingested")

	// ErrReleased is returned when work is submitted after Release.
	ErrReleased = errors.New("pipeline released")
)
