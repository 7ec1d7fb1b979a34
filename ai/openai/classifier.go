package openai

import (
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mrdanjohnson/secondbrainv1/ai"
)

// newClassifier builds a JSON-mode classifier on an OpenAI-compatible chat API.
func newClassifier(config *ai.Config) (*ai.LLMClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return ai.NewLLMClassifier(client,
		slog.Default().With("component", "openai-classifier"),
		llms.WithTemperature(config.Temperature),
		llms.WithJSONMode(),
	), nil
}

// NewClassifier creates a classifier using the provided configuration.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	return newClassifier(config)
}
