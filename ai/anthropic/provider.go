// Package anthropic classifies memories with Anthropic models through
// langchaingo. Embeddings still come from the OpenAI-compatible endpoint in
// the config, since Anthropic offers no embedding API.
package anthropic

import (
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/ai/openai"
)

const maxTokens = 1024

// Provider implements ai.AIProvider with an Anthropic classifier.
type Provider struct {
	embedder   ai.Embedder
	classifier *ai.LLMClassifier
	logger     *slog.Logger
}

// NewClassifier creates an Anthropic classifier.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	return newClassifier(config)
}

func newClassifier(config *ai.Config) (*ai.LLMClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendAnthropic {
		return nil, ErrWrongBackend
	}

	client, err := anthropic.New(
		anthropic.WithToken(config.AnthropicAPIKey),
		anthropic.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return ai.NewLLMClassifier(client,
		slog.Default().With("component", "anthropic-classifier"),
		llms.WithTemperature(config.Temperature),
		llms.WithMaxTokens(maxTokens),
	), nil
}

// NewProvider creates a provider pairing the Anthropic classifier with the
// configured OpenAI-compatible embedder.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	classifier, err := newClassifier(config)
	if err != nil {
		return nil, err
	}
	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{
		embedder:   embedder,
		classifier: classifier,
		logger:     slog.Default().With("component", "anthropic-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Classifier returns the Anthropic classifier.
func (p *Provider) Classifier() ai.Classifier {
	return p.classifier
}

// Close is a no-op; the HTTP clients need no cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Anthropic provider")
	return nil
}
