package ai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
)

const classifyAttempts = 3

// LLMClassifier implements Classifier on any langchaingo chat model.
type LLMClassifier struct {
	model   llms.Model
	options []llms.CallOption
	logger  *slog.Logger
}

// NewLLMClassifier wraps model. options are passed to every call.
func NewLLMClassifier(model llms.Model, logger *slog.Logger, options ...llms.CallOption) *LLMClassifier {
	if logger == nil {
		logger = slog.Default().With("component", "classifier")
	}
	return &LLMClassifier{model: model, options: options, logger: logger}
}

// Classify asks the model for a classification, retrying when the reply is
// not valid JSON. Provider errors are returned immediately.
func (c *LLMClassifier) Classify(ctx context.Context, text string, categories []string) (*Classification, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, BuildClassifierPrompt(categories)),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	var lastErr error
	for attempt := 1; attempt <= classifyAttempts; attempt++ {
		response, err := c.model.GenerateContent(ctx, content, c.options...)
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, err
		}
		if len(response.Choices) < 1 {
			return nil, ErrEmptyResponse
		}

		result, err := ParseClassification(response.Choices[0].Content, categories)
		if err == nil {
			c.logger.Debug("classified content", "category", result.Category, "tags", len(result.Tags))
			return result, nil
		}
		if !errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("error parsing classifier response", "attempt", attempt, "err", err)
	}

	c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
	return nil, lastErr
}
