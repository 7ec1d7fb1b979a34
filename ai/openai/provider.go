// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"log/slog"

	"github.com/mrdanjohnson/secondbrainv1/ai"
)

// Provider pairs an OpenAI-compatible embedder with a JSON-mode classifier.
type Provider struct {
	embedder   *Embedder
	classifier *ai.LLMClassifier
	logger     *slog.Logger
}

// NewProvider validates config and builds both services. The classifier
// talks to ClassifierHost, which may differ from EmbeddingHost.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOpenAI {
		return nil, ErrWrongBackend
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	classifier, err := newClassifier(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embedding_host", config.EmbeddingHost,
		"embedding_model", config.EmbeddingModel,
		"classifier_host", config.ClassifierHost,
		"classifier_model", config.ClassifierModel)

	return &Provider{
		embedder:   embedder,
		classifier: classifier,
		logger:     logger,
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Classifier returns the classification service.
func (p *Provider) Classifier() ai.Classifier {
	return p.classifier
}

// Close is a no-op; the HTTP clients hold no resources.
func (p *Provider) Close() error {
	return nil
}
