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

package mock

import (
	"sync/atomic"

	"github.com/mrdanjohnson/secondbrainv1/ai"
)

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	embedder   *MockEmbedder
	classifier *MockClassifier
	closeErr   error
	closed     atomic.Int32
}

var _ ai.AIProvider = (*MockProvider)(nil)

// ProviderOption customizes a MockProvider.
type ProviderOption func(*MockProvider)

// WithEmbedder replaces the default embedder.
func WithEmbedder(embedder *MockEmbedder) ProviderOption {
	return func(p *MockProvider) { p.embedder = embedder }
}

// WithClassifier replaces the default classifier.
func WithClassifier(classifier *MockClassifier) ProviderOption {
	return func(p *MockProvider) { p.classifier = classifier }
}

// WithCloseError makes Close return err.
func WithCloseError(err error) ProviderOption {
	return func(p *MockProvider) { p.closeErr = err }
}

// NewMockProvider creates a provider over a default embedder and classifier.
// The concrete type is returned so tests can reach the services and check
// whether the provider was closed.
func NewMockProvider(opts ...ProviderOption) *MockProvider {
	p := &MockProvider{
		embedder:   NewMockEmbedder(),
		classifier: NewMockClassifier(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Classifier() ai.Classifier {
	return p.classifier
}

// Close records the call and returns the configured error, if any.
func (p *MockProvider) Close() error {
	p.closed.Add(1)
	return p.closeErr
}

// EmbedderMock returns the embedder for assertions.
func (p *MockProvider) EmbedderMock() *MockEmbedder {
	return p.embedder
}

// ClassifierMock returns the classifier for assertions.
func (p *MockProvider) ClassifierMock() *MockClassifier {
	return p.classifier
}

// Closed reports how many times Close was called.
func (p *MockProvider) Closed() int {
	return int(p.closed.Load())
}
