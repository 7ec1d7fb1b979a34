package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/mrdanjohnson/secondbrainv1/ai"
)

// MockClassifier is a test double for ai.Classifier.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set. Its result is normalized.
	ClassifyFunc func(ctx context.Context, text string, categories []string) (*ai.Classification, error)

	mu        sync.Mutex
	callCount int
}

// NewMockClassifier creates a mock classifier with default behavior: the
// first category named in the text wins, and the first three words become
// tags.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify returns a classification for text.
func (m *MockClassifier) Classify(ctx context.Context, text string, categories []string) (*ai.Classification, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		c, err := m.ClassifyFunc(ctx, text, categories)
		if err != nil {
			return nil, err
		}
		c.Normalize(categories)
		return c, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &ai.Classification{Summary: text}
	lower := strings.ToLower(text)
	for _, name := range categories {
		if strings.Contains(lower, strings.ToLower(name)) {
			c.Category = name
			break
		}
	}
	words := strings.Fields(lower)
	c.Tags = words[:min(3, len(words))]
	c.Normalize(categories)
	return c, nil
}

// CallCount returns the number of Classify calls.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
