package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type scriptedModel struct {
	replies []string
	err     error
	calls   int
	last    []llms.MessageContent
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.last = messages
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return &llms.ContentResponse{}, nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLLMClassifier_RetriesMalformedReplies(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"sorry, here you go",
		`{"summary": "Plan sprint", "category": "Task", "tags": ["sprint"], "sentiment": "neutral"}`,
	}}
	c := NewLLMClassifier(model, nil)

	got, err := c.Classify(context.Background(), "plan the sprint", []string{"Task"})
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
	assert.Equal(t, "Task", got.Category)

	require.Len(t, model.last, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.last[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.last[1].Role)
}

func TestLLMClassifier_GivesUpAfterAttempts(t *testing.T) {
	model := &scriptedModel{replies: []string{"a", "b", "c", "d"}}
	c := NewLLMClassifier(model, nil)

	_, err := c.Classify(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, classifyAttempts, model.calls)
}

func TestLLMClassifier_ProviderErrorNotRetried(t *testing.T) {
	boom := errors.New("rate limited")
	model := &scriptedModel{err: boom}
	c := NewLLMClassifier(model, nil)

	_, err := c.Classify(context.Background(), "x", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, model.calls)
}

func TestLLMClassifier_NoChoices(t *testing.T) {
	c := NewLLMClassifier(&scriptedModel{}, nil)
	_, err := c.Classify(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
