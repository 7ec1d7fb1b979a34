package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrDSNRequired)
}

func TestCheckDimension(t *testing.T) {
	repo := NewMemoryRepository(&Store{dimension: 3})
	assert.NoError(t, repo.checkDimension(nil))
	assert.NoError(t, repo.checkDimension([]float32{1, 2, 3}))
	assert.Error(t, repo.checkDimension([]float32{1, 2}))

	unbounded := NewMemoryRepository(&Store{})
	assert.NoError(t, unbounded.checkDimension([]float32{1, 2}))
}
