package repository

import (
	"strings"
	"testing"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVector(t *testing.T) {
	embedding := make([]float32, entity.EmbeddingDimensions)
	embedding[0] = 0.5
	embedding[1] = -1.25
	embedding[2] = 3

	encoded, err := encodeVector(embedding)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "[0.5,-1.25,3,0,"))
	assert.True(t, strings.HasSuffix(encoded, ",0]"))
	assert.Equal(t, entity.EmbeddingDimensions-1, strings.Count(encoded, ","))
}

func TestEncodeVectorRejectsWrongDimensions(t *testing.T) {
	_, err := encodeVector([]float32{1, 2, 3})
	assert.ErrorIs(t, err, entity.ErrInvalidVector)
}
