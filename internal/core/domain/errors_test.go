package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrMissingCredential", ErrMissingCredential},
		{"ErrDocumentLoad", ErrDocumentLoad},
		{"ErrCorruptIndex", ErrCorruptIndex},
		{"ErrUninitializedIndex", ErrUninitializedIndex},
		{"ErrInvalidQuery", ErrInvalidQuery},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrGeneration", ErrGeneration},
		{"ErrNoIndexAvailable", ErrNoIndexAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrMissingCredential_IsConfigurationError(t *testing.T) {
	err := fmt.Errorf("llm provider openai: %w", ErrMissingCredential)

	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(ErrConfiguration, ErrMissingCredential))
}

func TestErrors_StageWrapping(t *testing.T) {
	err := fmt.Errorf("ask: %w", fmt.Errorf("generate: %w", ErrGeneration))

	assert.ErrorIs(t, err, ErrGeneration)
	assert.NotErrorIs(t, err, ErrEmbedding)
	assert.Equal(t, "ask: generate: generation failed", err.Error())
}
