package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineErrorUnwrapsToSentinel(t *testing.T) {
	err := NewEngineError(ErrorFeatureDisabled, "analysis", "engine unavailable", ErrFeatureDisabled)

	assert.ErrorIs(t, err, ErrFeatureDisabled)
	assert.Contains(t, err.Error(), "feature_disabled")
	assert.Contains(t, err.Error(), "feature disabled")
}

func TestCategory(t *testing.T) {
	invalid := NewEngineError(ErrorInputInvalid, "recognition", "unsupported language", nil)
	assert.Equal(t, ErrorInputInvalid, Category(invalid))

	wrapped := fmt.Errorf("outer: %w", invalid)
	assert.Equal(t, ErrorInputInvalid, Category(wrapped))

	assert.Equal(t, ErrorEngineFailure, Category(errors.New("plain transport error")))
}
