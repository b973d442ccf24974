package scheme

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceErrorClassification(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		retryable bool
	}{
		{ErrorTimeout, true},
		{ErrorProviderOutage, true},
		{ErrorRateLimited, true},
		{ErrorNotFound, false},
		{ErrorBadData, false},
		{ErrorAuthentication, false},
		{ErrorInternal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewSourceError(tt.category, "NL-ABC", "boom", nil))
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.category, GetCategory(err))
		})
	}
}

func TestSourceErrorUnwrap(t *testing.T) {
	err := NewSourceError(ErrorInternal, "NL-ABC", "request canceled", context.Canceled)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "NL-ABC")
	assert.Contains(t, err.Error(), "[internal]")
}

func TestGetCategoryOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.True(t, IsNotFound(NewSourceError(ErrorNotFound, "X", "missing", nil)))
}
