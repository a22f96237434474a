package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"input", fmt.Errorf("scores: %w", ErrInputValidation), KindInputValidation},
		{"empty", fmt.Errorf("extract u1: %w", ErrEmptySeries), KindEmptySeries},
		{"unavailable", ErrModelUnavailable, KindModelUnavailable},
		{"other", errors.New("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestClientAndRetryable(t *testing.T) {
	assert.True(t, IsClientError(fmt.Errorf("x: %w", ErrEmptySeries)))
	assert.True(t, IsClientError(ErrInputValidation))
	assert.False(t, IsClientError(ErrModelUnavailable))

	assert.True(t, IsRetryable(fmt.Errorf("predict: %w", ErrModelUnavailable)))
	assert.False(t, IsRetryable(ErrEmptySeries))
	assert.False(t, IsRetryable(errors.New("boom")))
}
