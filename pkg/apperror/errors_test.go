package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"wrapped unauthenticated", fmt.Errorf("award: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"validation with fields", Validation("bad body", map[string]string{"field": "required"}), http.StatusBadRequest},
		{"not configured", ErrNotConfigured, http.StatusInternalServerError},
		{"upstream", fmt.Errorf("gemini: %w", ErrUpstream), http.StatusInternalServerError},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"explicit code", New(http.StatusConflict, "taken", nil), http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatus(tt.err))
		})
	}
}

func TestAppError_MessageFallsBackToWrapped(t *testing.T) {
	t.Parallel()

	err := New(http.StatusBadRequest, "", ErrValidation)
	assert.Equal(t, ErrValidation.Error(), err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}
