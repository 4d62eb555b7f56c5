package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bazaar/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"self conversation", apperr.ErrInvalidParticipants, http.StatusBadRequest},
		{"wrapped reason", fmt.Errorf("%w: bogus", apperr.ErrInvalidReason), http.StatusBadRequest},
		{"action", apperr.ErrInvalidAction, http.StatusBadRequest},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("report r1: %w", apperr.ErrNotFound), http.StatusNotFound},
		{"already processed", apperr.ErrAlreadyProcessed, http.StatusConflict},
		{"unavailable", apperr.ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal error", apperr.PublicMessage(errors.New("pq: connection reset")))
	assert.Equal(t, "service temporarily unavailable, retry later", apperr.PublicMessage(fmt.Errorf("list: %w", apperr.ErrUnavailable)))
}

func TestPublicMessage_DropsWrapContext(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"storage chain", fmt.Errorf("product ghost: %w", fmt.Errorf("get product: %w", apperr.ErrNotFound)), "not found"},
		{"bare sentinel", apperr.ErrForbidden, "forbidden"},
		{"conflict", fmt.Errorf("report r1: %w", apperr.ErrAlreadyProcessed), "report already processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperr.PublicMessage(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "ghost")
		})
	}
}

func TestNewf_DetailReachesCaller(t *testing.T) {
	err := apperr.Newf(apperr.ErrInvalidInput, "message longer than %d characters", 10)
	wrapped := fmt.Errorf("append to c1: %w", err)

	assert.ErrorIs(t, wrapped, apperr.ErrInvalidInput)
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(wrapped))
	assert.Equal(t, "invalid input: message longer than 10 characters", apperr.PublicMessage(wrapped))
}
