package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("charge failed", cause)

	assert.Equal(t, "charge failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "not found", NewAppError("X", "not found", 404, nil).Error())
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", PaymentRequired("GATEWAY_REJECTED", "card declined"), http.StatusPaymentRequired},
		{"wrapped app error", fmt.Errorf("advance: %w", Unavailable("GATEWAY_UNAVAILABLE", "try later")), http.StatusServiceUnavailable},
		{"not found sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"conflict", Conflict("INVALID_STATE", "already charged"), http.StatusConflict},
		{"bad request", BadRequest("", "bad"), http.StatusBadRequest},
		{"unknown", errors.New("?"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetStatusCode(tt.err))
		})
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := Unavailable("GATEWAY_UNAVAILABLE", "card network timeout").ToResponse()

	assert.Equal(t, "GATEWAY_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, "card network timeout", resp.Error.Message)
	assert.True(t, resp.Error.Retryable)
}
