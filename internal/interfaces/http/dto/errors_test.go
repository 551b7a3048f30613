package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusBadRequest},
		{ErrCodeOTPExpired, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, GetHTTPStatus(tt.code), tt.code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "Voucher not found")
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Empty(t, resp.Error.RequestID)

	resp = NewErrorResponseWithRequestID(ErrCodeInternal, "boom", "req-1")
	assert.Equal(t, "req-1", resp.Error.RequestID)
}
