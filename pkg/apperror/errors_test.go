package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("TRD_007", "Insufficient BTC", http.StatusPaymentRequired),
			expected: "[TRD_007] Insufficient BTC",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestSettlementErrors_CarryContext(t *testing.T) {
	tests := []struct {
		name       string
		appErr     *AppError
		wantCode   string
		wantStatus int
		contains   string
	}{
		{"invalid api key", ErrInvalidAPIKey(), "SEC_001", http.StatusUnauthorized, "Invalid API key"},
		{"unauthorized client", ErrUnauthorizedClient(2, 9), "SEC_002", http.StatusForbidden, "user 9"},
		{"unknown symbol", ErrUnknownSymbol("XRP"), "TRD_001", http.StatusNotFound, "'XRP'"},
		{"unauthorized symbol", ErrUnauthorizedSymbol(5, "BTC"), "TRD_002", http.StatusForbidden, "User 5"},
		{"transaction not found", ErrTransactionNotFound(42), "TRD_003", http.StatusNotFound, "42"},
		{"transaction mismatch", ErrTransactionMismatch(42), "TRD_004", http.StatusConflict, "42"},
		{"already completed", ErrAlreadyCompleted(42), "TRD_005", http.StatusConflict, "already completed"},
		{"duplicate sell", ErrDuplicateSellOrder("abc"), "TRD_006", http.StatusConflict, "'abc'"},
		{"insufficient balance", ErrInsufficientBalance(5, "BTC", 0.5), "TRD_007", http.StatusPaymentRequired, "0.5"},
		{"user not found", ErrUserNotFound(5), "TRD_008", http.StatusNotFound, "User 5"},
		{"rate limit", ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests, "Rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.appErr.Code)
			assert.Equal(t, tt.wantStatus, tt.appErr.HTTPStatus)
			assert.Contains(t, tt.appErr.Message, tt.contains)
		})
	}
}

func TestInternalError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("pool exhausted")
	appErr := InternalError(cause)

	assert.Equal(t, "SYS_001", appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.True(t, errors.Is(appErr, cause))
}
