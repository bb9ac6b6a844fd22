package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Access Guard (SEC) ----

// ErrInvalidAPIKey: presented key fails constant-time comparison against the
// client's stored key.
func ErrInvalidAPIKey() *AppError {
	return New("SEC_001", "Invalid API key", http.StatusUnauthorized)
}

// ErrUnauthorizedClient: target user does not belong to the authenticated
// client.
func ErrUnauthorizedClient(clientID, userID int64) *AppError {
	return New("SEC_002",
		fmt.Sprintf("Client %d is not authorized to act for user %d", clientID, userID),
		http.StatusForbidden)
}

// ---- Settlement (TRD) ----

// ErrUnknownSymbol: symbol outside the fixed supported set.
func ErrUnknownSymbol(symbol string) *AppError {
	return New("TRD_001", fmt.Sprintf("'%s' is not a valid symbol", symbol), http.StatusNotFound)
}

// ErrUnauthorizedSymbol: user lacks the per-symbol trading authorization.
func ErrUnauthorizedSymbol(userID int64, symbol string) *AppError {
	return New("TRD_002",
		fmt.Sprintf("User %d is not authorized to trade %s", userID, symbol),
		http.StatusForbidden)
}

// ErrTransactionNotFound: referenced journal entry does not exist.
func ErrTransactionNotFound(txnID int64) *AppError {
	return New("TRD_003", fmt.Sprintf("Transaction %d not found", txnID), http.StatusNotFound)
}

// ErrTransactionMismatch: journal entry exists but its amount or user does
// not match the request.
func ErrTransactionMismatch(txnID int64) *AppError {
	return New("TRD_004",
		fmt.Sprintf("Transaction %d details do not match the request", txnID),
		http.StatusConflict)
}

// ErrAlreadyCompleted: journal entry was already settled (buy replay).
func ErrAlreadyCompleted(txnID int64) *AppError {
	return New("TRD_005",
		fmt.Sprintf("Transaction %d already completed", txnID),
		http.StatusConflict)
}

// ErrDuplicateSellOrder: dedupe key already consumed (sell replay).
func ErrDuplicateSellOrder(dedupeKey string) *AppError {
	return New("TRD_006",
		fmt.Sprintf("Sell order with dedupe key '%s' already executed", dedupeKey),
		http.StatusConflict)
}

// ErrInsufficientBalance: sell amount exceeds current holdings.
func ErrInsufficientBalance(userID int64, symbol string, amount float64) *AppError {
	return New("TRD_007",
		fmt.Sprintf("Insufficient %s: user %d cannot sell %g", symbol, userID, amount),
		http.StatusPaymentRequired)
}

// ErrUserNotFound: referenced user does not exist.
func ErrUserNotFound(userID int64) *AppError {
	return New("TRD_008", fmt.Sprintf("User %d not found", userID), http.StatusNotFound)
}

// ---- Operator authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a 400 validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
