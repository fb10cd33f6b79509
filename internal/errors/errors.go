// Package errors provides the application error taxonomy for the Equity API.
// Service-layer code returns *AppError so the HTTP boundary can map every
// failure to a status code and a client-safe message without leaking
// internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
// Detail carries an extra client-visible explanation, such as the billing
// provider's reason for declining a card.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an *AppError with the same code, so that a
// wrapped or re-messaged copy still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Response is the JSON error envelope written to clients. Message is only
// present when the error carries a detail, such as a declined card.
type Response struct {
	Error   string `json:"error" example:"Asset not found or not owned by user"`
	Code    string `json:"code" example:"ASSET_NOT_FOUND"`
	Message string `json:"message,omitempty"`
}

// Response builds the client-facing envelope for e.
func (e *AppError) Response() Response {
	return Response{Error: e.Message, Code: e.Code, Message: e.Detail}
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Detail:     sentinel.Detail,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Detail:     sentinel.Detail,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetail creates a new AppError that keeps the sentinel's message and
// adds a client-visible detail and the internal cause.
func WithDetail(sentinel *AppError, detail string, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Detail:     detail,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid token", StatusCode: http.StatusUnauthorized}
	ErrTokenExpired       = &AppError{Code: "TOKEN_EXPIRED", Message: "Token has expired", StatusCode: http.StatusUnauthorized}
	ErrTokenRevoked       = &AppError{Code: "TOKEN_REVOKED", Message: "Token has been revoked", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput    = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrMissingField    = &AppError{Code: "MISSING_FIELD", Message: "Missing required field", StatusCode: http.StatusBadRequest}
	ErrNotFound        = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrTooManyRequests = &AppError{Code: "TOO_MANY_REQUESTS", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
	ErrInternalServer  = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "Email already registered", StatusCode: http.StatusConflict}
)

// Asset errors.
var (
	ErrAssetNotFound = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found or not owned by user", StatusCode: http.StatusNotFound}
)

// Subscription and billing errors.
var (
	ErrNoSubscription       = &AppError{Code: "NO_SUBSCRIPTION", Message: "No active subscription found", StatusCode: http.StatusBadRequest}
	ErrBillingNotConfigured = &AppError{Code: "BILLING_NOT_CONFIGURED", Message: "Stripe price ID not configured", StatusCode: http.StatusInternalServerError}
	ErrInvalidPriceConfig   = &AppError{Code: "INVALID_PRICE_CONFIG", Message: "Invalid Stripe price configuration", StatusCode: http.StatusInternalServerError}
	ErrPaymentDeclined      = &AppError{Code: "PAYMENT_DECLINED", Message: "Payment method declined", StatusCode: http.StatusBadRequest}
	ErrProvider             = &AppError{Code: "PROVIDER_ERROR", Message: "Billing provider error", StatusCode: http.StatusInternalServerError}
)
